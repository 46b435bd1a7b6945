//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/voicebank/internal/bootstrap"
	"github.com/yanqian/voicebank/internal/domain/auth"
	"github.com/yanqian/voicebank/internal/domain/dialogue"
	"github.com/yanqian/voicebank/internal/infra/config"
	httpiface "github.com/yanqian/voicebank/internal/interface/http"
	"github.com/yanqian/voicebank/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideAuthConfig,
		provideFAQConfig,
		provideFAQRepository,
		provideLedgerRepository,
		provideUserRepository,
		provideInteractionRepository,
		providePendingStore,
		provideAudioStore,
		provideClassifier,
		provideTranscriber,
		provideSynthesizer,
		auth.NewService,
		dialogue.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
