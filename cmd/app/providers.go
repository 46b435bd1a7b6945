package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/voicebank/internal/domain/auth"
	"github.com/yanqian/voicebank/internal/domain/dialogue"
	"github.com/yanqian/voicebank/internal/domain/faq"
	"github.com/yanqian/voicebank/internal/domain/ledger"
	"github.com/yanqian/voicebank/internal/infra/audiostore"
	"github.com/yanqian/voicebank/internal/infra/config"
	"github.com/yanqian/voicebank/internal/infra/faqrepo"
	"github.com/yanqian/voicebank/internal/infra/interactionrepo"
	"github.com/yanqian/voicebank/internal/infra/ledgerrepo"
	"github.com/yanqian/voicebank/internal/infra/nlu/gemini"
	"github.com/yanqian/voicebank/internal/infra/pendingstore"
	"github.com/yanqian/voicebank/internal/infra/speech/deepgram"
	"github.com/yanqian/voicebank/internal/infra/speech/gtts"
	"github.com/yanqian/voicebank/internal/infra/userrepo"
)

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.Secret,
		TokenTTL: cfg.Auth.TokenTTL,
	}
}

func provideFAQConfig(cfg *config.Config) faq.Config {
	return faq.Config{
		Threshold:      cfg.FAQ.Threshold,
		CandidateLimit: cfg.FAQ.CandidateLimit,
	}
}

var (
	poolOnce sync.Once
	pool     *pgxpool.Pool
)

// sharedPostgresPool dials Postgres once; all repositories share the pool.
// A nil return means the callers should fall back to memory storage.
func sharedPostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	poolOnce.Do(func() {
		dsn := strings.TrimSpace(cfg.Postgres.DSN)
		if dsn == "" {
			logger.Info("postgres dsn not set, using memory repositories")
			return
		}
		poolConfig, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			logger.Error("invalid postgres dsn, using memory repositories", "error", err)
			return
		}
		if cfg.Postgres.MaxConns > 0 {
			poolConfig.MaxConns = cfg.Postgres.MaxConns
		}
		if cfg.Postgres.MinConns > 0 {
			poolConfig.MinConns = cfg.Postgres.MinConns
		}
		created, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
		if err != nil {
			logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := created.Ping(ctx); err != nil {
			logger.Error("postgres ping failed, using memory repositories", "error", err)
			created.Close()
			return
		}
		logger.Info("postgres repositories enabled")
		pool = created
	})
	return pool
}

func provideFAQRepository(cfg *config.Config, logger *slog.Logger) faq.Repository {
	if p := sharedPostgresPool(cfg, logger); p != nil {
		return faqrepo.NewPostgresRepository(p)
	}
	return faqrepo.NewMemoryRepository()
}

func provideLedgerRepository(cfg *config.Config, logger *slog.Logger) ledger.Repository {
	if p := sharedPostgresPool(cfg, logger); p != nil {
		return ledgerrepo.NewPostgresRepository(p)
	}
	return ledgerrepo.NewMemoryRepository()
}

func provideUserRepository(cfg *config.Config, logger *slog.Logger) auth.Repository {
	if p := sharedPostgresPool(cfg, logger); p != nil {
		return userrepo.NewPostgresRepository(p)
	}
	return userrepo.NewMemoryRepository()
}

func provideInteractionRepository(cfg *config.Config, logger *slog.Logger) dialogue.InteractionRepository {
	if p := sharedPostgresPool(cfg, logger); p != nil {
		return interactionrepo.NewPostgresRepository(p)
	}
	return interactionrepo.NewMemoryRepository()
}

func providePendingStore(cfg *config.Config, logger *slog.Logger) dialogue.PendingStore {
	if cfg.Pending.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory pending store", "error", err)
			return pendingstore.NewMemoryStore(cfg.Pending.TTL, nil)
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory pending store", "error", err)
			return pendingstore.NewMemoryStore(cfg.Pending.TTL, nil)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory pending store", "error", err)
		} else {
			logger.Info("valkey pending store enabled", "addr", cfg.Pending.Valkey.Addr)
			return pendingstore.NewValkeyStore(client, "pending", cfg.Pending.TTL)
		}
	}
	return pendingstore.NewMemoryStore(cfg.Pending.TTL, nil)
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Pending.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Pending.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Pending.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideAudioStore(cfg *config.Config, logger *slog.Logger) dialogue.AudioStore {
	if cfg.Audio.Minio.Enabled {
		client, err := minio.New(cfg.Audio.Minio.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Audio.Minio.AccessKey, cfg.Audio.Minio.SecretKey, ""),
			Secure: cfg.Audio.Minio.UseSSL,
		})
		if err != nil {
			logger.Error("failed to create minio client, falling back to memory audio store", "error", err)
			return audiostore.NewMemoryStore()
		}
		store := audiostore.NewMinioStore(client, cfg.Audio.Minio.Bucket)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Error("minio bucket check failed, falling back to memory audio store", "error", err)
			return audiostore.NewMemoryStore()
		}
		logger.Info("minio audio store enabled", "bucket", cfg.Audio.Minio.Bucket)
		return store
	}
	return audiostore.NewMemoryStore()
}

func provideClassifier(cfg *config.Config, logger *slog.Logger) dialogue.Classifier {
	client, err := gemini.NewClient(cfg.NLU.APIKey, cfg.NLU.BaseURL, cfg.NLU.Model, logger)
	if err != nil {
		logger.Warn("gemini classifier unavailable, using heuristic classifier", "error", err)
		return gemini.NewHeuristicClassifier()
	}
	return client
}

func provideTranscriber(cfg *config.Config, logger *slog.Logger) dialogue.Transcriber {
	client, err := deepgram.NewClient(cfg.Speech.DeepgramAPIKey, cfg.Speech.DeepgramBaseURL, cfg.Speech.DeepgramModel, logger)
	if err != nil {
		logger.Warn("deepgram transcriber unavailable, voice input degrades to clarification prompts", "error", err)
		return deepgram.NoopTranscriber{}
	}
	return client
}

func provideSynthesizer(cfg *config.Config, logger *slog.Logger) dialogue.Synthesizer {
	return gtts.NewClient(cfg.Speech.TTSLanguage, logger)
}
