package deepgram

import (
	"context"

	"github.com/yanqian/voicebank/internal/domain/dialogue"
)

// NoopTranscriber returns empty transcripts. It backs deployments without a
// Deepgram API key, where every voice exchange degrades to a clarification
// prompt.
type NoopTranscriber struct{}

func (NoopTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return "", nil
}

var _ dialogue.Transcriber = NoopTranscriber{}
