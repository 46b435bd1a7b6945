package dialogue

import "context"

// Classifier is the hosted intent-classification collaborator. Implementations
// must degrade to a smalltalk classification instead of failing when the
// hosted model misbehaves; an error here means the collaborator could not even
// produce a degraded result.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
}

// PendingStore keeps the single outstanding unanswered question per session,
// expiring entries after a fixed TTL. Implementations must be safe for
// concurrent use and must treat an empty session id as a no-op on Set.
type PendingStore interface {
	Set(ctx context.Context, sessionID, question string) error
	// Get returns the pending question, deleting and hiding entries whose
	// TTL has elapsed even if no background sweep ran.
	Get(ctx context.Context, sessionID string) (string, bool, error)
	Clear(ctx context.Context, sessionID string) error
}

// Transcriber converts caller audio to text. A recognition failure yields an
// empty transcript, never an error that reaches routing.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}

// Synthesizer renders reply text as audio. A synthesis failure yields nil
// audio, never an error that reaches routing.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// AudioStore persists synthesized clips so the transport can serve them.
type AudioStore interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (url string, err error)
	Get(ctx context.Context, name string) (data []byte, contentType string, err error)
}

// InteractionRepository logs exchanges best-effort; failures are logged and
// swallowed by the service.
type InteractionRepository interface {
	Insert(ctx context.Context, record InteractionRecord) error
}
