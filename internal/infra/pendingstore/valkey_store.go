package pendingstore

import (
	"context"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/voicebank/internal/domain/dialogue"
)

// ValkeyStore keeps pending questions in a Valkey-compatible database so
// multiple instances share the same session state. TTL enforcement is
// delegated to the server-side key expiry.
type ValkeyStore struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyStore constructs a store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string, ttl time.Duration) *ValkeyStore {
	if prefix == "" {
		prefix = "pending"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if ttl < time.Second {
		ttl = time.Second
	}
	return &ValkeyStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *ValkeyStore) Set(ctx context.Context, sessionID, question string) error {
	if sessionID == "" {
		return nil
	}
	cmd := s.client.B().Set().Key(s.key(sessionID)).Value(question).Ex(s.ttl).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) Get(ctx context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		return "", false, nil
	}
	cmd := s.client.B().Get().Key(s.key(sessionID)).Build()
	question, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return question, true, nil
}

func (s *ValkeyStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	cmd := s.client.B().Del().Key(s.key(sessionID)).Build()
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

var _ dialogue.PendingStore = (*ValkeyStore)(nil)
