package pendingstore

import (
	"context"
	"sync"
	"time"

	"github.com/yanqian/voicebank/internal/domain/dialogue"
)

// DefaultTTL bounds how long an unanswered question stays claimable.
const DefaultTTL = 10 * time.Minute

type entry struct {
	question  string
	createdAt time.Time
}

// MemoryStore keeps pending questions in process memory. Expiry is lazy: an
// entry past its TTL is removed on the next read, not by a background sweep,
// which is acceptable because the confirmation flow always reads before
// acting. State is per process; multi-instance deployments must use the
// Valkey store instead.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore constructs a store with the given TTL. The clock is
// injectable so tests can simulate time passage.
func NewMemoryStore(ttl time.Duration, now func() time.Time) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

// Set records the question for the session; later writes overwrite earlier
// ones. An empty session id is a no-op.
func (s *MemoryStore) Set(_ context.Context, sessionID, question string) error {
	if sessionID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = entry{question: question, createdAt: s.now()}
	return nil
}

// Get returns the pending question, deleting expired entries on the way.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		return "", false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	if !ok {
		return "", false, nil
	}
	if s.now().Sub(e.createdAt) > s.ttl {
		delete(s.entries, sessionID)
		return "", false, nil
	}
	return e.question, true, nil
}

// Clear drops the entry for the session.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

var _ dialogue.PendingStore = (*MemoryStore)(nil)
