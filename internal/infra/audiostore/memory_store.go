package audiostore

import (
	"context"
	"errors"
	"sync"

	"github.com/yanqian/voicebank/internal/domain/dialogue"
)

// ErrNotFound indicates the clip does not exist.
var ErrNotFound = errors.New("audio clip not found")

type clip struct {
	data        []byte
	contentType string
}

// MemoryStore keeps synthesized clips in process memory. Clips are served
// back through the /tts route, matching the URL returned from Save.
type MemoryStore struct {
	mu    sync.RWMutex
	clips map[string]clip
}

// NewMemoryStore constructs a store backed by memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{clips: make(map[string]clip)}
}

// Save implements dialogue.AudioStore.
func (s *MemoryStore) Save(_ context.Context, name string, data []byte, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.clips[name] = clip{data: stored, contentType: contentType}
	return "/tts/" + name, nil
}

// Get implements dialogue.AudioStore.
func (s *MemoryStore) Get(_ context.Context, name string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.clips[name]
	if !ok {
		return nil, "", ErrNotFound
	}
	return c.data, c.contentType, nil
}

var _ dialogue.AudioStore = (*MemoryStore)(nil)
