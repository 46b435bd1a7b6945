package interactionrepo

import (
	"context"
	"sync"

	"github.com/yanqian/voicebank/internal/domain/dialogue"
)

// MemoryRepository keeps the interaction log in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []dialogue.InteractionRecord
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Insert implements dialogue.InteractionRepository.
func (r *MemoryRepository) Insert(_ context.Context, record dialogue.InteractionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

// Records returns a copy of the log, oldest first.
func (r *MemoryRepository) Records() []dialogue.InteractionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]dialogue.InteractionRecord, len(r.records))
	copy(out, r.records)
	return out
}

var _ dialogue.InteractionRepository = (*MemoryRepository)(nil)
