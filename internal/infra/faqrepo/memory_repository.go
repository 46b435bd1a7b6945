package faqrepo

import (
	"context"
	"sync"

	"github.com/yanqian/voicebank/internal/domain/faq"
)

// MemoryRepository is an in-memory FAQ collection used for tests/dev.
// Records are kept in insertion order, which is the enumeration order seen
// by the matcher.
type MemoryRepository struct {
	mu      sync.RWMutex
	records []faq.Record
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Seed loads initial records, typically from config.
func (r *MemoryRepository) Seed(records []faq.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, records...)
}

// FindExact implements faq.Repository using normalized whole-string equality.
func (r *MemoryRepository) FindExact(_ context.Context, question string) (faq.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, record := range r.records {
		if faq.NormalizedEqual(record.Question, question) {
			return record, true, nil
		}
	}
	return faq.Record{}, false, nil
}

// FindAll implements faq.Repository.
func (r *MemoryRepository) FindAll(_ context.Context, limit int) ([]faq.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := len(r.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]faq.Record, n)
	copy(out, r.records[:n])
	return out, nil
}

// Insert implements faq.Repository.
func (r *MemoryRepository) Insert(_ context.Context, question, answer string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, faq.Record{Question: question, Answer: answer})
	return nil
}

var _ faq.Repository = (*MemoryRepository)(nil)
