package faq

import "context"

// Repository is the FAQ document collection.
type Repository interface {
	// FindExact returns the record whose question matches under
	// NormalizedEqual semantics.
	FindExact(ctx context.Context, question string) (Record, bool, error)
	// FindAll returns up to limit records in insertion order.
	FindAll(ctx context.Context, limit int) ([]Record, error)
	Insert(ctx context.Context, question, answer string) error
}
