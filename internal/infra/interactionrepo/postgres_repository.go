package interactionrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/voicebank/internal/domain/dialogue"
)

// PostgresRepository persists the interaction log in Postgres.
//
// Schema:
//
//	CREATE TABLE interactions (
//	    id            UUID PRIMARY KEY,
//	    input_text    TEXT NOT NULL,
//	    intent        TEXT NOT NULL,
//	    response_text TEXT NOT NULL,
//	    created_at    TIMESTAMPTZ NOT NULL
//	);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Insert implements dialogue.InteractionRepository.
func (r *PostgresRepository) Insert(ctx context.Context, record dialogue.InteractionRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO interactions (id, input_text, intent, response_text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, record.ID, record.InputText, string(record.Intent), record.ResponseText, record.CreatedAt)
	return err
}

var _ dialogue.InteractionRepository = (*PostgresRepository)(nil)
