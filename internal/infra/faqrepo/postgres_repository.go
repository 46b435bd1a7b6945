package faqrepo

import (
	"context"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/voicebank/internal/domain/faq"
)

// PostgresRepository implements faq.Repository using pgx.
//
// Schema:
//
//	CREATE TABLE faqs (
//	    id       BIGSERIAL PRIMARY KEY,
//	    question TEXT NOT NULL,
//	    answer   TEXT NOT NULL
//	);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// FindExact fetches by normalized whole-string equality, expressed in SQL so
// punctuation and case differences collapse the same way the domain
// normalizer collapses them.
func (r *PostgresRepository) FindExact(ctx context.Context, question string) (faq.Record, bool, error) {
	normalized := strings.TrimSpace(nonAlnum.ReplaceAllString(strings.ToLower(question), " "))
	rows, err := r.pool.Query(ctx, `
		SELECT question, answer
		FROM faqs
		WHERE trim(regexp_replace(lower(question), '[^a-z0-9]+', ' ', 'g')) = $1
		LIMIT 1
	`, normalized)
	if err != nil {
		return faq.Record{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return faq.Record{}, false, rows.Err()
	}
	var record faq.Record
	if err := rows.Scan(&record.Question, &record.Answer); err != nil {
		return faq.Record{}, false, err
	}
	return record, true, rows.Err()
}

// FindAll returns up to limit records in insertion order.
func (r *PostgresRepository) FindAll(ctx context.Context, limit int) ([]faq.Record, error) {
	if limit <= 0 {
		limit = faq.DefaultCandidateLimit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT question, answer
		FROM faqs
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []faq.Record
	for rows.Next() {
		var record faq.Record
		if err := rows.Scan(&record.Question, &record.Answer); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Insert appends a new record.
func (r *PostgresRepository) Insert(ctx context.Context, question, answer string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO faqs (question, answer)
		VALUES ($1, $2)
	`, question, answer)
	return err
}

var _ faq.Repository = (*PostgresRepository)(nil)
