package ledgerrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/voicebank/internal/domain/ledger"
)

// PostgresRepository implements ledger.Repository using pgx.
//
// Schema:
//
//	CREATE TABLE accounts (
//	    account_id TEXT PRIMARY KEY,
//	    name       TEXT NOT NULL,
//	    balance    NUMERIC NOT NULL DEFAULT 0,
//	    status     TEXT NOT NULL DEFAULT 'active'
//	);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FindByAccountID fetches one account row.
func (r *PostgresRepository) FindByAccountID(ctx context.Context, accountID string) (ledger.Account, bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT account_id, name, balance, status
		FROM accounts
		WHERE account_id = $1
		LIMIT 1
	`, accountID)
	if err != nil {
		return ledger.Account{}, false, err
	}
	defer rows.Close()
	if !rows.Next() {
		return ledger.Account{}, false, rows.Err()
	}
	account, err := scanAccount(rows)
	if err != nil {
		return ledger.Account{}, false, err
	}
	return account, true, rows.Err()
}

// ApplyDelta pushes the arithmetic into a conditional UPDATE so concurrent
// mutations serialize at the row and the balance can never go negative.
func (r *PostgresRepository) ApplyDelta(ctx context.Context, accountID string, delta float64) (float64, error) {
	var balance float64
	err := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET balance = balance + $2
		WHERE account_id = $1 AND balance + $2 >= 0
		RETURNING balance
	`, accountID, delta).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing row from a rejected debit.
		_, found, lookupErr := r.FindByAccountID(ctx, accountID)
		if lookupErr != nil {
			return 0, lookupErr
		}
		if !found {
			return 0, ledger.ErrAccountNotFound
		}
		return 0, ledger.ErrInsufficientFunds
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Create upserts the account row, keeping seeding idempotent.
func (r *PostgresRepository) Create(ctx context.Context, account ledger.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (account_id, name, balance, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id)
		DO UPDATE SET name = EXCLUDED.name, balance = EXCLUDED.balance, status = EXCLUDED.status
	`, account.AccountID, account.Name, account.Balance, string(account.Status))
	return err
}

func scanAccount(rows pgx.Rows) (ledger.Account, error) {
	var (
		account ledger.Account
		status  string
	)
	if err := rows.Scan(&account.AccountID, &account.Name, &account.Balance, &status); err != nil {
		return ledger.Account{}, err
	}
	account.Status = ledger.AccountStatus(status)
	return account, nil
}

var _ ledger.Repository = (*PostgresRepository)(nil)
