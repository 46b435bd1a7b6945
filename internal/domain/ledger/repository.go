package ledger

import "context"

// Repository encapsulates account storage.
//
// Balance mutation is expressed as an atomic delta rather than read-modify-
// write so two concurrent deposits against the same account cannot lose an
// update. Implementations either serialize per account or push the
// arithmetic into a conditional storage-level update.
type Repository interface {
	FindByAccountID(ctx context.Context, accountID string) (Account, bool, error)
	// ApplyDelta adjusts the balance by delta and returns the new balance.
	// A delta that would drive the balance negative fails with
	// ErrInsufficientFunds and leaves the balance unchanged.
	ApplyDelta(ctx context.Context, accountID string, delta float64) (float64, error)
	Create(ctx context.Context, account Account) error
}
