package ledgerrepo

import (
	"context"
	"fmt"
	"sync"

	"github.com/yanqian/voicebank/internal/domain/ledger"
)

// MemoryRepository is an in-memory account store used for tests/dev. A
// single mutex serializes balance mutations, so concurrent deposits against
// the same account cannot lose updates.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]ledger.Account
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]ledger.Account)}
}

// FindByAccountID implements ledger.Repository.
func (r *MemoryRepository) FindByAccountID(_ context.Context, accountID string) (ledger.Account, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[accountID]
	return account, ok, nil
}

// ApplyDelta implements ledger.Repository. The read and write happen under
// one lock, so the arithmetic is atomic per account.
func (r *MemoryRepository) ApplyDelta(_ context.Context, accountID string, delta float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountID]
	if !ok {
		return 0, ledger.ErrAccountNotFound
	}
	next := account.Balance + delta
	if next < 0 {
		return 0, ledger.ErrInsufficientFunds
	}
	account.Balance = next
	r.accounts[accountID] = account
	return next, nil
}

// Create implements ledger.Repository. Upserting keeps seeding idempotent.
func (r *MemoryRepository) Create(_ context.Context, account ledger.Account) error {
	if account.AccountID == "" {
		return fmt.Errorf("account id cannot be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[account.AccountID] = account
	return nil
}

var _ ledger.Repository = (*MemoryRepository)(nil)
