package ledgerrepo

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/voicebank/internal/domain/ledger"
)

func newRepoWithAccount(t *testing.T, balance float64) *MemoryRepository {
	t.Helper()
	repo := NewMemoryRepository()
	require.NoError(t, repo.Create(context.Background(), ledger.Account{
		AccountID: "101",
		Name:      "Alice Example",
		Balance:   balance,
		Status:    ledger.StatusActive,
	}))
	return repo
}

func TestApplyDelta_DepositAndWithdraw(t *testing.T) {
	repo := newRepoWithAccount(t, 5000)
	ctx := context.Background()

	balance, err := repo.ApplyDelta(ctx, "101", -2000)
	require.NoError(t, err)
	require.Equal(t, 3000.0, balance)

	balance, err = repo.ApplyDelta(ctx, "101", 500)
	require.NoError(t, err)
	require.Equal(t, 3500.0, balance)
}

func TestApplyDelta_InsufficientFundsLeavesBalance(t *testing.T) {
	repo := newRepoWithAccount(t, 3000)
	ctx := context.Background()

	_, err := repo.ApplyDelta(ctx, "101", -4000)
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	account, found, err := repo.FindByAccountID(ctx, "101")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 3000.0, account.Balance)
}

func TestApplyDelta_DrainToZeroSucceeds(t *testing.T) {
	repo := newRepoWithAccount(t, 3000)

	balance, err := repo.ApplyDelta(context.Background(), "101", -3000)
	require.NoError(t, err)
	require.Equal(t, 0.0, balance)
}

func TestApplyDelta_UnknownAccount(t *testing.T) {
	repo := NewMemoryRepository()

	_, err := repo.ApplyDelta(context.Background(), "999", 100)
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestApplyDelta_ConcurrentDepositsDoNotLoseUpdates(t *testing.T) {
	repo := newRepoWithAccount(t, 0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.ApplyDelta(ctx, "101", 10)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	account, _, err := repo.FindByAccountID(ctx, "101")
	require.NoError(t, err)
	require.Equal(t, 500.0, account.Balance)
}
