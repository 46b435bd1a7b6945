package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/voicebank/internal/domain/auth"
	"github.com/yanqian/voicebank/internal/infra/ledgerrepo"
	"github.com/yanqian/voicebank/internal/infra/userrepo"
	apperrors "github.com/yanqian/voicebank/pkg/errors"
)

func newService(t *testing.T) (auth.Service, *ledgerrepo.MemoryRepository) {
	t.Helper()
	accounts := ledgerrepo.NewMemoryRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := auth.NewService(auth.Config{
		Secret:   "test-secret",
		TokenTTL: 4 * time.Hour,
	}, userrepo.NewMemoryRepository(), accounts, logger)
	return svc, accounts
}

func TestRegisterOpensAccountAndReturnsToken(t *testing.T) {
	svc, accounts := newService(t)

	resp, err := svc.Register(context.Background(), auth.RegisterRequest{
		Username: "Yanqian",
		Password: "password123",
		Name:     "Yanqian",
		Balance:  5000,
	})
	require.NoError(t, err)
	assert.Equal(t, "Registration successful", resp.Message)
	assert.NotEmpty(t, resp.Token)
	require.Len(t, resp.AccountID, 6)

	account, found, err := accounts.FindByAccountID(context.Background(), resp.AccountID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 5000.0, account.Balance)
	assert.Equal(t, "Yanqian", account.Name)

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.AccountID, claims.AccountID)
	assert.Equal(t, "yanqian", claims.Username)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t)

	cases := []struct {
		name string
		req  auth.RegisterRequest
	}{
		{"empty username", auth.RegisterRequest{Password: "password123", Name: "A"}},
		{"empty name", auth.RegisterRequest{Username: "a", Password: "password123"}},
		{"short password", auth.RegisterRequest{Username: "a", Password: "short", Name: "A"}},
		{"negative balance", auth.RegisterRequest{Username: "a", Password: "password123", Name: "A", Balance: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, "invalid_input"))
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newService(t)

	req := auth.RegisterRequest{Username: "yanqian", Password: "password123", Name: "Yanqian"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	// Username matching is case-insensitive.
	req.Username = "YANQIAN"
	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "username_exists"))
}

func TestLoginRoundTrip(t *testing.T) {
	svc, _ := newService(t)

	registered, err := svc.Register(context.Background(), auth.RegisterRequest{
		Username: "yanqian",
		Password: "password123",
		Name:     "Yanqian",
	})
	require.NoError(t, err)

	resp, err := svc.Login(context.Background(), auth.LoginRequest{
		Username: "yanqian",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, registered.AccountID, resp.AccountID)

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, registered.AccountID, claims.AccountID)
	assert.WithinDuration(t, time.Now().Add(4*time.Hour), claims.ExpiresAt, time.Minute)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		Username: "yanqian",
		Password: "password123",
		Name:     "Yanqian",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), auth.LoginRequest{Username: "yanqian", Password: "wrongpass"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "invalid_credentials"))

	_, err = svc.Login(context.Background(), auth.LoginRequest{Username: "nobody", Password: "password123"})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "invalid_credentials"))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newService(t)

	for _, token := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		_, err := svc.ValidateToken(context.Background(), token)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "invalid_token"))
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc, _ := newService(t)
	other := func() auth.Service {
		accounts := ledgerrepo.NewMemoryRepository()
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		return auth.NewService(auth.Config{Secret: "other-secret", TokenTTL: time.Hour}, userrepo.NewMemoryRepository(), accounts, logger)
	}()

	resp, err := other.Register(context.Background(), auth.RegisterRequest{
		Username: "yanqian",
		Password: "password123",
		Name:     "Yanqian",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(context.Background(), resp.Token)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "invalid_token"))
}
