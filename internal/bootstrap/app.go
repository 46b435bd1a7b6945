package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yanqian/voicebank/internal/domain/auth"
	"github.com/yanqian/voicebank/internal/domain/faq"
	"github.com/yanqian/voicebank/internal/domain/ledger"
	"github.com/yanqian/voicebank/internal/infra/config"
)

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	accounts ledger.Repository
	users    auth.Repository
	faqs     faq.Repository
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, logger *slog.Logger, server *http.Server, accounts ledger.Repository, users auth.Repository, faqs faq.Repository) *App {
	return &App{
		cfg:      cfg,
		logger:   logger.With("component", "bootstrap"),
		server:   server,
		accounts: accounts,
		users:    users,
		faqs:     faqs,
	}
}

// Run seeds demo data, starts the HTTP server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	a.seed(ctx)

	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server starting", "address", a.cfg.HTTP.Address)
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// seed loads demo accounts, logins and FAQ records best-effort. Accounts
// upsert, so restarts do not duplicate; users and FAQ records are skipped
// when already present.
func (a *App) seed(ctx context.Context) {
	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	for _, account := range a.cfg.Seed.Accounts {
		status := ledger.AccountStatus(account.Status)
		if status == "" {
			status = ledger.StatusActive
		}
		err := a.accounts.Create(seedCtx, ledger.Account{
			AccountID: account.AccountID,
			Name:      account.Name,
			Balance:   account.Balance,
			Status:    status,
		})
		if err != nil {
			a.logger.Warn("account seeding failed", "accountId", account.AccountID, "error", err)
		}
	}

	for _, user := range a.cfg.Seed.Users {
		_, exists, err := a.users.GetByUsername(seedCtx, user.Username)
		if err != nil {
			a.logger.Warn("user seed lookup failed", "username", user.Username, "error", err)
			continue
		}
		if exists {
			continue
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			a.logger.Warn("user seed hashing failed", "username", user.Username, "error", err)
			continue
		}
		if _, err := a.users.Create(seedCtx, user.Username, string(hashed), user.AccountID); err != nil {
			a.logger.Warn("user seeding failed", "username", user.Username, "error", err)
		}
	}

	for _, item := range a.cfg.Seed.FAQs {
		_, found, err := a.faqs.FindExact(seedCtx, item.Question)
		if err != nil {
			a.logger.Warn("faq seed lookup failed", "question", item.Question, "error", err)
			continue
		}
		if found {
			continue
		}
		if err := a.faqs.Insert(seedCtx, item.Question, item.Answer); err != nil {
			a.logger.Warn("faq seeding failed", "question", item.Question, "error", err)
		}
	}
}
