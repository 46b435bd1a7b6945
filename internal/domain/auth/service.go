package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/yanqian/voicebank/internal/domain/ledger"
	apperrors "github.com/yanqian/voicebank/pkg/errors"
)

// Service exposes authentication workflows.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg      Config
	repo     Repository
	accounts ledger.Repository
	logger   *slog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg Config, repo Repository, accounts ledger.Repository, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		repo:     repo,
		accounts: accounts,
		logger:   logger.With("component", "auth.service"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	username := strings.TrimSpace(strings.ToLower(req.Username))
	if username == "" {
		return RegisterResponse{}, apperrors.Wrap("invalid_input", "username cannot be empty", nil)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return RegisterResponse{}, apperrors.Wrap("invalid_input", "name cannot be empty", nil)
	}
	if err := validatePassword(req.Password); err != nil {
		return RegisterResponse{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	if req.Balance < 0 {
		return RegisterResponse{}, apperrors.Wrap("invalid_input", "opening balance cannot be negative", nil)
	}
	_, exists, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return RegisterResponse{}, apperrors.Wrap("auth_error", "failed to check user", err)
	}
	if exists {
		return RegisterResponse{}, apperrors.Wrap("username_exists", "username already registered", nil)
	}

	accountID := newAccountID()
	if err := s.accounts.Create(ctx, ledger.Account{
		AccountID: accountID,
		Name:      name,
		Balance:   req.Balance,
		Status:    ledger.StatusActive,
	}); err != nil {
		return RegisterResponse{}, apperrors.Wrap("auth_error", "failed to open account", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return RegisterResponse{}, apperrors.Wrap("auth_error", "failed to hash password", err)
	}
	user, err := s.repo.Create(ctx, username, string(hashed), accountID)
	if err != nil {
		if errors.Is(err, ErrUsernameExists) {
			return RegisterResponse{}, apperrors.Wrap("username_exists", "username already registered", err)
		}
		return RegisterResponse{}, apperrors.Wrap("auth_error", "failed to create user", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return RegisterResponse{}, err
	}
	return RegisterResponse{
		Message:   "Registration successful",
		Token:     token,
		AccountID: accountID,
		Name:      name,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	username := strings.TrimSpace(strings.ToLower(req.Username))
	if username == "" || strings.TrimSpace(req.Password) == "" {
		return LoginResponse{}, apperrors.Wrap("invalid_input", "username and password required", nil)
	}
	user, found, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return LoginResponse{}, apperrors.Wrap("auth_error", "failed to fetch user", err)
	}
	if !found {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid username or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResponse{}, apperrors.Wrap("invalid_credentials", "invalid username or password", nil)
	}
	token, err := s.generateToken(user)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{Token: token, AccountID: user.AccountID}, nil
}

func (s *service) ValidateToken(ctx context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap("invalid_token", "token invalid", nil)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing expiry", nil)
	}
	if claims.ExpiresAt.Time.Before(time.Now()) {
		return Claims{}, apperrors.Wrap("invalid_token", "token expired", nil)
	}
	return Claims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		AccountID: claims.AccountID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *service) generateToken(user User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID:    user.ID,
		Username:  user.Username,
		AccountID: user.AccountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        newTokenID(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", apperrors.Wrap("auth_error", "failed to sign token", err)
	}
	return signed, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID    int64  `json:"userId"`
	Username  string `json:"username"`
	AccountID string `json:"accountId"`
}

// newAccountID derives a 6 digit identifier from the clock; collisions are
// caught by the account uniqueness check at creation.
func newAccountID() string {
	id := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return id[len(id)-6:]
}

func newTokenID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return hex.EncodeToString(buf)
}
