package auth

import "time"

// Config drives authentication behavior.
type Config struct {
	Secret   string
	TokenTTL time.Duration
}

// User is a login identity bound to exactly one ledger account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	AccountID    string    `json:"accountId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterRequest captures the self-service registration payload. An account
// is opened together with the login.
type RegisterRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Name     string  `json:"name"`
	Balance  float64 `json:"balance"`
}

// RegisterResponse returns the fresh binding plus a login token.
type RegisterResponse struct {
	Message   string `json:"message"`
	Token     string `json:"token"`
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
}

// LoginRequest captures login details.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse returns the signed token and the bound account.
type LoginResponse struct {
	Token     string `json:"token"`
	AccountID string `json:"accountId"`
}

// Claims are extracted from a validated token. AccountID is the caller's
// authenticated account binding used by the dialogue layer.
type Claims struct {
	UserID    int64
	Username  string
	AccountID string
	ExpiresAt time.Time
}
