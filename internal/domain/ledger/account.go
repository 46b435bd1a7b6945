package ledger

import "errors"

// AccountStatus enumerates the lifecycle states of an account.
type AccountStatus string

const (
	StatusActive   AccountStatus = "active"
	StatusInactive AccountStatus = "inactive"
	StatusClosed   AccountStatus = "closed"
)

// Account is a bank account row.
type Account struct {
	AccountID string        `json:"accountId"`
	Name      string        `json:"name"`
	Balance   float64       `json:"balance"`
	Status    AccountStatus `json:"status"`
}

// ErrInsufficientFunds is returned by ApplyDelta when a debit would take the
// balance below zero. The balance is left unchanged.
var ErrInsufficientFunds = errors.New("insufficient balance")

// ErrAccountNotFound is returned when no account exists for the identifier.
var ErrAccountNotFound = errors.New("account not found")
