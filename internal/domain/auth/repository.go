package auth

import (
	"context"
	"errors"
)

// ErrUsernameExists indicates a duplicate username.
var ErrUsernameExists = errors.New("username already exists")

// Repository encapsulates user storage.
type Repository interface {
	Create(ctx context.Context, username, passwordHash, accountID string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, bool, error)
	GetByID(ctx context.Context, id int64) (User, bool, error)
}
