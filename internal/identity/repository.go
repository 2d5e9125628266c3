package identity

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrConflict indicates a user with the same email or phone already exists.
	ErrConflict = errors.New("user already exists")
)

// Repository persists users. Insert must enforce email/phone uniqueness
// atomically and report ErrConflict, so that two concurrent signups for the
// same address cannot both win.
type Repository interface {
	Insert(ctx context.Context, user User) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByPhone(ctx context.Context, phone string) (User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
