package domain

import (
	"context"
	"time"
)

// UserRow represents a user record returned from the database.
// It includes the password hash so the Logic layer can verify credentials.
type UserRow struct {
	User
	PasswordHash string
	UpdatedAt    time.Time
}

// UserRepository defines the data-access contract for user operations.
// Implementations live in internal/core/repository (Core layer).
// The Logic layer depends on this interface only, never on SQL or pgx directly.
type UserRepository interface {
	// GetByEmail returns the user matching the given email.
	// Returns (nil, nil) when no user is found.
	GetByEmail(ctx context.Context, email string) (*UserRow, error)

	// GetByID returns the user with the given id, or (nil, nil).
	GetByID(ctx context.Context, id string) (*UserRow, error)

	// GetFirstAdmin returns the oldest admin account, or (nil, nil).
	GetFirstAdmin(ctx context.Context) (*UserRow, error)

	// Create inserts a new user and returns the stored row.
	// A taken email yields a *DuplicateKeyError.
	Create(ctx context.Context, row UserRow) (*UserRow, error)

	// Update overwrites the profile fields of an existing user and returns
	// the stored row, or (nil, nil) when the user does not exist.
	Update(ctx context.Context, row UserRow) (*UserRow, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}
