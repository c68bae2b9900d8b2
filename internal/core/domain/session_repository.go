package domain

import (
	"context"
	"time"
)

// SessionRow represents an issued token joined with its owner user,
// returned by session lookup queries.
type SessionRow struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// SessionRepository records every token handed out at login or registration.
// A token that verifies but is missing here has been superseded and is rejected.
type SessionRepository interface {
	// Create records a token issued to the given user.
	Create(ctx context.Context, userID, token string, expiresAt time.Time) error

	// GetUserByToken looks up the session by token and returns the owning
	// user id and role together with the session expiry time.
	// Returns (nil, nil) when the token does not match any session.
	GetUserByToken(ctx context.Context, token string) (*SessionRow, error)
}
