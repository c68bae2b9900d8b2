// Package v1 provides the portfolio business logic for API version 1.
//
// Error Handling:
// This package defines sentinel errors that represent common failures.
// They are wrapped with context using fmt.Errorf("%w") when returned
// from business logic methods.
//
// Example Usage:
//
//	if user == nil {
//	    return nil, fmt.Errorf("authenticate user %q: %w", email, ErrUserNotFound)
//	}
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrInvalidCredentials):
//	    c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid credentials"})
//	case errors.Is(err, logicv1.ErrNotFound):
//	    c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
//	}
package v1

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for portfolio operations.
// These errors should be wrapped with context using fmt.Errorf("%w") when returned.
var (
	// ErrInvalidCredentials indicates the provided credentials are incorrect.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound indicates the user does not exist in the system.
	// HTTP Status: 401 at login (don't reveal user existence), 404 elsewhere
	ErrUserNotFound = errors.New("user not found")

	// ErrIncorrectPassword indicates the current password given for a change is wrong.
	// HTTP Status: 401 Unauthorized
	ErrIncorrectPassword = errors.New("current password is incorrect")

	// ErrForbidden indicates the caller is authenticated but lacks the required role or ownership.
	// HTTP Status: 403 Forbidden
	ErrForbidden = errors.New("forbidden")

	// ErrUserExists indicates the email is already registered.
	// HTTP Status: 400 Bad Request
	ErrUserExists = errors.New("user already exists")

	// ErrSessionNotFound indicates the token was never issued or has been superseded.
	// HTTP Status: 401 Unauthorized
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired indicates the session token has expired.
	// HTTP Status: 401 Unauthorized
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidToken indicates the bearer token is malformed or its signature does not verify.
	// HTTP Status: 401 Unauthorized
	ErrInvalidToken = errors.New("invalid token")

	// ErrNotFound indicates the requested document does not exist. Malformed
	// ids are reported the same way.
	// HTTP Status: 404 Not Found
	ErrNotFound = errors.New("not found")

	// ErrNoFile indicates a multipart upload without the expected file field.
	// HTTP Status: 400 Bad Request
	ErrNoFile = errors.New("no file uploaded")

	// ErrUnsupportedImage indicates an upload whose content type is not an accepted image.
	// HTTP Status: 400 Bad Request
	ErrUnsupportedImage = errors.New("unsupported image type")

	// ErrStorage indicates the object store rejected an upload.
	// HTTP Status: 500 Internal Server Error
	ErrStorage = errors.New("object storage failure")
)

// ValidationError aggregates field-level messages for one request.
// HTTP Status: 400 Bad Request
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// validator collects messages; err returns nil when nothing was reported.
type validator struct {
	messages []string
}

func (v *validator) check(ok bool, msg string) {
	if !ok {
		v.messages = append(v.messages, msg)
	}
}

func (v *validator) err() error {
	if len(v.messages) == 0 {
		return nil
	}
	return &ValidationError{Messages: v.messages}
}

// NotFoundError names the missing document. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No %s found with id: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
