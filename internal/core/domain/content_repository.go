package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidID is returned by repositories when an identifier is not a
// well-formed document id. Callers treat it exactly like a missing document.
var ErrInvalidID = errors.New("invalid id")

// DuplicateKeyError reports a unique-constraint violation on Field.
type DuplicateKeyError struct {
	Field string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

// ProjectRepository defines data access for portfolio projects.
// Get, Update and Delete report a missing document as (nil, nil) / false.
type ProjectRepository interface {
	List(ctx context.Context, q ListQuery) ([]Project, error)
	Get(ctx context.Context, id string) (*Project, error)
	Create(ctx context.Context, p Project) (*Project, error)
	Update(ctx context.Context, p Project) (*Project, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// SkillRepository defines data access for skills.
type SkillRepository interface {
	List(ctx context.Context, q ListQuery) ([]Skill, error)
	Get(ctx context.Context, id string) (*Skill, error)
	Create(ctx context.Context, s Skill) (*Skill, error)
	Update(ctx context.Context, s Skill) (*Skill, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ContactRepository defines data access for contact inquiries.
type ContactRepository interface {
	List(ctx context.Context, q ListQuery) ([]Contact, error)
	Get(ctx context.Context, id string) (*Contact, error)
	Create(ctx context.Context, c Contact) (*Contact, error)
	UpdateStatus(ctx context.Context, id, status string) (*Contact, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// ImageStore is the object store for uploaded images. Put returns the public
// URL of the stored object.
type ImageStore interface {
	Put(ctx context.Context, folder, name, contentType string, data []byte) (string, error)
}
