package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/portfolio-service/internal/core/domain"
	"github.com/duynhne/portfolio-service/middleware"
)

// ContactService handles inquiries from the public contact form.
// Everything except Submit is restricted to admins.
type ContactService struct {
	contacts domain.ContactRepository
}

func NewContactService(contacts domain.ContactRepository) *ContactService {
	return &ContactService{contacts: contacts}
}

// Submit stores a new unread inquiry.
func (s *ContactService) Submit(ctx context.Context, c domain.Contact) (*domain.Contact, error) {
	ctx, span := middleware.StartSpan(ctx, "contacts.submit", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	c.Name = strings.TrimSpace(c.Name)
	c.Email = normalizeEmail(c.Email)
	c.Subject = strings.TrimSpace(c.Subject)
	c.Message = strings.TrimSpace(c.Message)
	if c.Name == "" || c.Email == "" || c.Subject == "" || c.Message == "" {
		return nil, &ValidationError{Messages: []string{"Please provide all required fields"}}
	}

	v := &validator{}
	v.check(len(c.Name) <= 50, "Name cannot be more than 50 characters")
	v.check(validEmail(c.Email), "Please provide a valid email")
	v.check(len(c.Subject) <= 100, "Subject cannot be more than 100 characters")
	if err := v.err(); err != nil {
		return nil, err
	}

	c.ID = ""
	c.Status = domain.ContactUnread
	created, err := s.contacts.Create(ctx, c)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("insert contact: %w", err)
	}
	span.SetAttributes(attribute.String("contact.id", created.ID))
	return created, nil
}

func (s *ContactService) List(ctx context.Context, actor *domain.User, q domain.ListQuery) ([]domain.Contact, error) {
	ctx, span := middleware.StartSpan(ctx, "contacts.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("list contacts: %w", ErrForbidden)
	}
	items, err := s.contacts.List(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return items, nil
}

func (s *ContactService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Contact, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("get contact: %w", ErrForbidden)
	}
	c, err := s.contacts.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrInvalidID) {
		return nil, fmt.Errorf("get contact %q: %w", id, err)
	}
	if c == nil {
		return nil, &NotFoundError{Resource: "contact", ID: id}
	}
	return c, nil
}

// UpdateStatus moves an inquiry to unread, read or replied.
func (s *ContactService) UpdateStatus(ctx context.Context, actor *domain.User, id, status string) (*domain.Contact, error) {
	ctx, span := middleware.StartSpan(ctx, "contacts.update_status", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("contact.id", id),
		attribute.String("contact.status", status),
	))
	defer span.End()

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("update contact: %w", ErrForbidden)
	}
	switch status {
	case domain.ContactUnread, domain.ContactRead, domain.ContactReplied:
	default:
		return nil, &ValidationError{Messages: []string{"Please provide a valid status (unread, read, replied)"}}
	}

	c, err := s.contacts.UpdateStatus(ctx, id, status)
	if err != nil && !errors.Is(err, domain.ErrInvalidID) {
		span.RecordError(err)
		return nil, fmt.Errorf("update contact %q: %w", id, err)
	}
	if c == nil {
		return nil, &NotFoundError{Resource: "contact", ID: id}
	}
	return c, nil
}

func (s *ContactService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("delete contact: %w", ErrForbidden)
	}
	ok, err := s.contacts.Delete(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrInvalidID) {
		return fmt.Errorf("delete contact %q: %w", id, err)
	}
	if !ok {
		return &NotFoundError{Resource: "contact", ID: id}
	}
	return nil
}
