package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/portfolio-service/internal/core/domain"
	"github.com/duynhne/portfolio-service/middleware"
)

var projectImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}

// ProjectService implements the portfolio project business rules.
type ProjectService struct {
	projects domain.ProjectRepository
	images   domain.ImageStore
	now      func() time.Time
}

func NewProjectService(projects domain.ProjectRepository, images domain.ImageStore) *ProjectService {
	return &ProjectService{projects: projects, images: images, now: time.Now}
}

func (s *ProjectService) List(ctx context.Context, q domain.ListQuery) ([]domain.Project, error) {
	ctx, span := middleware.StartSpan(ctx, "projects.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	items, err := s.projects.List(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list projects: %w", err)
	}
	span.SetAttributes(attribute.Int("projects.count", len(items)))
	return items, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	ctx, span := middleware.StartSpan(ctx, "projects.get", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("project.id", id),
	))
	defer span.End()

	p, err := s.projects.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrInvalidID) {
		span.RecordError(err)
		return nil, fmt.Errorf("get project %q: %w", id, err)
	}
	if p == nil {
		return nil, &NotFoundError{Resource: "project", ID: id}
	}
	return p, nil
}

// Create stores a new project owned by actor. Only admins may create projects.
func (s *ProjectService) Create(ctx context.Context, actor *domain.User, p domain.Project) (*domain.Project, error) {
	ctx, span := middleware.StartSpan(ctx, "projects.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("create project: %w", ErrForbidden)
	}
	p.ID = ""
	p.CreatedBy = actor.ID
	normalizeProject(&p)
	if err := validateProject(p); err != nil {
		return nil, err
	}

	created, err := s.projects.Create(ctx, p)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("insert project: %w", err)
	}
	span.SetAttributes(attribute.String("project.id", created.ID))
	return created, nil
}

// Update replaces the mutable fields of the project identified by p.ID.
// The caller must be an admin or the project's creator.
func (s *ProjectService) Update(ctx context.Context, actor *domain.User, p domain.Project) (*domain.Project, error) {
	ctx, span := middleware.StartSpan(ctx, "projects.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("project.id", p.ID),
	))
	defer span.End()

	existing, err := s.Get(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, existing.CreatedBy) {
		return nil, fmt.Errorf("update project %q: %w", p.ID, ErrForbidden)
	}
	normalizeProject(&p)
	if err := validateProject(p); err != nil {
		return nil, err
	}

	updated, err := s.projects.Update(ctx, p)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update project %q: %w", p.ID, err)
	}
	if updated == nil {
		return nil, &NotFoundError{Resource: "project", ID: p.ID}
	}
	return updated, nil
}

func (s *ProjectService) Delete(ctx context.Context, actor *domain.User, id string) error {
	ctx, span := middleware.StartSpan(ctx, "projects.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("project.id", id),
	))
	defer span.End()

	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(actor, existing.CreatedBy) {
		return fmt.Errorf("delete project %q: %w", id, ErrForbidden)
	}
	ok, err := s.projects.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete project %q: %w", id, err)
	}
	if !ok {
		return &NotFoundError{Resource: "project", ID: id}
	}
	return nil
}

// UploadImage stores a project image and returns its public URL. The URL is
// not attached to any project; callers pass it as Project.Image afterwards.
func (s *ProjectService) UploadImage(ctx context.Context, actor *domain.User, file *Upload) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "projects.upload_image", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if !actor.IsAdmin() {
		return "", fmt.Errorf("upload project image: %w", ErrForbidden)
	}
	if err := checkImage(file, projectImageTypes); err != nil {
		return "", err
	}
	name := fmt.Sprintf("project-%d", s.now().UnixNano())
	url, err := s.images.Put(ctx, "portfolio/projects", name, file.ContentType, file.Data)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("store project image: %v: %w", err, ErrStorage)
	}
	return url, nil
}

func normalizeProject(p *domain.Project) {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	techs := p.Technologies[:0:0]
	for _, t := range p.Technologies {
		if t = strings.TrimSpace(t); t != "" {
			techs = append(techs, t)
		}
	}
	p.Technologies = techs
}

func validateProject(p domain.Project) error {
	v := &validator{}
	v.check(p.Title != "", "Please provide a project title")
	v.check(len(p.Title) <= 100, "Project title cannot be more than 100 characters")
	v.check(p.Description != "", "Please provide a project description")
	v.check(len(p.Technologies) > 0, "Please provide at least one technology")
	return v.err()
}

// canModify reports whether actor may change a document created by owner.
func canModify(actor *domain.User, owner string) bool {
	if actor == nil {
		return false
	}
	return actor.IsAdmin() || (owner != "" && actor.ID == owner)
}
