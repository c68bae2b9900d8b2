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

const (
	defaultSkillCategory = "Other"
	defaultSkillLevel    = 80
)

// SkillService implements the skill business rules. Categories are free-form.
type SkillService struct {
	skills domain.SkillRepository
}

func NewSkillService(skills domain.SkillRepository) *SkillService {
	return &SkillService{skills: skills}
}

func (s *SkillService) List(ctx context.Context, q domain.ListQuery) ([]domain.Skill, error) {
	ctx, span := middleware.StartSpan(ctx, "skills.list", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	items, err := s.skills.List(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return items, nil
}

// ListByCategory returns the skills of one category, strongest first.
func (s *SkillService) ListByCategory(ctx context.Context, category string) ([]domain.Skill, error) {
	ctx, span := middleware.StartSpan(ctx, "skills.list_by_category", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("skill.category", category),
	))
	defer span.End()

	items, err := s.skills.List(ctx, domain.ListQuery{
		Filter: map[string]string{"category": category},
		Sort:   []domain.SortField{{Field: "level", Desc: true}, {Field: "order"}},
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list skills in %q: %w", category, err)
	}
	return items, nil
}

func (s *SkillService) Get(ctx context.Context, id string) (*domain.Skill, error) {
	sk, err := s.skills.Get(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrInvalidID) {
		return nil, fmt.Errorf("get skill %q: %w", id, err)
	}
	if sk == nil {
		return nil, &NotFoundError{Resource: "skill", ID: id}
	}
	return sk, nil
}

func (s *SkillService) Create(ctx context.Context, actor *domain.User, sk domain.Skill) (*domain.Skill, error) {
	ctx, span := middleware.StartSpan(ctx, "skills.create", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	if !actor.IsAdmin() {
		return nil, fmt.Errorf("create skill: %w", ErrForbidden)
	}
	sk.ID = ""
	sk.CreatedBy = actor.ID
	normalizeSkill(&sk)
	if err := validateSkill(sk); err != nil {
		return nil, err
	}

	created, err := s.skills.Create(ctx, sk)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("insert skill: %w", err)
	}
	return created, nil
}

func (s *SkillService) Update(ctx context.Context, actor *domain.User, sk domain.Skill) (*domain.Skill, error) {
	ctx, span := middleware.StartSpan(ctx, "skills.update", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("skill.id", sk.ID),
	))
	defer span.End()

	existing, err := s.Get(ctx, sk.ID)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, existing.CreatedBy) {
		return nil, fmt.Errorf("update skill %q: %w", sk.ID, ErrForbidden)
	}
	normalizeSkill(&sk)
	if err := validateSkill(sk); err != nil {
		return nil, err
	}

	updated, err := s.skills.Update(ctx, sk)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update skill %q: %w", sk.ID, err)
	}
	if updated == nil {
		return nil, &NotFoundError{Resource: "skill", ID: sk.ID}
	}
	return updated, nil
}

func (s *SkillService) Delete(ctx context.Context, actor *domain.User, id string) error {
	ctx, span := middleware.StartSpan(ctx, "skills.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("skill.id", id),
	))
	defer span.End()

	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(actor, existing.CreatedBy) {
		return fmt.Errorf("delete skill %q: %w", id, ErrForbidden)
	}
	ok, err := s.skills.Delete(ctx, id)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("delete skill %q: %w", id, err)
	}
	if !ok {
		return &NotFoundError{Resource: "skill", ID: id}
	}
	return nil
}

func normalizeSkill(sk *domain.Skill) {
	sk.Name = strings.TrimSpace(sk.Name)
	sk.Category = strings.TrimSpace(sk.Category)
	if sk.Category == "" {
		sk.Category = defaultSkillCategory
	}
}

func validateSkill(sk domain.Skill) error {
	v := &validator{}
	v.check(sk.Name != "", "Please provide a skill name")
	v.check(len(sk.Name) <= 50, "Skill name cannot be more than 50 characters")
	v.check(sk.Level >= 0, "Level cannot be less than 0")
	v.check(sk.Level <= 100, "Level cannot exceed 100")
	return v.err()
}
