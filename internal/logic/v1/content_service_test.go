package v1

import (
	"context"
	"errors"
	"testing"

	"github.com/duynhne/portfolio-service/internal/core/domain"
	"github.com/duynhne/portfolio-service/internal/core/repository"
)

var (
	testAdmin  = &domain.User{ID: "11111111-1111-1111-1111-111111111111", Role: domain.RoleAdmin}
	testAdmin2 = &domain.User{ID: "22222222-2222-2222-2222-222222222222", Role: domain.RoleAdmin}
	testUser   = &domain.User{ID: "33333333-3333-3333-3333-333333333333", Role: domain.RoleUser}
)

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := NewProjectService(repository.NewMemoryProjectRepository(), &fakeImageStore{})

	p, err := svc.Create(ctx, testAdmin, domain.Project{
		Title:        " Portfolio ",
		Description:  "Personal site",
		Technologies: []string{"Go", " ", "React"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Title != "Portfolio" || len(p.Technologies) != 2 || p.CreatedBy != testAdmin.ID {
		t.Fatalf("unexpected project %+v", p)
	}

	p.Featured = true
	updated, err := svc.Update(ctx, testAdmin2, *p)
	if err != nil {
		t.Fatalf("Update by another admin: %v", err)
	}
	if !updated.Featured || updated.CreatedBy != testAdmin.ID {
		t.Fatalf("unexpected update result %+v", updated)
	}

	list, err := svc.List(ctx, domain.ListQuery{Filter: map[string]string{"featured": "true"}})
	if err != nil || len(list) != 1 {
		t.Fatalf("List featured = %d items, err %v", len(list), err)
	}

	if err := svc.Delete(ctx, testAdmin, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestProjectRules(t *testing.T) {
	ctx := context.Background()
	svc := NewProjectService(repository.NewMemoryProjectRepository(), &fakeImageStore{})

	_, err := svc.Create(ctx, testAdmin, domain.Project{})
	var verr *ValidationError
	if !errors.As(err, &verr) || len(verr.Messages) != 3 {
		t.Fatalf("expected 3 validation messages, got %v", err)
	}

	valid := domain.Project{Title: "t", Description: "d", Technologies: []string{"Go"}}
	if _, err := svc.Create(ctx, testUser, valid); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-admin, got %v", err)
	}
	if _, err := svc.Create(ctx, nil, valid); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for anonymous, got %v", err)
	}

	p, err := svc.Create(ctx, testAdmin, valid)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, testUser, p.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden on delete, got %v", err)
	}

	_, err = svc.Get(ctx, "not-a-uuid")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Error() != "No project found with id: not-a-uuid" {
		t.Fatalf("expected NotFoundError for malformed id, got %v", err)
	}
}

func TestProjectUploadImage(t *testing.T) {
	ctx := context.Background()
	images := &fakeImageStore{}
	svc := NewProjectService(repository.NewMemoryProjectRepository(), images)

	url, err := svc.UploadImage(ctx, testAdmin, &Upload{ContentType: "image/webp", Data: []byte("img")})
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if len(images.keys) != 1 || url != "https://cdn.test/"+images.keys[0] {
		t.Fatalf("unexpected url %q, keys %v", url, images.keys)
	}
	if _, err := svc.UploadImage(ctx, testAdmin, &Upload{ContentType: "application/pdf", Data: []byte("x")}); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
	if _, err := svc.UploadImage(ctx, testUser, &Upload{ContentType: "image/png", Data: []byte("x")}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSkills(t *testing.T) {
	ctx := context.Background()
	svc := NewSkillService(repository.NewMemorySkillRepository())

	for _, sk := range []domain.Skill{
		{Name: "Go", Category: "Backend", Level: 90},
		{Name: "SQL", Category: "backend", Level: 95},
		{Name: "Figma", Level: 40},
	} {
		if _, err := svc.Create(ctx, testAdmin, sk); err != nil {
			t.Fatalf("Create %s: %v", sk.Name, err)
		}
	}

	backend, err := svc.ListByCategory(ctx, "BACKEND")
	if err != nil {
		t.Fatalf("ListByCategory: %v", err)
	}
	if len(backend) != 2 || backend[0].Name != "SQL" {
		t.Fatalf("expected SQL first among 2 backend skills, got %+v", backend)
	}

	other, err := svc.ListByCategory(ctx, "Other")
	if err != nil || len(other) != 1 || other[0].Name != "Figma" {
		t.Fatalf("empty category should default to Other: %+v, %v", other, err)
	}

	_, err = svc.Create(ctx, testAdmin, domain.Skill{Name: "x", Level: 101})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for level, got %v", err)
	}

	sk := other[0]
	sk.Level = 55
	if _, err := svc.Update(ctx, testUser, sk); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	updated, err := svc.Update(ctx, testAdmin, sk)
	if err != nil || updated.Level != 55 {
		t.Fatalf("Update: %+v, %v", updated, err)
	}
	if err := svc.Delete(ctx, testAdmin, sk.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, testAdmin, sk.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestContacts(t *testing.T) {
	ctx := context.Background()
	svc := NewContactService(repository.NewMemoryContactRepository())

	_, err := svc.Submit(ctx, domain.Contact{Name: "Bob", Email: "bob@example.com"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Error() != "Please provide all required fields" {
		t.Fatalf("expected required-fields error, got %v", err)
	}

	c, err := svc.Submit(ctx, domain.Contact{Name: "Bob", Email: "Bob@Example.com", Subject: "Hi", Message: "Hello", Status: domain.ContactReplied})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.Status != domain.ContactUnread || c.Email != "bob@example.com" {
		t.Fatalf("unexpected contact %+v", c)
	}

	if _, err := svc.List(ctx, testUser, domain.ListQuery{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, testAdmin, c.ID, "archived"); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for status, got %v", err)
	}
	read, err := svc.UpdateStatus(ctx, testAdmin, c.ID, domain.ContactRead)
	if err != nil || read.Status != domain.ContactRead {
		t.Fatalf("UpdateStatus: %+v, %v", read, err)
	}

	unread, err := svc.List(ctx, testAdmin, domain.ListQuery{Filter: map[string]string{"status": domain.ContactUnread}})
	if err != nil || len(unread) != 0 {
		t.Fatalf("expected no unread contacts, got %d (%v)", len(unread), err)
	}

	if err := svc.Delete(ctx, testAdmin, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, testAdmin, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
