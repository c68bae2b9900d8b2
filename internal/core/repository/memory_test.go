package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

func TestMemoryUserRepositoryDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	if _, err := repo.Create(ctx, domain.UserRow{User: domain.User{Name: "Ada", Email: "ada@example.com"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := repo.Create(ctx, domain.UserRow{User: domain.User{Name: "Ada 2", Email: "ada@example.com"}})

	var dup *domain.DuplicateKeyError
	if !errors.As(err, &dup) || dup.Field != "email" {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
}

func TestMemoryUserRepositoryInvalidID(t *testing.T) {
	repo := NewMemoryUserRepository()
	if _, err := repo.GetByID(context.Background(), "123"); !errors.Is(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
	row, err := repo.GetByID(context.Background(), newID())
	if err != nil || row != nil {
		t.Fatalf("expected (nil, nil) for unknown id, got (%v, %v)", row, err)
	}
}

func TestMemorySessionRepositoryJoinsUser(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryUserRepository()
	sessions := NewMemorySessionRepository(users)

	u, err := users.Create(ctx, domain.UserRow{User: domain.User{Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin}})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	expires := time.Now().Add(time.Hour)
	if err := sessions.Create(ctx, u.ID, "tok", expires); err != nil {
		t.Fatalf("create session: %v", err)
	}

	row, err := sessions.GetUserByToken(ctx, "tok")
	if err != nil || row == nil {
		t.Fatalf("expected session row, got (%v, %v)", row, err)
	}
	if row.UserID != u.ID || row.Role != domain.RoleAdmin || !row.ExpiresAt.Equal(expires) {
		t.Fatalf("unexpected session row %+v", row)
	}
	if row, _ := sessions.GetUserByToken(ctx, "other"); row != nil {
		t.Fatalf("expected nil for unknown token, got %+v", row)
	}
}

func TestMemoryProjectRepositoryListFiltersSortsAndPages(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProjectRepository()

	for i, p := range []domain.Project{
		{Title: "a", Technologies: []string{"Go"}, Featured: true, Order: 3},
		{Title: "b", Technologies: []string{"React"}, Order: 1},
		{Title: "c", Technologies: []string{"Go", "React"}, Featured: true, Order: 2},
	} {
		if _, err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	got, _ := repo.List(ctx, domain.ListQuery{
		Filter: map[string]string{"technologies": "Go"},
		Sort:   []domain.SortField{{Field: "order"}},
	})
	if len(got) != 2 || got[0].Title != "c" || got[1].Title != "a" {
		t.Fatalf("unexpected filtered list %+v", got)
	}

	page, _ := repo.List(ctx, domain.ListQuery{Sort: []domain.SortField{{Field: "order"}}, Page: 2, Limit: 2})
	if len(page) != 1 || page[0].Title != "a" {
		t.Fatalf("unexpected second page %+v", page)
	}

	featured, _ := repo.List(ctx, domain.ListQuery{Filter: map[string]string{"featured": "false"}})
	if len(featured) != 1 || featured[0].Title != "b" {
		t.Fatalf("unexpected featured=false list %+v", featured)
	}
}

func TestMemoryProjectRepositoryUpdateKeepsOwnership(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryProjectRepository()
	created, _ := repo.Create(ctx, domain.Project{Title: "a", CreatedBy: "owner"})

	updated, err := repo.Update(ctx, domain.Project{ID: created.ID, Title: "renamed", CreatedBy: "intruder"})
	if err != nil || updated == nil {
		t.Fatalf("update: (%v, %v)", updated, err)
	}
	if updated.Title != "renamed" || updated.CreatedBy != "owner" {
		t.Fatalf("unexpected updated project %+v", updated)
	}

	missing, err := repo.Update(ctx, domain.Project{ID: newID()})
	if err != nil || missing != nil {
		t.Fatalf("expected (nil, nil) for unknown project, got (%v, %v)", missing, err)
	}
}

func TestMemoryContactRepositoryStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryContactRepository()
	c, _ := repo.Create(ctx, domain.Contact{Name: "Bob", Status: domain.ContactUnread})

	updated, err := repo.UpdateStatus(ctx, c.ID, domain.ContactRead)
	if err != nil || updated.Status != domain.ContactRead {
		t.Fatalf("unexpected status update (%+v, %v)", updated, err)
	}
	if ok, _ := repo.Delete(ctx, c.ID); !ok {
		t.Fatal("expected delete to report removal")
	}
	if ok, _ := repo.Delete(ctx, c.ID); ok {
		t.Fatal("expected second delete to report nothing removed")
	}
}
