package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/duynhne/portfolio-service/client/gateway"
	"github.com/duynhne/portfolio-service/client/session"
	"github.com/duynhne/portfolio-service/client/state"
	"github.com/duynhne/portfolio-service/client/tokenstore"
	"github.com/duynhne/portfolio-service/internal/core/domain"
	"github.com/duynhne/portfolio-service/internal/core/repository"
	"github.com/duynhne/portfolio-service/internal/core/storage"
	logicv1 "github.com/duynhne/portfolio-service/internal/logic/v1"
	webv1 "github.com/duynhne/portfolio-service/internal/web/v1"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func newAPI(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := repository.NewMemoryUserRepository()
	images, err := storage.NewLocalImageStore(t.TempDir(), "http://test.local/uploads")
	if err != nil {
		t.Fatalf("NewLocalImageStore: %v", err)
	}
	tokens := logicv1.NewTokenIssuer("client-test-secret-0123", time.Hour, "portfolio-test")
	auth := logicv1.NewAuthService(users, repository.NewMemorySessionRepository(users), tokens, images)
	if _, err := auth.CreateAdmin(context.Background(), "Ada Admin", "ada@example.com", "secret123"); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}

	h := webv1.NewHandler(webv1.Services{
		Auth:     auth,
		Projects: logicv1.NewProjectService(repository.NewMemoryProjectRepository(), images),
		Skills:   logicv1.NewSkillService(repository.NewMemorySkillRepository()),
		Contacts: logicv1.NewContactService(repository.NewMemoryContactRepository()),
	}, 1<<20)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func TestClientAgainstServer(t *testing.T) {
	ctx := context.Background()
	base := newAPI(t)
	store := tokenstore.NewMemory("")

	c, err := New(gateway.Config{BaseURL: base, Timeout: 5 * time.Second}, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if snap := c.Start(ctx); snap.Status != session.StatusAnonymous {
		t.Fatalf("Status = %s, want anonymous", snap.Status)
	}

	if err := c.Projects.FetchAll(ctx, gateway.ListParams{}); err != nil {
		t.Fatalf("public FetchAll: %v", err)
	}
	if s := c.Projects.Snapshot().Items; s.Status != state.StatusSucceeded || len(s.Data) != 0 {
		t.Fatalf("projects = %+v", s)
	}

	project := domain.Project{Title: "Portfolio", Description: "This site", Technologies: []string{"Go"}}
	if err := c.Projects.Create(ctx, project, nil); !gateway.IsKind(err, gateway.KindAuth) {
		t.Fatalf("anonymous create err = %v, want auth", err)
	}

	if err := c.Session.Login(ctx, domain.LoginRequest{Email: "ada@example.com", Password: "wrong-pass"}); err == nil ||
		err.Error() != "Invalid credentials" {
		t.Fatalf("bad login err = %v", err)
	}
	if err := c.Session.Login(ctx, domain.LoginRequest{Email: "ada@example.com", Password: "secret123"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !c.Session.IsAdmin() || c.Session.GateAdmin() != session.Allow {
		t.Fatalf("session = %+v", c.Session.Snapshot())
	}

	image := &gateway.File{Name: "shot.png", ContentType: "image/png", Data: pngHeader}
	if err := c.Projects.Create(ctx, project, image); err != nil {
		t.Fatalf("Create project: %v", err)
	}
	items := c.Projects.Snapshot().Items.Data
	if len(items) != 1 || !strings.HasPrefix(items[0].Image, "http://test.local/uploads/portfolio/projects/") {
		t.Fatalf("projects = %+v", items)
	}
	if err := c.Projects.FetchOne(ctx, "not-an-id"); !gateway.IsKind(err, gateway.KindNotFound) {
		t.Fatalf("malformed id err = %v, want not found", err)
	}

	if err := c.Skills.Create(ctx, domain.Skill{Name: "Go", Category: "Backend", Level: 5}, nil); err != nil {
		t.Fatalf("Create skill: %v", err)
	}
	if err := c.Skills.Create(ctx, domain.Skill{Name: "Go"}, nil); !gateway.IsKind(err, gateway.KindValidation) {
		t.Fatalf("skill without category err = %v", err)
	}
	if skills := c.Skills.Snapshot().Items.Data; len(skills) != 1 || skills[0].Level != 80 {
		t.Fatalf("skills = %+v", skills)
	}

	years := 1
	if err := c.Profile.Update(ctx, domain.ProfileUpdate{YearsOfExperience: &years}, nil); err != nil {
		t.Fatalf("Profile.Update: %v", err)
	}
	if p := c.Profile.Snapshot().Data; p == nil || p.ExperienceLabel != "1 year" {
		t.Fatalf("profile = %+v", p)
	}
	if u := c.Session.User(); u.YearsOfExperience != 1 {
		t.Fatalf("session user not refreshed: %+v", u)
	}

	if err := c.Contacts.Create(ctx, domain.Contact{Name: "Bob", Email: "bob@example.com", Subject: "Hi", Message: "Hello"}, nil); err != nil {
		t.Fatalf("Submit contact: %v", err)
	}
	contacts := c.Contacts.Snapshot().Items.Data
	if len(contacts) != 1 || contacts[0].Status != domain.ContactUnread {
		t.Fatalf("contacts = %+v", contacts)
	}
	if err := c.Contacts.Update(ctx, contacts[0].ID, domain.Contact{Status: domain.ContactRead}, nil); err != nil {
		t.Fatalf("Update contact: %v", err)
	}
	if got := c.Contacts.Snapshot().Items.Data[0].Status; got != domain.ContactRead {
		t.Fatalf("contact status = %s", got)
	}

	// A second client sharing the store resumes the session.
	again, err := New(gateway.Config{BaseURL: base}, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if snap := again.Start(ctx); snap.Status != session.StatusAuthenticated || snap.User.Email != "ada@example.com" {
		t.Fatalf("resumed session = %+v", snap)
	}

	c.Logout()
	if tok, _ := store.Load(ctx); tok != "" {
		t.Fatalf("token kept after logout: %q", tok)
	}
	if c.Session.Gate() != session.Redirect || c.Profile.Snapshot().Data != nil {
		t.Fatal("logout left private state behind")
	}
}
