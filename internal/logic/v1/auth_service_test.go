package v1

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/duynhne/portfolio-service/internal/core/domain"
	"github.com/duynhne/portfolio-service/internal/core/repository"
)

type fakeImageStore struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeImageStore) Put(_ context.Context, folder, name, contentType string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := folder + "/" + name
	f.keys = append(f.keys, key)
	return "https://cdn.test/" + key, nil
}

func newTestAuth(t *testing.T) (*AuthService, *fakeImageStore) {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	sessions := repository.NewMemorySessionRepository(users)
	images := &fakeImageStore{}
	tokens := NewTokenIssuer("test-secret-0123456789", time.Hour, "portfolio-test")
	return NewAuthService(users, sessions, tokens, images), images
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, domain.RegisterRequest{Name: " Ada ", Email: "ADA@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !resp.Success || resp.Token == "" {
		t.Fatalf("expected token in response, got %+v", resp)
	}
	if resp.User.Email != "ada@example.com" || resp.User.Name != "Ada" || resp.User.Role != domain.RoleUser {
		t.Fatalf("unexpected user: %+v", resp.User)
	}

	user, err := svc.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if user.ID != resp.User.ID {
		t.Fatalf("Authenticate returned %q, want %q", user.ID, resp.User.ID)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()
	req := domain.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}
	if _, err := svc.Register(ctx, req); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, req); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestAuth(t)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{Email: "nope", Password: "123"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %q", verr.Messages)
	}
	if !strings.Contains(verr.Error(), ", ") {
		t.Fatalf("messages should be joined with a comma: %q", verr.Error())
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()
	if _, err := svc.Register(ctx, domain.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		name    string
		req     domain.LoginRequest
		wantErr error
	}{
		{name: "ok", req: domain.LoginRequest{Email: "Ada@Example.com", Password: "secret1"}},
		{name: "wrong password", req: domain.LoginRequest{Email: "ada@example.com", Password: "bad-one"}, wantErr: ErrInvalidCredentials},
		{name: "unknown user", req: domain.LoginRequest{Email: "bob@example.com", Password: "secret1"}, wantErr: ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if resp.Token == "" || resp.User == nil {
				t.Fatalf("unexpected response %+v", resp)
			}
		})
	}

	_, err := svc.Login(ctx, domain.LoginRequest{Email: "ada@example.com"})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Error() != "Please provide email and password" {
		t.Fatalf("expected missing-field validation error, got %v", err)
	}
}

func TestAuthenticateRejectsUnknownTokens(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	if _, err := svc.Authenticate(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// A correctly signed token that was never recorded as a session.
	token, _, err := svc.tokens.Issue(domain.User{ID: "00000000-0000-0000-0000-000000000001"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()
	resp, err := svc.Register(ctx, domain.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	later := func() time.Time { return time.Now().Add(2 * time.Hour) }
	svc.tokens.now = later
	svc.now = later
	if _, err := svc.Authenticate(ctx, resp.Token); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestUpdateProfileKeepsUnsetFields(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()
	resp, err := svc.Register(ctx, domain.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	years := 3
	user, err := svc.UpdateProfile(ctx, resp.User.ID, domain.ProfileUpdate{
		Bio:               "Engineer",
		YearsOfExperience: &years,
		SocialLinks:       &domain.SocialLinks{GitHub: "https://github.com/ada"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if user.Name != "Ada" || user.Email != "ada@example.com" || user.Theme != "light" {
		t.Fatalf("unset fields changed: %+v", user)
	}
	if user.Bio != "Engineer" || user.YearsOfExperience != 3 || user.SocialLinks.GitHub == "" {
		t.Fatalf("set fields not applied: %+v", user)
	}

	_, err = svc.UpdateProfile(ctx, resp.User.ID, domain.ProfileUpdate{Theme: "purple"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for theme, got %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, "not-an-id", domain.ProfileUpdate{Bio: "x"}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUploadAvatar(t *testing.T) {
	svc, images := newTestAuth(t)
	ctx := context.Background()
	resp, err := svc.Register(ctx, domain.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.UploadAvatar(ctx, resp.User.ID, nil); !errors.Is(err, ErrNoFile) {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
	webp := &Upload{Filename: "a.webp", ContentType: "image/webp", Data: []byte("x")}
	if _, err := svc.UploadAvatar(ctx, resp.User.ID, webp); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}

	url, err := svc.UploadAvatar(ctx, resp.User.ID, &Upload{Filename: "a.png", ContentType: "image/PNG", Data: []byte("png")})
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}
	if !strings.Contains(url, "portfolio/avatars/avatar-"+resp.User.ID) {
		t.Fatalf("unexpected url %q (keys %v)", url, images.keys)
	}
	user, err := svc.GetUser(ctx, resp.User.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if user.ProfileImage != url {
		t.Fatalf("profile image = %q, want %q", user.ProfileImage, url)
	}

	images.err = errors.New("disk full")
	if _, err := svc.UploadAvatar(ctx, resp.User.ID, &Upload{ContentType: "image/png", Data: []byte("png")}); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()
	resp, err := svc.Register(ctx, domain.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	id := resp.User.ID

	if err := svc.ChangePassword(ctx, id, domain.ChangePasswordRequest{CurrentPassword: "wrong!", NewPassword: "secret2"}); !errors.Is(err, ErrIncorrectPassword) {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}
	var verr *ValidationError
	if err := svc.ChangePassword(ctx, id, domain.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "123"}); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if err := svc.ChangePassword(ctx, id, domain.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "secret2"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(ctx, domain.LoginRequest{Email: "ada@example.com", Password: "secret2"}); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestPublicProfileIsFirstAdmin(t *testing.T) {
	svc, _ := newTestAuth(t)
	ctx := context.Background()

	if _, err := svc.PublicProfile(ctx); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound without an admin, got %v", err)
	}
	if _, err := svc.Register(ctx, domain.RegisterRequest{Name: "Visitor", Email: "v@example.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	admin, err := svc.CreateAdmin(ctx, "Owner", "owner@example.com", "secret1")
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	if !admin.IsAdmin() {
		t.Fatalf("CreateAdmin returned role %q", admin.Role)
	}
	if _, err := svc.CreateAdmin(ctx, "Owner", "owner@example.com", "secret1"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}

	profile, err := svc.PublicProfile(ctx)
	if err != nil {
		t.Fatalf("PublicProfile: %v", err)
	}
	if profile.Name != "Owner" {
		t.Fatalf("public profile name = %q", profile.Name)
	}
}
