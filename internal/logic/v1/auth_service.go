package v1

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/duynhne/portfolio-service/internal/core/domain"
	"github.com/duynhne/portfolio-service/middleware"
)

const minPasswordLength = 6

var avatarTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif"}

// Upload is a file received through a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// AuthService implements authentication and profile business rules.
// It depends on repository interfaces (injected via constructor) and
// MUST NOT access the database or SQL directly.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	tokens   *TokenIssuer
	images   domain.ImageStore
	now      func() time.Time
}

// NewAuthService creates a new AuthService with the given dependencies.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, tokens *TokenIssuer, images domain.ImageStore) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		images:   images,
		now:      time.Now,
	}
}

// Register creates a regular user account and signs it in.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.register", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)

	v := &validator{}
	v.check(req.Name != "", "Please provide a name")
	v.check(len(req.Name) <= 50, "Name cannot be more than 50 characters")
	v.check(validEmail(req.Email), "Please provide a valid email")
	v.check(len(req.Password) >= minPasswordLength, "Password must be at least 6 characters")
	if err := v.err(); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		span.SetAttributes(attribute.Bool("registration.success", false))
		return nil, fmt.Errorf("register user %q: %w", req.Email, ErrUserExists)
	}

	row, err := s.createUser(ctx, req.Name, req.Email, req.Password, domain.RoleUser)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	resp, err := s.signIn(ctx, row.User)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user.id", row.ID),
		attribute.Bool("registration.success", true),
	)
	span.AddEvent("user.registered")
	return resp, nil
}

// CreateAdmin creates the portfolio owner account.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*domain.User, error) {
	email = normalizeEmail(email)
	v := &validator{}
	v.check(strings.TrimSpace(name) != "", "Please provide a name")
	v.check(validEmail(email), "Please provide a valid email")
	v.check(len(password) >= minPasswordLength, "Password must be at least 6 characters")
	if err := v.err(); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("create admin %q: %w", email, ErrUserExists)
	}
	row, err := s.createUser(ctx, strings.TrimSpace(name), email, password, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	return &row.User, nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password, role string) (*domain.UserRow, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	row, err := s.users.Create(ctx, domain.UserRow{
		User: domain.User{
			Name:  name,
			Email: email,
			Role:  role,
			Theme: "light",
		},
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return row, nil
}

// Login handles user login business logic.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, &ValidationError{Messages: []string{"Please provide email and password"}}
	}

	row, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %q: %w", email, err)
	}
	if row == nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate user %q: %w", email, ErrUserNotFound)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(req.Password)); err != nil {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		return nil, fmt.Errorf("authenticate user %q: %w", email, ErrInvalidCredentials)
	}

	resp, err := s.signIn(ctx, row.User)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user.id", row.ID),
		attribute.Bool("auth.success", true),
	)
	span.AddEvent("user.authenticated")
	return resp, nil
}

func (s *AuthService) signIn(ctx context.Context, user domain.User) (*domain.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	// The session row is what Authenticate checks, so failing to write it fails the login.
	if err := s.sessions.Create(ctx, user.ID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &domain.AuthResponse{Success: true, Token: token, User: &user}, nil
}

// Authenticate resolves a bearer token to the current state of its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.authenticate", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	claims, err := s.tokens.Parse(token)
	if err != nil {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return nil, err
	}

	row, err := s.sessions.GetUserByToken(ctx, token)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query session: %w", err)
	}
	if row == nil {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return nil, fmt.Errorf("lookup session: %w", ErrSessionNotFound)
	}
	if s.now().After(row.ExpiresAt) {
		span.SetAttributes(attribute.Bool("session.valid", false))
		return nil, fmt.Errorf("session expired at %v: %w", row.ExpiresAt, ErrSessionExpired)
	}
	if row.UserID != claims.Subject {
		return nil, fmt.Errorf("session owner mismatch: %w", ErrInvalidToken)
	}

	user, err := s.GetUser(ctx, row.UserID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("user.id", user.ID),
		attribute.Bool("session.valid", true),
	)
	return user, nil
}

// GetUser returns the user with the given id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidID) {
			return nil, fmt.Errorf("get user %q: %w", id, ErrUserNotFound)
		}
		return nil, fmt.Errorf("query user %q: %w", id, err)
	}
	if row == nil {
		return nil, fmt.Errorf("get user %q: %w", id, ErrUserNotFound)
	}
	return &row.User, nil
}

// UpdateProfile applies the non-empty fields of upd to the user's profile.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd domain.ProfileUpdate) (*domain.User, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.update_profile", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", userID),
	))
	defer span.End()

	row, err := s.users.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrInvalidID) {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %q: %w", userID, err)
	}
	if row == nil {
		return nil, fmt.Errorf("update profile %q: %w", userID, ErrUserNotFound)
	}

	if upd.Name != "" {
		row.Name = strings.TrimSpace(upd.Name)
	}
	if upd.Email != "" {
		row.Email = normalizeEmail(upd.Email)
	}
	if upd.Phone != "" {
		row.Phone = upd.Phone
	}
	if upd.Location != "" {
		row.Location = upd.Location
	}
	if upd.YearsOfExperience != nil {
		row.YearsOfExperience = *upd.YearsOfExperience
	}
	if upd.Bio != "" {
		row.Bio = upd.Bio
	}
	if upd.SocialLinks != nil {
		row.SocialLinks = *upd.SocialLinks
	}
	if upd.Theme != "" {
		row.Theme = upd.Theme
	}
	if upd.ProfileImage != "" {
		row.ProfileImage = upd.ProfileImage
	}

	v := &validator{}
	v.check(row.Name != "", "Please provide a name")
	v.check(len(row.Name) <= 50, "Name cannot be more than 50 characters")
	v.check(validEmail(row.Email), "Please provide a valid email")
	v.check(row.YearsOfExperience >= 0, "Years of experience cannot be negative")
	v.check(row.Theme == "light" || row.Theme == "dark", "`"+row.Theme+"` is not a valid theme")
	if err := v.err(); err != nil {
		return nil, err
	}

	updated, err := s.users.Update(ctx, *row)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("update user %q: %w", userID, err)
	}
	if updated == nil {
		return nil, fmt.Errorf("update profile %q: %w", userID, ErrUserNotFound)
	}
	return &updated.User, nil
}

// UploadAvatar stores a new profile image and points the profile at it.
func (s *AuthService) UploadAvatar(ctx context.Context, userID string, file *Upload) (string, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.upload_avatar", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", userID),
	))
	defer span.End()

	if err := checkImage(file, avatarTypes); err != nil {
		return "", err
	}

	name := fmt.Sprintf("avatar-%s-%d", userID, s.now().UnixMilli())
	url, err := s.images.Put(ctx, "portfolio/avatars", name, file.ContentType, file.Data)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("store avatar: %v: %w", err, ErrStorage)
	}

	if _, err := s.UpdateProfile(ctx, userID, domain.ProfileUpdate{ProfileImage: url}); err != nil {
		return "", err
	}
	return url, nil
}

// ChangePassword verifies the current password and stores the new one.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req domain.ChangePasswordRequest) error {
	ctx, span := middleware.StartSpan(ctx, "auth.change_password", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("user.id", userID),
	))
	defer span.End()

	if req.CurrentPassword == "" || req.NewPassword == "" {
		return &ValidationError{Messages: []string{"Please provide both current and new password"}}
	}
	if len(req.NewPassword) < minPasswordLength {
		return &ValidationError{Messages: []string{"New password must be at least 6 characters long"}}
	}

	row, err := s.users.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrInvalidID) {
		return fmt.Errorf("query user %q: %w", userID, err)
	}
	if row == nil {
		return fmt.Errorf("change password %q: %w", userID, ErrUserNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		span.AddEvent("password_change.rejected")
		return fmt.Errorf("change password %q: %w", userID, ErrIncorrectPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		span.RecordError(err)
		return fmt.Errorf("update password %q: %w", userID, err)
	}
	return nil
}

// PublicProfile returns the profile of the portfolio owner, the oldest admin.
func (s *AuthService) PublicProfile(ctx context.Context) (*domain.PublicProfile, error) {
	row, err := s.users.GetFirstAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("query admin: %w", err)
	}
	if row == nil {
		return nil, fmt.Errorf("public profile: %w", ErrUserNotFound)
	}
	return &domain.PublicProfile{
		Name:              row.Name,
		Email:             row.Email,
		Phone:             row.Phone,
		Location:          row.Location,
		YearsOfExperience: row.YearsOfExperience,
		ProfileImage:      row.ProfileImage,
		Bio:               row.Bio,
		SocialLinks:       row.SocialLinks,
	}, nil
}

func checkImage(file *Upload, allowed []string) error {
	if file == nil || len(file.Data) == 0 {
		return ErrNoFile
	}
	ct := strings.ToLower(strings.TrimSpace(file.ContentType))
	for _, a := range allowed {
		if ct == a {
			file.ContentType = ct
			return nil
		}
	}
	return fmt.Errorf("content type %q: %w", file.ContentType, ErrUnsupportedImage)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@"):], ".")
}
