package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

const userColumns = `id, name, email, password_hash, role, phone, location, years_of_experience,
	profile_image, bio, social_links, theme, created_at, updated_at`

// PgxUserRepository implements domain.UserRepository using pgxpool.
type PgxUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PgxUserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PgxUserRepository {
	return &PgxUserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*domain.UserRow, error) {
	var u domain.UserRow
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.Location,
		&u.YearsOfExperience, &u.ProfileImage, &u.Bio, &u.SocialLinks, &u.Theme,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail returns the user matching the given email.
// Returns (nil, nil) when no user is found.
func (r *PgxUserRepository) GetByEmail(ctx context.Context, email string) (*domain.UserRow, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// GetByID returns the user with the given id. Malformed ids yield domain.ErrInvalidID.
func (r *PgxUserRepository) GetByID(ctx context.Context, id string) (*domain.UserRow, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetFirstAdmin returns the oldest admin account.
func (r *PgxUserRepository) GetFirstAdmin(ctx context.Context) (*domain.UserRow, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at ASC LIMIT 1`
	return scanUser(r.pool.QueryRow(ctx, query, domain.RoleAdmin))
}

// Create inserts a new user. The id and timestamps are assigned here.
func (r *PgxUserRepository) Create(ctx context.Context, row domain.UserRow) (*domain.UserRow, error) {
	now := time.Now().UTC()
	row.ID = newID()
	row.CreatedAt, row.UpdatedAt = now, now

	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.pool.Exec(ctx, query,
		row.ID, row.Name, row.Email, row.PasswordHash, row.Role, row.Phone, row.Location,
		row.YearsOfExperience, row.ProfileImage, row.Bio, row.SocialLinks, row.Theme,
		row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return nil, duplicateKey(err, "email")
	}
	return &row, nil
}

// Update overwrites the profile fields of the user identified by row.ID.
func (r *PgxUserRepository) Update(ctx context.Context, row domain.UserRow) (*domain.UserRow, error) {
	if err := validID(row.ID); err != nil {
		return nil, err
	}
	query := `UPDATE users SET name = $2, email = $3, phone = $4, location = $5,
			years_of_experience = $6, profile_image = $7, bio = $8, social_links = $9,
			theme = $10, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + userColumns
	updated, err := scanUser(r.pool.QueryRow(ctx, query,
		row.ID, row.Name, row.Email, row.Phone, row.Location, row.YearsOfExperience,
		row.ProfileImage, row.Bio, row.SocialLinks, row.Theme,
	))
	if err != nil {
		return nil, duplicateKey(err, "email")
	}
	return updated, nil
}

// UpdatePassword replaces the stored password hash.
func (r *PgxUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if err := validID(id); err != nil {
		return err
	}
	query := `UPDATE users SET password_hash = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, passwordHash)
	return err
}
