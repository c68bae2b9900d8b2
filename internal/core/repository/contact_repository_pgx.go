package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

const contactColumns = `id, name, email, subject, message, status, created_at, updated_at`

var contactList = listTable{
	table:   "contacts",
	columns: contactColumns,
	sortable: map[string]string{
		"createdAt": "created_at",
		"status":    "status",
		"email":     "email",
	},
	defaultSort: []domain.SortField{{Field: "createdAt", Desc: true}},
	filters: map[string]filterFunc{
		"status": equalsFilter("status"),
		"email":  equalsFilter("email"),
	},
}

// PgxContactRepository implements domain.ContactRepository using pgxpool.
type PgxContactRepository struct {
	pool *pgxpool.Pool
}

// NewContactRepository creates a new PgxContactRepository.
func NewContactRepository(pool *pgxpool.Pool) *PgxContactRepository {
	return &PgxContactRepository{pool: pool}
}

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var c domain.Contact
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Subject, &c.Message, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PgxContactRepository) List(ctx context.Context, q domain.ListQuery) ([]domain.Contact, error) {
	query, args := contactList.build(q)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, rows.Err()
}

func (r *PgxContactRepository) Get(ctx context.Context, id string) (*domain.Contact, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	return scanContact(r.pool.QueryRow(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = $1`, id))
}

func (r *PgxContactRepository) Create(ctx context.Context, c domain.Contact) (*domain.Contact, error) {
	now := time.Now().UTC()
	c.ID = newID()
	c.CreatedAt, c.UpdatedAt = now, now

	query := `INSERT INTO contacts (` + contactColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.Email, c.Subject, c.Message, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgxContactRepository) UpdateStatus(ctx context.Context, id, status string) (*domain.Contact, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	query := `UPDATE contacts SET status = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1 RETURNING ` + contactColumns
	return scanContact(r.pool.QueryRow(ctx, query, id, status))
}

func (r *PgxContactRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := validID(id); err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
