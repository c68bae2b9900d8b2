package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

const projectColumns = `id, title, description, image, technologies, github, live_demo,
	featured, sort_order, created_by, created_at, updated_at`

var projectList = listTable{
	table:   "projects",
	columns: projectColumns,
	sortable: map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"order":     "sort_order",
		"title":     "title",
		"featured":  "featured",
	},
	defaultSort: []domain.SortField{{Field: "createdAt", Desc: true}},
	filters: map[string]filterFunc{
		"featured":     boolFilter("featured"),
		"technologies": containsFilter("technologies"),
		"createdBy":    equalsFilter("created_by"),
	},
}

// PgxProjectRepository implements domain.ProjectRepository using pgxpool.
type PgxProjectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository creates a new PgxProjectRepository.
func NewProjectRepository(pool *pgxpool.Pool) *PgxProjectRepository {
	return &PgxProjectRepository{pool: pool}
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Image, &p.Technologies, &p.GitHub, &p.LiveDemo,
		&p.Featured, &p.Order, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// List returns the projects matching q, newest first unless q sorts otherwise.
func (r *PgxProjectRepository) List(ctx context.Context, q domain.ListQuery) ([]domain.Project, error) {
	query, args := projectList.build(q)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := make([]domain.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (r *PgxProjectRepository) Get(ctx context.Context, id string) (*domain.Project, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	return scanProject(r.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (r *PgxProjectRepository) Create(ctx context.Context, p domain.Project) (*domain.Project, error) {
	now := time.Now().UTC()
	p.ID = newID()
	p.CreatedAt, p.UpdatedAt = now, now

	query := `INSERT INTO projects (` + projectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Title, p.Description, p.Image, p.Technologies, p.GitHub, p.LiveDemo,
		p.Featured, p.Order, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgxProjectRepository) Update(ctx context.Context, p domain.Project) (*domain.Project, error) {
	if err := validID(p.ID); err != nil {
		return nil, err
	}
	query := `UPDATE projects SET title = $2, description = $3, image = $4, technologies = $5,
			github = $6, live_demo = $7, featured = $8, sort_order = $9, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + projectColumns
	return scanProject(r.pool.QueryRow(ctx, query,
		p.ID, p.Title, p.Description, p.Image, p.Technologies, p.GitHub, p.LiveDemo, p.Featured, p.Order,
	))
}

func (r *PgxProjectRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := validID(id); err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
