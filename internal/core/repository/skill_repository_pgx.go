package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

const skillColumns = `id, name, icon, category, level, sort_order, COALESCE(created_by, ''), created_at, updated_at`

var skillList = listTable{
	table:   "skills",
	columns: skillColumns,
	sortable: map[string]string{
		"createdAt": "created_at",
		"order":     "sort_order",
		"name":      "name",
		"level":     "level",
		"category":  "category",
	},
	defaultSort: []domain.SortField{{Field: "category"}, {Field: "order"}},
	filters: map[string]filterFunc{
		"category": func(value, placeholder string) (string, any, bool) {
			return "LOWER(category) = LOWER(" + placeholder + ")", value, true
		},
	},
}

// PgxSkillRepository implements domain.SkillRepository using pgxpool.
type PgxSkillRepository struct {
	pool *pgxpool.Pool
}

// NewSkillRepository creates a new PgxSkillRepository.
func NewSkillRepository(pool *pgxpool.Pool) *PgxSkillRepository {
	return &PgxSkillRepository{pool: pool}
}

func scanSkill(row pgx.Row) (*domain.Skill, error) {
	var s domain.Skill
	err := row.Scan(&s.ID, &s.Name, &s.Icon, &s.Category, &s.Level, &s.Order, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *PgxSkillRepository) List(ctx context.Context, q domain.ListQuery) ([]domain.Skill, error) {
	query, args := skillList.build(q)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	skills := make([]domain.Skill, 0)
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		skills = append(skills, *s)
	}
	return skills, rows.Err()
}

func (r *PgxSkillRepository) Get(ctx context.Context, id string) (*domain.Skill, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	return scanSkill(r.pool.QueryRow(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = $1`, id))
}

func (r *PgxSkillRepository) Create(ctx context.Context, s domain.Skill) (*domain.Skill, error) {
	now := time.Now().UTC()
	s.ID = newID()
	s.CreatedAt, s.UpdatedAt = now, now

	var createdBy any
	if s.CreatedBy != "" {
		createdBy = s.CreatedBy
	}
	query := `INSERT INTO skills (id, name, icon, category, level, sort_order, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query, s.ID, s.Name, s.Icon, s.Category, s.Level, s.Order, createdBy, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PgxSkillRepository) Update(ctx context.Context, s domain.Skill) (*domain.Skill, error) {
	if err := validID(s.ID); err != nil {
		return nil, err
	}
	query := `UPDATE skills SET name = $2, icon = $3, category = $4, level = $5, sort_order = $6,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING ` + skillColumns
	return scanSkill(r.pool.QueryRow(ctx, query, s.ID, s.Name, s.Icon, s.Category, s.Level, s.Order))
}

func (r *PgxSkillRepository) Delete(ctx context.Context, id string) (bool, error) {
	if err := validID(id); err != nil {
		return false, err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM skills WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
