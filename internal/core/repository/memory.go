package repository

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

// memTable is a mutex-guarded document collection backing the in-memory
// repositories used by DB_DRIVER=memory and by tests.
type memTable[T any] struct {
	mu      sync.RWMutex
	rows    map[string]T
	fields  map[string]func(T) any
	filters map[string]func(T, string) bool
	sort    []domain.SortField
}

func newMemTable[T any](fields map[string]func(T) any, filters map[string]func(T, string) bool, defaultSort []domain.SortField) *memTable[T] {
	return &memTable[T]{
		rows:    make(map[string]T),
		fields:  fields,
		filters: filters,
		sort:    defaultSort,
	}
}

func (t *memTable[T]) get(id string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	row, ok := t.rows[id]
	return row, ok
}

func (t *memTable[T]) put(id string, row T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[id] = row
}

// replace stores row only when id already exists.
func (t *memTable[T]) replace(id string, fn func(T) T) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	old, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, false
	}
	row := fn(old)
	t.rows[id] = row
	return row, true
}

func (t *memTable[T]) delete(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	return true
}

func (t *memTable[T]) list(q domain.ListQuery, id func(T) string) []T {
	t.mu.RLock()
	out := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if t.matches(row, q.Filter) {
			out = append(out, row)
		}
	}
	t.mu.RUnlock()

	order := sortOrDefault(q.Sort, t.sort)
	slices.SortFunc(out, func(a, b T) int {
		for _, f := range order {
			get, ok := t.fields[f.Field]
			if !ok {
				continue
			}
			c := compareAny(get(a), get(b))
			if f.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return strings.Compare(id(a), id(b))
	})

	if q.Limit > 0 {
		start := min(q.Offset(), len(out))
		end := min(start+q.Limit, len(out))
		out = out[start:end]
	}
	return out
}

func (t *memTable[T]) matches(row T, filter map[string]string) bool {
	for key, value := range filter {
		fn, ok := t.filters[key]
		if !ok {
			continue
		}
		if !fn(row, value) {
			return false
		}
	}
	return true
}

func compareAny(a, b any) int {
	switch av := a.(type) {
	case string:
		return strings.Compare(av, b.(string))
	case int:
		return cmp.Compare(av, b.(int))
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case time.Time:
		return av.Compare(b.(time.Time))
	}
	return 0
}

// MemoryUserRepository implements domain.UserRepository in process.
type MemoryUserRepository struct {
	table *memTable[domain.UserRow]
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{table: newMemTable[domain.UserRow](nil, nil, nil)}
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.UserRow, error) {
	r.table.mu.RLock()
	defer r.table.mu.RUnlock()
	for _, row := range r.table.rows {
		if row.Email == email {
			return &row, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.UserRow, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	row, ok := r.table.get(id)
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *MemoryUserRepository) GetFirstAdmin(_ context.Context) (*domain.UserRow, error) {
	r.table.mu.RLock()
	defer r.table.mu.RUnlock()
	var first *domain.UserRow
	for _, row := range r.table.rows {
		if row.Role != domain.RoleAdmin {
			continue
		}
		if first == nil || row.CreatedAt.Before(first.CreatedAt) {
			first = &row
		}
	}
	return first, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, row domain.UserRow) (*domain.UserRow, error) {
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	for _, existing := range r.table.rows {
		if existing.Email == row.Email {
			return nil, &domain.DuplicateKeyError{Field: "email"}
		}
	}
	now := time.Now().UTC()
	row.ID = newID()
	row.CreatedAt, row.UpdatedAt = now, now
	r.table.rows[row.ID] = row
	return &row, nil
}

func (r *MemoryUserRepository) Update(_ context.Context, row domain.UserRow) (*domain.UserRow, error) {
	if err := validID(row.ID); err != nil {
		return nil, err
	}
	r.table.mu.Lock()
	defer r.table.mu.Unlock()
	old, ok := r.table.rows[row.ID]
	if !ok {
		return nil, nil
	}
	for id, existing := range r.table.rows {
		if id != row.ID && existing.Email == row.Email {
			return nil, &domain.DuplicateKeyError{Field: "email"}
		}
	}
	row.PasswordHash = old.PasswordHash
	row.Role = old.Role
	row.CreatedAt = old.CreatedAt
	row.UpdatedAt = time.Now().UTC()
	r.table.rows[row.ID] = row
	return &row, nil
}

func (r *MemoryUserRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	if err := validID(id); err != nil {
		return err
	}
	r.table.replace(id, func(row domain.UserRow) domain.UserRow {
		row.PasswordHash = passwordHash
		row.UpdatedAt = time.Now().UTC()
		return row
	})
	return nil
}

// MemorySessionRepository implements domain.SessionRepository in process.
type MemorySessionRepository struct {
	users *MemoryUserRepository

	mu       sync.RWMutex
	sessions map[string]memSession
}

type memSession struct {
	userID    string
	expiresAt time.Time
}

// NewMemorySessionRepository joins sessions against users the way the SQL
// implementation joins the two tables.
func NewMemorySessionRepository(users *MemoryUserRepository) *MemorySessionRepository {
	return &MemorySessionRepository{users: users, sessions: make(map[string]memSession)}
}

func (r *MemorySessionRepository) Create(_ context.Context, userID, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for t, s := range r.sessions {
		if s.userID == userID && s.expiresAt.Before(now) {
			delete(r.sessions, t)
		}
	}
	r.sessions[token] = memSession{userID: userID, expiresAt: expiresAt}
	return nil
}

func (r *MemorySessionRepository) GetUserByToken(_ context.Context, token string) (*domain.SessionRow, error) {
	r.mu.RLock()
	s, ok := r.sessions[token]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	user, ok := r.users.table.get(s.userID)
	if !ok {
		return nil, nil
	}
	return &domain.SessionRow{UserID: user.ID, Role: user.Role, ExpiresAt: s.expiresAt}, nil
}

// MemoryProjectRepository implements domain.ProjectRepository in process.
type MemoryProjectRepository struct {
	table *memTable[domain.Project]
}

func NewMemoryProjectRepository() *MemoryProjectRepository {
	fields := map[string]func(domain.Project) any{
		"createdAt": func(p domain.Project) any { return p.CreatedAt },
		"updatedAt": func(p domain.Project) any { return p.UpdatedAt },
		"order":     func(p domain.Project) any { return p.Order },
		"title":     func(p domain.Project) any { return p.Title },
		"featured":  func(p domain.Project) any { return p.Featured },
	}
	filters := map[string]func(domain.Project, string) bool{
		"featured": func(p domain.Project, v string) bool {
			b, err := strconv.ParseBool(v)
			return err != nil || p.Featured == b
		},
		"technologies": func(p domain.Project, v string) bool { return slices.Contains(p.Technologies, v) },
		"createdBy":    func(p domain.Project, v string) bool { return p.CreatedBy == v },
	}
	return &MemoryProjectRepository{table: newMemTable(fields, filters, projectList.defaultSort)}
}

func (r *MemoryProjectRepository) List(_ context.Context, q domain.ListQuery) ([]domain.Project, error) {
	return r.table.list(q, func(p domain.Project) string { return p.ID }), nil
}

func (r *MemoryProjectRepository) Get(_ context.Context, id string) (*domain.Project, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	p, ok := r.table.get(id)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *MemoryProjectRepository) Create(_ context.Context, p domain.Project) (*domain.Project, error) {
	now := time.Now().UTC()
	p.ID = newID()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Technologies = slices.Clone(p.Technologies)
	r.table.put(p.ID, p)
	return &p, nil
}

func (r *MemoryProjectRepository) Update(_ context.Context, p domain.Project) (*domain.Project, error) {
	if err := validID(p.ID); err != nil {
		return nil, err
	}
	updated, ok := r.table.replace(p.ID, func(old domain.Project) domain.Project {
		p.CreatedBy = old.CreatedBy
		p.CreatedAt = old.CreatedAt
		p.UpdatedAt = time.Now().UTC()
		p.Technologies = slices.Clone(p.Technologies)
		return p
	})
	if !ok {
		return nil, nil
	}
	return &updated, nil
}

func (r *MemoryProjectRepository) Delete(_ context.Context, id string) (bool, error) {
	if err := validID(id); err != nil {
		return false, err
	}
	return r.table.delete(id), nil
}

// MemorySkillRepository implements domain.SkillRepository in process.
type MemorySkillRepository struct {
	table *memTable[domain.Skill]
}

func NewMemorySkillRepository() *MemorySkillRepository {
	fields := map[string]func(domain.Skill) any{
		"createdAt": func(s domain.Skill) any { return s.CreatedAt },
		"order":     func(s domain.Skill) any { return s.Order },
		"name":      func(s domain.Skill) any { return s.Name },
		"level":     func(s domain.Skill) any { return s.Level },
		"category":  func(s domain.Skill) any { return s.Category },
	}
	filters := map[string]func(domain.Skill, string) bool{
		"category": func(s domain.Skill, v string) bool { return strings.EqualFold(s.Category, v) },
	}
	return &MemorySkillRepository{table: newMemTable(fields, filters, skillList.defaultSort)}
}

func (r *MemorySkillRepository) List(_ context.Context, q domain.ListQuery) ([]domain.Skill, error) {
	return r.table.list(q, func(s domain.Skill) string { return s.ID }), nil
}

func (r *MemorySkillRepository) Get(_ context.Context, id string) (*domain.Skill, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	s, ok := r.table.get(id)
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemorySkillRepository) Create(_ context.Context, s domain.Skill) (*domain.Skill, error) {
	now := time.Now().UTC()
	s.ID = newID()
	s.CreatedAt, s.UpdatedAt = now, now
	r.table.put(s.ID, s)
	return &s, nil
}

func (r *MemorySkillRepository) Update(_ context.Context, s domain.Skill) (*domain.Skill, error) {
	if err := validID(s.ID); err != nil {
		return nil, err
	}
	updated, ok := r.table.replace(s.ID, func(old domain.Skill) domain.Skill {
		s.CreatedBy = old.CreatedBy
		s.CreatedAt = old.CreatedAt
		s.UpdatedAt = time.Now().UTC()
		return s
	})
	if !ok {
		return nil, nil
	}
	return &updated, nil
}

func (r *MemorySkillRepository) Delete(_ context.Context, id string) (bool, error) {
	if err := validID(id); err != nil {
		return false, err
	}
	return r.table.delete(id), nil
}

// MemoryContactRepository implements domain.ContactRepository in process.
type MemoryContactRepository struct {
	table *memTable[domain.Contact]
}

func NewMemoryContactRepository() *MemoryContactRepository {
	fields := map[string]func(domain.Contact) any{
		"createdAt": func(c domain.Contact) any { return c.CreatedAt },
		"status":    func(c domain.Contact) any { return c.Status },
		"email":     func(c domain.Contact) any { return c.Email },
	}
	filters := map[string]func(domain.Contact, string) bool{
		"status": func(c domain.Contact, v string) bool { return c.Status == v },
		"email":  func(c domain.Contact, v string) bool { return c.Email == v },
	}
	return &MemoryContactRepository{table: newMemTable(fields, filters, contactList.defaultSort)}
}

func (r *MemoryContactRepository) List(_ context.Context, q domain.ListQuery) ([]domain.Contact, error) {
	return r.table.list(q, func(c domain.Contact) string { return c.ID }), nil
}

func (r *MemoryContactRepository) Get(_ context.Context, id string) (*domain.Contact, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	c, ok := r.table.get(id)
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryContactRepository) Create(_ context.Context, c domain.Contact) (*domain.Contact, error) {
	now := time.Now().UTC()
	c.ID = newID()
	c.CreatedAt, c.UpdatedAt = now, now
	r.table.put(c.ID, c)
	return &c, nil
}

func (r *MemoryContactRepository) UpdateStatus(_ context.Context, id, status string) (*domain.Contact, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	updated, ok := r.table.replace(id, func(c domain.Contact) domain.Contact {
		c.Status = status
		c.UpdatedAt = time.Now().UTC()
		return c
	})
	if !ok {
		return nil, nil
	}
	return &updated, nil
}

func (r *MemoryContactRepository) Delete(_ context.Context, id string) (bool, error) {
	if err := validID(id); err != nil {
		return false, err
	}
	return r.table.delete(id), nil
}
