package repository

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

const uniqueViolation = "23505"

// filterFunc renders one WHERE clause for a raw query-string value.
// placeholder is the positional parameter the clause must reference.
type filterFunc func(value, placeholder string) (clause string, arg any, ok bool)

// listTable describes how a collection maps onto its table.
type listTable struct {
	table       string
	columns     string
	sortable    map[string]string
	defaultSort []domain.SortField
	filters     map[string]filterFunc
}

func (s listTable) build(q domain.ListQuery) (string, []any) {
	var (
		where []string
		args  []any
	)

	keys := make([]string, 0, len(q.Filter))
	for k := range q.Filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fn, ok := s.filters[k]
		if !ok {
			continue
		}
		clause, arg, ok := fn(q.Filter[k], "$"+strconv.Itoa(len(args)+1))
		if !ok {
			continue
		}
		where = append(where, clause)
		args = append(args, arg)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", s.columns, s.table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}

	order := make([]string, 0, len(q.Sort)+1)
	for _, f := range sortOrDefault(q.Sort, s.defaultSort) {
		col, ok := s.sortable[f.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Desc {
			dir = "DESC"
		}
		order = append(order, col+" "+dir)
	}
	// id keeps paging stable when the requested keys tie.
	order = append(order, "id ASC")
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(order, ", "))

	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d OFFSET %d", q.Limit, q.Offset())
	}
	return b.String(), args
}

func sortOrDefault(requested, fallback []domain.SortField) []domain.SortField {
	if len(requested) == 0 {
		return fallback
	}
	return requested
}

func equalsFilter(column string) filterFunc {
	return func(value, placeholder string) (string, any, bool) {
		return column + " = " + placeholder, value, true
	}
}

func boolFilter(column string) filterFunc {
	return func(value, placeholder string) (string, any, bool) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", nil, false
		}
		return column + " = " + placeholder, b, true
	}
}

func containsFilter(column string) filterFunc {
	return func(value, placeholder string) (string, any, bool) {
		return placeholder + " = ANY(" + column + ")", value, true
	}
}

// validID rejects identifiers that could never name a stored document.
func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("parse id %q: %w", id, domain.ErrInvalidID)
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func duplicateKey(err error, field string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &domain.DuplicateKeyError{Field: field}
	}
	return err
}
