package repository

import (
	"reflect"
	"testing"

	"github.com/duynhne/portfolio-service/internal/core/domain"
)

func TestListSpecBuildDefaults(t *testing.T) {
	query, args := projectList.build(domain.ListQuery{})

	want := "SELECT " + projectColumns + " FROM projects ORDER BY created_at DESC, id ASC"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	if len(args) != 0 {
		t.Fatalf("expected no args, got %v", args)
	}
}

func TestListSpecBuildFiltersSortAndPage(t *testing.T) {
	query, args := projectList.build(domain.ListQuery{
		Filter: map[string]string{
			"technologies": "Go",
			"featured":     "true",
			"unknown":      "ignored",
		},
		Sort:  []domain.SortField{{Field: "order"}, {Field: "password", Desc: true}},
		Page:  3,
		Limit: 5,
	})

	want := "SELECT " + projectColumns + " FROM projects" +
		" WHERE featured = $1 AND $2 = ANY(technologies)" +
		" ORDER BY sort_order ASC, id ASC LIMIT 5 OFFSET 10"
	if query != want {
		t.Fatalf("unexpected query:\n got: %s\nwant: %s", query, want)
	}
	if !reflect.DeepEqual(args, []any{true, "Go"}) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestListSpecBuildSkipsUnparsableBool(t *testing.T) {
	_, args := projectList.build(domain.ListQuery{Filter: map[string]string{"featured": "maybe"}})
	if len(args) != 0 {
		t.Fatalf("expected unparsable filter to be dropped, got %v", args)
	}
}

func TestValidID(t *testing.T) {
	if err := validID(newID()); err != nil {
		t.Fatalf("expected generated id to be valid: %v", err)
	}
	if err := validID("not-an-id"); err == nil {
		t.Fatal("expected malformed id to be rejected")
	}
}
