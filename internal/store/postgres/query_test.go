package postgres

import (
	"strings"
	"testing"

	"github.com/MrSnakeDoc/curio/internal/domain"
)

func TestBuildListQuery(t *testing.T) {
	tests := []struct {
		name      string
		filters   domain.FilterOptions
		wantWhere []string
		wantArgs  int
	}{
		{
			name:     "no filters",
			wantArgs: 0,
		},
		{
			name:      "difficulty and content type",
			filters:   domain.FilterOptions{Difficulty: []string{"Beginner"}, ContentType: []string{" Video "}},
			wantWhere: []string{"difficulty", "content_type"},
			wantArgs:  2,
		},
		{
			name:      "categories become LIKE patterns on the folded column",
			filters:   domain.FilterOptions{TagCategories: []string{"Web_Dev"}},
			wantWhere: []string{`lower(btrim(regexp_replace(tag_categories, '\s+', ' ', 'g'))) LIKE ANY($1)`},
			wantArgs:  1,
		},
		{
			name:     "category with a comma is not pushed down",
			filters:  domain.FilterOptions{TagCategories: []string{"Web, Mobile"}},
			wantArgs: 0,
		},
		{
			name:     "topics are never pushed down",
			filters:  domain.FilterOptions{Topics: []string{"Go"}},
			wantArgs: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := buildListQuery(TableResources, tt.filters)

			if len(args) != tt.wantArgs {
				t.Fatalf("expected %d args, got %d (%v)", tt.wantArgs, len(args), args)
			}
			if !strings.HasSuffix(sql, "ORDER BY date_added DESC NULLS LAST") {
				t.Errorf("missing ordering: %s", sql)
			}
			if tt.wantArgs == 0 && strings.Contains(sql, "WHERE") {
				t.Errorf("unexpected WHERE clause: %s", sql)
			}
			for _, w := range tt.wantWhere {
				if !strings.Contains(sql, w) {
					t.Errorf("expected %q in %s", w, sql)
				}
			}
		})
	}
}

func TestBuildListQuery_ArgsAreFolded(t *testing.T) {
	_, args := buildListQuery(TableResources, domain.FilterOptions{Difficulty: []string{"  ADVANCED  level"}})

	got, ok := args[0].([]string)
	if !ok || len(got) != 1 || got[0] != "advanced level" {
		t.Fatalf("unexpected args: %#v", args)
	}
}

func TestCategoryPatterns_EscapesWildcards(t *testing.T) {
	patterns, ok := categoryPatterns([]string{"100%_real"})
	if !ok {
		t.Fatal("expected pushdown")
	}
	if patterns[0] != `%100\%\_real%` {
		t.Errorf("unexpected pattern %q", patterns[0])
	}
}

func TestPrefixed(t *testing.T) {
	got := prefixed("r", "id::text, title,\n\trating::float8")
	want := "r.id::text, r.title, r.rating::float8"
	if got != want {
		t.Errorf("prefixed() = %q, want %q", got, want)
	}
}

func TestBuildListQuery_CategoryWhitespaceIsSqueezed(t *testing.T) {
	sql, args := buildListQuery(TableResources, domain.FilterOptions{TagCategories: []string{"Machine   Learning"}})

	if !strings.Contains(sql, foldedColumn("tag_categories")+" LIKE ANY($1)") {
		t.Fatalf("category predicate does not fold the column: %s", sql)
	}
	got, ok := args[0].([]string)
	if !ok || len(got) != 1 || got[0] != "%machine learning%" {
		t.Fatalf("unexpected args: %#v", args)
	}
}
