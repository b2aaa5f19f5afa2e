// Package catalog filters and orders catalog resources. It is pure: no I/O,
// no shared state, inputs are never mutated.
package catalog

import (
	"sort"
	"strings"

	"github.com/MrSnakeDoc/curio/internal/domain"
)

// Apply returns the resources matching query and filters, ordered by sortBy
// and sortOrder. The input slice is left untouched.
func Apply(resources []domain.Resource, query string, filters domain.FilterOptions, sortBy domain.SortKey, sortOrder domain.SortOrder) []domain.Resource {
	q := normalizeQuery(query)
	sel := compileFilters(filters)

	out := make([]domain.Resource, 0, len(resources))
	for _, r := range resources {
		if matchesQuery(r, q) && sel.match(r) {
			out = append(out, r)
		}
	}
	Sort(out, sortBy, sortOrder)
	return out
}

// ApplyQuery is Apply driven by a domain.Query.
func ApplyQuery(resources []domain.Resource, q domain.Query) []domain.Resource {
	return Apply(resources, q.Search, q.Filters, q.SortBy, q.SortOrder)
}

// Filter keeps the resources matching query, in input order. It is the
// text-only matcher used by the search overlay.
func Filter(resources []domain.Resource, query string) []domain.Resource {
	q := normalizeQuery(query)
	out := make([]domain.Resource, 0, len(resources))
	for _, r := range resources {
		if matchesQuery(r, q) {
			out = append(out, r)
		}
	}
	return out
}

// MatchesQuery reports whether the trimmed, case-insensitive query is empty
// or a substring of the title, author, source, or of any topic, category,
// subcategory or key takeaway.
func MatchesQuery(r domain.Resource, query string) bool {
	return matchesQuery(r, normalizeQuery(query))
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func matchesQuery(r domain.Resource, q string) bool {
	if q == "" {
		return true
	}
	for _, field := range []string{r.Title, domain.Text(r.Author), domain.Text(r.Source)} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, list := range [][]string{r.Topics, r.TagCategories, r.TagSubcategories, r.KeyTakeaways} {
		for _, v := range list {
			if strings.Contains(strings.ToLower(v), q) {
				return true
			}
		}
	}
	return false
}

// MatchesFilters applies AND across facets and OR within a facet.
func MatchesFilters(r domain.Resource, filters domain.FilterOptions) bool {
	return compileFilters(filters).match(r)
}

// selection is a FilterOptions folded once for repeated matching.
type selection struct {
	topics        map[string]struct{}
	categories    []string
	subcategories map[string]struct{}
	difficulty    map[string]struct{}
	contentType   map[string]struct{}
}

func compileFilters(f domain.FilterOptions) selection {
	cats := make([]string, 0, len(f.TagCategories))
	for _, c := range f.TagCategories {
		if c = domain.FoldFacet(c); c != "" {
			cats = append(cats, c)
		}
	}
	return selection{
		topics:        foldedSet(f.Topics),
		categories:    cats,
		subcategories: foldedSet(f.TagSubcategories),
		difficulty:    foldedSet(f.Difficulty),
		contentType:   foldedSet(f.ContentType),
	}
}

func foldedSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = domain.FoldFacet(v); v != "" {
			m[v] = struct{}{}
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

func (s selection) match(r domain.Resource) bool {
	if s.topics != nil && !overlaps(r.Topics, s.topics) {
		return false
	}
	if len(s.categories) > 0 && !containsAny(categoryText(r), s.categories) {
		return false
	}
	if s.subcategories != nil && !overlaps(r.TagSubcategories, s.subcategories) {
		return false
	}
	if s.difficulty != nil && !inSet(r.Difficulty, s.difficulty) {
		return false
	}
	if s.contentType != nil && !inSet(r.ContentType, s.contentType) {
		return false
	}
	return true
}

// categoryText is the denormalized text categories are matched against.
// Each element is folded like a facet option.
func categoryText(r domain.Resource) string {
	folded := make([]string, 0, len(r.TagCategories))
	for _, c := range r.TagCategories {
		if c = domain.FoldFacet(c); c != "" {
			folded = append(folded, c)
		}
	}
	return strings.Join(folded, ", ")
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

func overlaps(values []string, set map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := set[domain.FoldFacet(v)]; ok {
			return true
		}
	}
	return false
}

func inSet(v *string, set map[string]struct{}) bool {
	if v == nil {
		return false
	}
	_, ok := set[domain.FoldFacet(*v)]
	return ok
}

// Sort orders resources in place. Equal keys keep their relative order and
// descending negates the ascending comparison.
func Sort(resources []domain.Resource, sortBy domain.SortKey, sortOrder domain.SortOrder) {
	cmp := comparator(sortBy)
	desc := sortOrder != domain.SortAsc
	sort.SliceStable(resources, func(i, j int) bool {
		c := cmp(resources[i], resources[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// Sorted returns an ordered copy of resources.
func Sorted(resources []domain.Resource, sortBy domain.SortKey, sortOrder domain.SortOrder) []domain.Resource {
	out := make([]domain.Resource, len(resources))
	copy(out, resources)
	Sort(out, sortBy, sortOrder)
	return out
}

func comparator(key domain.SortKey) func(a, b domain.Resource) int {
	switch key {
	case domain.SortByRating:
		return func(a, b domain.Resource) int { return compareFloat(rating(a), rating(b)) }
	case domain.SortByTitle:
		return func(a, b domain.Resource) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		}
	case domain.SortByDifficulty:
		return func(a, b domain.Resource) int {
			return DifficultyRank(domain.Text(a.Difficulty)) - DifficultyRank(domain.Text(b.Difficulty))
		}
	default:
		return func(a, b domain.Resource) int { return compareDates(a, b) }
	}
}

func rating(r domain.Resource) float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareDates treats a missing date as the earliest possible.
func compareDates(a, b domain.Resource) int {
	switch {
	case a.DateAdded == nil && b.DateAdded == nil:
		return 0
	case a.DateAdded == nil:
		return -1
	case b.DateAdded == nil:
		return 1
	default:
		return a.DateAdded.Compare(*b.DateAdded)
	}
}

var difficultyRanks = map[string]int{
	"beginner":     1,
	"intermediate": 2,
	"advanced":     3,
}

// DifficultyRank maps the conventional difficulty levels to 1..3.
// Unknown or empty values rank 0.
func DifficultyRank(difficulty string) int {
	return difficultyRanks[domain.FoldFacet(difficulty)]
}
