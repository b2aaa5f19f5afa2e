package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/curio/internal/apperr"
)

// SortKey names the field a result list is ordered by.
type SortKey string

const (
	SortByDateAdded  SortKey = "date_added"
	SortByRating     SortKey = "rating"
	SortByTitle      SortKey = "title"
	SortByDifficulty SortKey = "difficulty"
)

// SortOrder is either ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Defaults applied when a request does not specify an ordering.
const (
	DefaultSortKey   = SortByDateAdded
	DefaultSortOrder = SortDesc
)

// ParseSortKey validates a sort key. An empty value yields the default.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.TrimSpace(s)); k {
	case "":
		return DefaultSortKey, nil
	case SortByDateAdded, SortByRating, SortByTitle, SortByDifficulty:
		return k, nil
	default:
		return "", apperr.NewValidation(fmt.Sprintf("invalid sortBy %q (want date_added|rating|title|difficulty)", s))
	}
}

// ParseSortOrder validates a sort order. An empty value yields the default.
func ParseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return DefaultSortOrder, nil
	case SortAsc, SortDesc:
		return o, nil
	default:
		return "", apperr.NewValidation(fmt.Sprintf("invalid sortOrder %q (want asc|desc)", s))
	}
}

// Toggle returns the opposite order.
func (o SortOrder) Toggle() SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// FilterOptions holds the selected values of every facet.
// An empty slice places no constraint on that facet.
type FilterOptions struct {
	Topics           []string `json:"topics"`
	TagCategories    []string `json:"tagCategories"`
	TagSubcategories []string `json:"tagSubcategories"`
	Difficulty       []string `json:"difficulty"`
	ContentType      []string `json:"content_type"`
}

// IsEmpty reports whether no facet is constrained.
func (f FilterOptions) IsEmpty() bool {
	return len(f.Topics) == 0 && len(f.TagCategories) == 0 && len(f.TagSubcategories) == 0 &&
		len(f.Difficulty) == 0 && len(f.ContentType) == 0
}

// Normalized returns a copy with every facet trimmed, de-duplicated
// (case-insensitively) and sorted, so equal selections compare equal.
func (f FilterOptions) Normalized() FilterOptions {
	return FilterOptions{
		Topics:           NewFacetSet(f.Topics...).Values(),
		TagCategories:    NewFacetSet(f.TagCategories...).Values(),
		TagSubcategories: NewFacetSet(f.TagSubcategories...).Values(),
		Difficulty:       NewFacetSet(f.Difficulty...).Values(),
		ContentType:      NewFacetSet(f.ContentType...).Values(),
	}
}

// FacetOptions lists every selectable value per facet.
type FacetOptions struct {
	Topics           []string `json:"topics"`
	TagCategories    []string `json:"tagCategories"`
	TagSubcategories []string `json:"tagSubcategories"`
	Difficulties     []string `json:"difficulties"`
	ContentTypes     []string `json:"content_types"`
}

// Query is a complete catalog request: free text, facet selections and ordering.
type Query struct {
	Search    string
	Filters   FilterOptions
	SortBy    SortKey
	SortOrder SortOrder
}

// CacheKey renders the query deterministically. Two queries selecting the
// same results produce the same key.
func (q Query) CacheKey() string {
	f := q.Filters.Normalized()
	parts := []string{
		"q=" + strings.ToLower(strings.TrimSpace(q.Search)),
		"t=" + foldJoin(f.Topics),
		"c=" + foldJoin(f.TagCategories),
		"s=" + foldJoin(f.TagSubcategories),
		"d=" + foldJoin(f.Difficulty),
		"ct=" + foldJoin(f.ContentType),
		"by=" + string(q.SortBy),
		"o=" + string(q.SortOrder),
	}
	return strings.Join(parts, "&")
}

func foldJoin(values []string) string {
	folded := make([]string, len(values))
	for i, v := range values {
		folded[i] = FoldFacet(v)
	}
	return strings.Join(folded, ",")
}

// NormalizeFacet trims a facet value and collapses inner whitespace.
// Casing is preserved for display.
func NormalizeFacet(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FoldFacet returns the comparison form of a facet value.
func FoldFacet(s string) string {
	return strings.ToLower(NormalizeFacet(s))
}

// FacetSet is an open vocabulary of facet values. Membership is
// case-insensitive; the first spelling seen is kept for display.
type FacetSet struct {
	display map[string]string // folded -> display
}

// NewFacetSet builds a set from raw values, skipping blanks.
func NewFacetSet(values ...string) *FacetSet {
	s := &FacetSet{display: make(map[string]string, len(values))}
	for _, v := range values {
		s.Add(v)
	}
	return s
}

// Add inserts a value. Blank values are ignored.
func (s *FacetSet) Add(v string) {
	v = NormalizeFacet(v)
	if v == "" {
		return
	}
	key := strings.ToLower(v)
	if _, ok := s.display[key]; !ok {
		s.display[key] = v
	}
}

// Has reports whether v (in any casing) is a member.
func (s *FacetSet) Has(v string) bool {
	_, ok := s.display[FoldFacet(v)]
	return ok
}

// Len returns the number of distinct values.
func (s *FacetSet) Len() int {
	return len(s.display)
}

// Values returns the display values, sorted.
func (s *FacetSet) Values() []string {
	out := make([]string, 0, len(s.display))
	for _, v := range s.display {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
