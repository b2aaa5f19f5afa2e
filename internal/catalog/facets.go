package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/curio/internal/domain"
)

// FacetRow holds the raw facet columns of one stored resource. Multi-value
// columns arrive in whatever shape the backend produced: a text array, a
// JSON-encoded array string, or a comma/newline delimited string.
type FacetRow struct {
	Topics           any
	TagCategories    any
	TagSubcategories any
	Difficulty       any
	ContentType      any
}

// FacetRowOf builds a FacetRow from an already decoded resource.
func FacetRowOf(r domain.Resource) FacetRow {
	return FacetRow{
		Topics:           r.Topics,
		TagCategories:    r.TagCategories,
		TagSubcategories: r.TagSubcategories,
		Difficulty:       r.Difficulty,
		ContentType:      r.ContentType,
	}
}

// TextToArray normalizes a raw multi-value column into trimmed, non-empty
// strings. Unsupported shapes yield nil.
func TextToArray(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return compact(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if e == nil {
				continue
			}
			out = append(out, fmt.Sprint(e))
		}
		return compact(out)
	case *string:
		if t == nil {
			return nil
		}
		return textToArray(*t)
	case string:
		return textToArray(t)
	case []byte:
		return textToArray(string(t))
	default:
		return nil
	}
}

func textToArray(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "[") {
		var parsed []any
		if err := json.Unmarshal([]byte(s), &parsed); err == nil {
			return TextToArray(parsed)
		}
	}
	return compact(strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }))
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// DeriveFacetOptions flattens, de-duplicates and sorts every facet across
// rows. A row with no value for a facet contributes nothing.
func DeriveFacetOptions(rows []FacetRow) domain.FacetOptions {
	topics := domain.NewFacetSet()
	cats := domain.NewFacetSet()
	subcats := domain.NewFacetSet()
	diffs := domain.NewFacetSet()
	types := domain.NewFacetSet()

	for _, row := range rows {
		addAll(topics, TextToArray(row.Topics))
		addAll(cats, TextToArray(row.TagCategories))
		addAll(subcats, TextToArray(row.TagSubcategories))
		diffs.Add(scalar(row.Difficulty))
		types.Add(scalar(row.ContentType))
	}

	return domain.FacetOptions{
		Topics:           topics.Values(),
		TagCategories:    cats.Values(),
		TagSubcategories: subcats.Values(),
		Difficulties:     diffs.Values(),
		ContentTypes:     types.Values(),
	}
}

// OptionsOf derives facet options from decoded resources.
func OptionsOf(resources []domain.Resource) domain.FacetOptions {
	rows := make([]FacetRow, len(resources))
	for i, r := range resources {
		rows[i] = FacetRowOf(r)
	}
	return DeriveFacetOptions(rows)
}

func addAll(set *domain.FacetSet, values []string) {
	for _, v := range values {
		set.Add(v)
	}
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		return domain.Text(t)
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
