package catalogfile

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/curio/internal/domain"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Mapper converts catalog entries into domain resources.
type Mapper struct {
	now func() time.Time
}

func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// MapResources converts every group into resources. Entries without an id
// get one derived from their URL, so reseeding keeps ids (and bookmarks)
// stable. Invalid entries are reported together.
func (m *Mapper) MapResources(groups []Group) ([]domain.Resource, error) {
	var (
		out  []domain.Resource
		errs []error
		seen = make(map[string]string) // id -> title
	)

	for _, group := range groups {
		for _, category := range sortedKeys(group) {
			for _, entryMap := range group[category] {
				for _, title := range sortedKeys(entryMap) {
					r, err := m.mapEntry(category, title, entryMap[title])
					if err != nil {
						errs = append(errs, fmt.Errorf("%s / %s: %w", category, title, err))
						continue
					}
					if prev, dup := seen[r.ID]; dup {
						errs = append(errs, fmt.Errorf("%s / %s: duplicate of %q", category, title, prev))
						continue
					}
					seen[r.ID] = r.Title
					out = append(out, r)
				}
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Mapper) mapEntry(category, title string, p EntryProps) (domain.Resource, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Resource{}, errors.New("title is required")
	}

	u, err := url.Parse(strings.TrimSpace(p.URL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return domain.Resource{}, fmt.Errorf("invalid url %q", p.URL)
	}

	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(u.String())).String()
	if p.ID != "" {
		parsed, err := uuid.Parse(p.ID)
		if err != nil {
			return domain.Resource{}, fmt.Errorf("invalid id %q: %w", p.ID, err)
		}
		id = parsed.String()
	}

	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		return domain.Resource{}, fmt.Errorf("rating %v out of range 0-5", *p.Rating)
	}

	added := m.now().UTC()
	if p.DateAdded != "" {
		if added, err = parseDate(p.DateAdded); err != nil {
			return domain.Resource{}, err
		}
	}

	return domain.Resource{
		ID:               id,
		Title:            title,
		URL:              u.String(),
		Author:           optional(p.Author),
		Source:           optional(p.Source),
		Publisher:        optional(p.Publisher),
		Topics:           facets(p.Topics),
		TagCategories:    categories(category, p.Categories),
		TagSubcategories: facets(p.Subcategories),
		KeyTakeaways:     nonEmpty(p.Takeaways),
		Difficulty:       optional(p.Difficulty),
		ContentType:      optional(p.ContentType),
		Rating:           p.Rating,
		DateAdded:        &added,
	}, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date_added %q", s)
}

// categories keeps the group name first, then the extra categories in
// file order without repeats.
func categories(group string, extra []string) []string {
	set := domain.NewFacetSet()
	var out []string
	for _, c := range append([]string{group}, extra...) {
		c = domain.NormalizeFacet(c)
		if c == "" || set.Has(c) {
			continue
		}
		set.Add(c)
		out = append(out, c)
	}
	return out
}

func facets(values []string) []string {
	if out := domain.NewFacetSet(values...).Values(); len(out) > 0 {
		return out
	}
	return nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
