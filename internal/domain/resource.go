package domain

import "time"

// Resource is a single catalog entry (a course, article, talk, repository...).
//
// Resources are owned by an external content pipeline and are read-only for
// curio. Every optional field may be absent: nil pointers and nil slices are
// treated as empty values, never as errors.
type Resource struct {
	// ─────────────────────────────
	// Identity (required)
	// ─────────────────────────────

	// ID is an opaque identifier, unique within a result set.
	ID string `json:"id" yaml:"id"`

	// Title is the display title.
	Title string `json:"title" yaml:"title"`

	// URL points to the resource itself.
	URL string `json:"url" yaml:"url"`

	// ─────────────────────────────
	// Provenance (optional)
	// ─────────────────────────────

	Author    *string `json:"author" yaml:"author,omitempty"`
	Source    *string `json:"source" yaml:"source,omitempty"`
	Publisher *string `json:"publisher" yaml:"publisher,omitempty"`

	// ─────────────────────────────
	// Facets (optional, order irrelevant for matching)
	// ─────────────────────────────

	Topics           []string `json:"topics" yaml:"topics,omitempty"`
	TagCategories    []string `json:"tag_categories" yaml:"tag_categories,omitempty"`
	TagSubcategories []string `json:"tag_subcategories" yaml:"tag_subcategories,omitempty"`
	KeyTakeaways     []string `json:"key_takeaways" yaml:"key_takeaways,omitempty"`

	// Difficulty comes from an open vocabulary. Beginner, Intermediate and
	// Advanced are the conventional values but anything is accepted.
	Difficulty *string `json:"difficulty" yaml:"difficulty,omitempty"`

	// ContentType is free text as well (video, article, course...).
	ContentType *string `json:"content_type" yaml:"content_type,omitempty"`

	// ─────────────────────────────
	// Ranking & time
	// ─────────────────────────────

	// Rating is in the 0-5 range when present.
	Rating *float64 `json:"rating" yaml:"rating,omitempty"`

	// DateAdded is when the pipeline added the resource to the catalog.
	DateAdded *time.Time `json:"date_added" yaml:"date_added,omitempty"`

	CreatedAt *time.Time `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// Text returns the value of an optional text field, or "" when absent.
func Text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns a pointer to v. Handy for building optional fields.
func Ptr[T any](v T) *T {
	return &v
}
