// Package search holds the state of the global search overlay: visibility,
// scope, query text and the keyboard selection over the filtered results.
package search

import (
	"github.com/MrSnakeDoc/curio/internal/catalog"
	"github.com/MrSnakeDoc/curio/internal/domain"
)

// Scope selects the collection the overlay searches.
type Scope int

const (
	ScopeCatalog Scope = iota
	ScopeBookmarks
)

func (s Scope) String() string {
	if s == ScopeBookmarks {
		return "bookmarks"
	}
	return "catalog"
}

// Source supplies the resources of one scope.
type Source func() []domain.Resource

// Overlay is not safe for concurrent use; it is driven by a single UI loop.
type Overlay struct {
	sources map[Scope]Source

	open     bool
	scope    Scope
	query    string
	results  []domain.Resource
	selected int
}

func NewOverlay(catalogSrc, bookmarksSrc Source) *Overlay {
	return &Overlay{
		sources: map[Scope]Source{
			ScopeCatalog:   catalogSrc,
			ScopeBookmarks: bookmarksSrc,
		},
	}
}

func (o *Overlay) IsOpen() bool  { return o.open }
func (o *Overlay) Scope() Scope  { return o.scope }
func (o *Overlay) Query() string { return o.query }

// Open shows the overlay with an empty query.
func (o *Overlay) Open() {
	o.open = true
	o.query = ""
	o.refresh()
}

// Close hides the overlay and forgets the query.
func (o *Overlay) Close() {
	o.open = false
	o.query = ""
	o.results = nil
	o.selected = 0
}

// Toggle opens a closed overlay and closes an open one.
func (o *Overlay) Toggle() {
	if o.open {
		o.Close()
		return
	}
	o.Open()
}

// SetScope switches the searched collection, keeping the query.
func (o *Overlay) SetScope(s Scope) {
	if s != ScopeBookmarks {
		s = ScopeCatalog
	}
	o.scope = s
	o.refresh()
}

// SetQuery replaces the query text and resets the selection.
func (o *Overlay) SetQuery(q string) {
	o.query = q
	o.refresh()
}

// Refresh recomputes the results after the underlying source changed.
// The selection is kept when still in range.
func (o *Overlay) Refresh() {
	sel := o.selected
	o.refresh()
	if sel < len(o.results) {
		o.selected = sel
	}
}

// Results returns the filtered resources in source order.
func (o *Overlay) Results() []domain.Resource {
	return o.results
}

// MoveDown selects the next result, wrapping to the first.
func (o *Overlay) MoveDown() {
	if n := len(o.results); n > 0 {
		o.selected = (o.selected + 1) % n
	}
}

// MoveUp selects the previous result, wrapping to the last.
func (o *Overlay) MoveUp() {
	if n := len(o.results); n > 0 {
		o.selected = (o.selected - 1 + n) % n
	}
}

// SelectedIndex returns the index of the selection, or -1 with no results.
func (o *Overlay) SelectedIndex() int {
	if len(o.results) == 0 {
		return -1
	}
	return o.selected
}

// Selected returns the highlighted resource.
func (o *Overlay) Selected() (domain.Resource, bool) {
	if len(o.results) == 0 {
		return domain.Resource{}, false
	}
	return o.results[o.selected], true
}

func (o *Overlay) refresh() {
	o.selected = 0
	src := o.sources[o.scope]
	if src == nil {
		o.results = nil
		return
	}
	o.results = catalog.Filter(src(), o.query)
}
