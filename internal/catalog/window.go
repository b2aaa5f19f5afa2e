package catalog

import "github.com/MrSnakeDoc/curio/internal/domain"

const (
	DefaultWindowInitial = 24
	DefaultWindowStep    = 12
)

// Window reveals an ordered result list progressively: Initial items at
// first, Step more each time the reader gets close to the end. Non-positive
// sizes, including the zero value, use the defaults.
type Window struct {
	Initial int
	Step    int
	shown   int
}

// NewWindow returns a window with the given sizes. Non-positive sizes fall
// back to the defaults.
func NewWindow(initial, step int) *Window {
	if initial <= 0 {
		initial = DefaultWindowInitial
	}
	if step <= 0 {
		step = DefaultWindowStep
	}
	return &Window{Initial: initial, Step: step, shown: initial}
}

// Limit returns how many of total items are currently revealed.
func (w *Window) Limit(total int) int {
	if w.shown <= 0 {
		w.shown = w.initial()
	}
	return min(w.shown, total)
}

// Visible returns the revealed prefix of items.
func (w *Window) Visible(items []domain.Resource) []domain.Resource {
	return items[:w.Limit(len(items))]
}

// HasMore reports whether items beyond the window remain.
func (w *Window) HasMore(total int) bool {
	return w.Limit(total) < total
}

// Advance reveals Step more items, capped at total. It reports whether
// anything new became visible.
func (w *Window) Advance(total int) bool {
	before := w.Limit(total)
	if before >= total {
		return false
	}
	w.shown = min(before+w.step(), total)
	return true
}

// Reset goes back to the initial size, for a new result list.
func (w *Window) Reset() {
	w.shown = w.initial()
}

func (w *Window) initial() int {
	if w.Initial <= 0 {
		return DefaultWindowInitial
	}
	return w.Initial
}

func (w *Window) step() int {
	if w.Step <= 0 {
		return DefaultWindowStep
	}
	return w.Step
}
