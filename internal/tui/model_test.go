package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/curio/internal/apperr"
	"github.com/MrSnakeDoc/curio/internal/catalog"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/logger"
	"github.com/MrSnakeDoc/curio/internal/search"
)

type fakeBackend struct {
	mu          sync.Mutex
	resources   []domain.Resource
	saved       map[string]domain.Bookmark
	token       string
	failWrites  error
	invalidated int
}

func newFakeBackend(resources []domain.Resource) *fakeBackend {
	return &fakeBackend{resources: resources, saved: make(map[string]domain.Bookmark)}
}

func (f *fakeBackend) FetchResources(_ context.Context, query string, filters domain.FilterOptions,
	sortBy domain.SortKey, sortOrder domain.SortOrder) ([]domain.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return catalog.Apply(f.resources, query, filters, sortBy, sortOrder), nil
}

func (f *fakeBackend) ListBookmarks(context.Context) ([]domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token == "" {
		return nil, apperr.ErrUnauthenticated
	}
	out := make([]domain.Bookmark, 0, len(f.saved))
	for _, b := range f.saved {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBackend) CreateBookmark(_ context.Context, id string, notes *string) (domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return domain.Bookmark{}, f.failWrites
	}
	b := domain.Bookmark{ID: "b-" + id, ResourceID: id, Notes: notes}
	for i := range f.resources {
		if f.resources[i].ID == id {
			r := f.resources[i]
			b.Resource = &r
		}
	}
	f.saved[id] = b
	return b, nil
}

func (f *fakeBackend) DeleteBookmark(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites != nil {
		return f.failWrites
	}
	delete(f.saved, id)
	return nil
}

func (f *fakeBackend) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

func (f *fakeBackend) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated++
}

func fixtures(n int) []domain.Resource {
	out := make([]domain.Resource, n)
	for i := range out {
		d := time.Date(2025, 1, 1+i, 0, 0, 0, 0, time.UTC)
		out[i] = domain.Resource{
			ID:        fmt.Sprintf("r%02d", i),
			Title:     fmt.Sprintf("Resource %02d", i),
			URL:       fmt.Sprintf("https://example.com/%d", i),
			Rating:    domain.Ptr(float64(i%5) + 0.5),
			DateAdded: &d,
		}
	}
	out[0].Title = "Concurrency in Go"
	out[0].Difficulty = domain.Ptr("Advanced")
	return out
}

// exec runs cmd and every command it batches, returning the messages.
func exec(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, exec(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func feed(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

// press sends a key and returns the model plus the messages of the
// resulting command. Blink ticks from the text input are ignored.
func press(t *testing.T, m Model, k tea.KeyMsg) (Model, []tea.Msg) {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)
	var msgs []tea.Msg
	for _, msg := range execNonBlocking(cmd) {
		switch msg.(type) {
		case resourcesMsg, signInMsg, toggledMsg:
			msgs = append(msgs, msg)
		}
	}
	return m, msgs
}

// execNonBlocking skips the text input cursor commands, which sleep.
func execNonBlocking(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan []tea.Msg, 1)
	go func() { done <- exec(cmd) }()
	select {
	case msgs := <-done:
		return msgs
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

func start(t *testing.T, backend *fakeBackend, cfg Config) (Model, *Session) {
	t.Helper()
	session := NewSession(backend, logger.Nop())
	t.Cleanup(session.Close)
	cfg.Session = session
	m := NewModel(cfg)
	m = feed(t, m, exec(m.Init())...)
	return m, session
}

func TestInit_LoadsListingAndSignsIn(t *testing.T) {
	backend := newFakeBackend(fixtures(3))
	m, session := start(t, backend, Config{Token: "tok"})

	require.Len(t, m.list, 3)
	assert.False(t, m.loading)
	assert.Equal(t, "r02", m.list[0].ID, "default order is newest first")
	assert.True(t, session.Bookmarks.Authenticated())
	assert.Equal(t, m.list, session.Catalog())
}

func TestStaleListingIsDropped(t *testing.T) {
	m, _ := start(t, newFakeBackend(fixtures(6)), Config{})

	m, first := press(t, m, runes("s"))  // rating desc
	m, second := press(t, m, runes("o")) // rating asc
	require.Len(t, first, 1)
	require.Len(t, second, 1)

	m = feed(t, m, second[0], first[0])

	assert.Equal(t, domain.SortByRating, m.sortBy)
	assert.Equal(t, domain.SortAsc, m.sortOrder)
	want := catalog.Apply(fixtures(6), "", domain.FilterOptions{}, domain.SortByRating, domain.SortAsc)
	assert.Equal(t, want, m.list, "late response to the older request must not win")
}

func TestRefreshInvalidatesClientCache(t *testing.T) {
	backend := newFakeBackend(fixtures(2))
	m, _ := start(t, backend, Config{})

	m, msgs := press(t, m, runes("r"))
	assert.True(t, m.loading)
	require.Len(t, msgs, 1)
	assert.Equal(t, 1, backend.invalidated)
}

func TestOverlaySearchAndSelect(t *testing.T) {
	m, session := start(t, newFakeBackend(fixtures(40)), Config{WindowInitial: 5, WindowStep: 5})

	m, _ = press(t, m, runes("/"))
	require.True(t, session.Overlay.IsOpen())

	m, _ = press(t, m, runes("concurrency"))
	assert.Equal(t, "concurrency", session.Overlay.Query())
	results := session.Overlay.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "r00", results[0].ID)
	assert.Contains(t, m.View(), "Concurrency in Go")

	// r00 is the oldest, so it sits at the end of the listing.
	m, _ = press(t, m, keyEnter)
	assert.False(t, session.Overlay.IsOpen())
	assert.Equal(t, 39, m.cursor)
	cur, ok := m.current()
	require.True(t, ok, "window grew to reveal the selection")
	assert.Equal(t, "r00", cur.ID)
}

func TestOverlayEscapeKeepsListing(t *testing.T) {
	m, session := start(t, newFakeBackend(fixtures(3)), Config{})

	m, _ = press(t, m, runes("/"))
	m, _ = press(t, m, runes("zzz"))
	assert.Empty(t, session.Overlay.Results())
	assert.Contains(t, m.View(), "no matches")

	m, _ = press(t, m, keyEsc)
	assert.False(t, session.Overlay.IsOpen())
	assert.Empty(t, m.input.Value())
	assert.Len(t, m.list, 3)
}

func TestWindowRevealsOnScroll(t *testing.T) {
	m, _ := start(t, newFakeBackend(fixtures(30)), Config{WindowInitial: 5, WindowStep: 5})
	assert.Equal(t, 5, m.window.Limit(len(m.list)))

	for range 5 {
		m, _ = press(t, m, keyDown)
	}
	assert.Equal(t, 5, m.cursor)
	assert.Equal(t, 10, m.window.Limit(len(m.list)))
	assert.Contains(t, m.View(), "showing 10 of 30")

	m, _ = press(t, m, runes("m"))
	assert.Equal(t, 15, m.window.Limit(len(m.list)))
}

func TestBookmarkToggle(t *testing.T) {
	backend := newFakeBackend(fixtures(3))
	m, session := start(t, backend, Config{Token: "tok"})

	m, msgs := press(t, m, runes("b"))
	require.Len(t, msgs, 1)
	m = feed(t, m, msgs...)

	id := m.list[0].ID
	assert.True(t, session.Bookmarks.IsBookmarked(id))
	assert.Equal(t, "bookmark added", m.status)
	assert.Contains(t, m.View(), "★")

	session.Bookmarks.Wait()
	backend.mu.Lock()
	_, saved := backend.saved[id]
	backend.mu.Unlock()
	assert.True(t, saved)
}

func TestBookmarkToggleRollsBack(t *testing.T) {
	backend := newFakeBackend(fixtures(3))
	m, session := start(t, backend, Config{Token: "tok"})
	backend.mu.Lock()
	backend.failWrites = fmt.Errorf("connection reset")
	backend.mu.Unlock()

	m, msgs := press(t, m, runes("b"))
	m = feed(t, m, msgs...)

	assert.False(t, session.Bookmarks.IsBookmarked(m.list[0].ID))
	assert.True(t, strings.HasPrefix(m.err, "bookmark failed"), m.err)
}

func TestBookmarkRequiresSignIn(t *testing.T) {
	m, _ := start(t, newFakeBackend(fixtures(2)), Config{})

	m, msgs := press(t, m, runes("b"))
	assert.Empty(t, msgs)
	assert.Equal(t, "sign in to bookmark", m.status)
}

func TestScopeAndSignOut(t *testing.T) {
	m, session := start(t, newFakeBackend(fixtures(3)), Config{Token: "tok"})

	m, msgs := press(t, m, runes("b"))
	m = feed(t, m, msgs...)
	session.Bookmarks.Wait()

	m, _ = press(t, m, runes("/"))
	m, _ = press(t, m, keyTab)
	assert.Equal(t, search.ScopeBookmarks, session.Overlay.Scope())
	assert.Len(t, session.Overlay.Results(), 1)

	m, _ = press(t, m, keyEsc)
	m, _ = press(t, m, runes("L"))
	assert.False(t, session.Bookmarks.Authenticated())
	assert.Zero(t, session.Bookmarks.Count())
	assert.Equal(t, search.ScopeCatalog, session.Overlay.Scope())
	assert.Contains(t, m.View(), "signed out")

	m, _ = press(t, m, runes("/"))
	_, _ = press(t, m, keyTab)
	assert.Equal(t, search.ScopeCatalog, session.Overlay.Scope(), "bookmark scope needs a user")
}

func TestSignInFailureStaysSignedOut(t *testing.T) {
	backend := newFakeBackend(fixtures(1))
	session := NewSession(backend, logger.Nop())

	err := session.SignIn(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, session.Bookmarks.Authenticated())

	m := NewModel(Config{Session: session})
	m = feed(t, m, signInMsg{err: apperr.ErrUnauthenticated})
	assert.Equal(t, "sign in: not signed in", m.err)
}

func TestNextSortKey(t *testing.T) {
	assert.Equal(t, domain.SortByRating, nextSortKey(domain.SortByDateAdded))
	assert.Equal(t, domain.SortByDateAdded, nextSortKey(domain.SortByDifficulty))
	assert.Equal(t, domain.SortByDateAdded, nextSortKey("bogus"))
}
