// Package tui is a terminal resource browser: a windowed catalog listing
// with bookmark toggles and a global search overlay over the catalog or
// the signed-in user's bookmarks.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrSnakeDoc/curio/internal/apperr"
	"github.com/MrSnakeDoc/curio/internal/bookmarks"
	"github.com/MrSnakeDoc/curio/internal/catalog"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/search"
)

const defaultCallTimeout = 15 * time.Second

var sortCycle = []domain.SortKey{
	domain.SortByDateAdded,
	domain.SortByRating,
	domain.SortByTitle,
	domain.SortByDifficulty,
}

type Config struct {
	Session *Session

	// Token signs the session in on start when set.
	Token string

	Query     string
	Filters   domain.FilterOptions
	SortBy    domain.SortKey
	SortOrder domain.SortOrder

	// WindowInitial and WindowStep size the progressive reveal of the
	// listing. Zero values use the catalog defaults.
	WindowInitial int
	WindowStep    int

	CallTimeout time.Duration
	Keys        *KeyMap
	Theme       *Theme
}

// Model implements tea.Model.
type Model struct {
	session *Session
	keys    KeyMap
	theme   Theme
	input   textinput.Model
	window  *catalog.Window
	timeout time.Duration
	token   string

	query     string
	filters   domain.FilterOptions
	sortBy    domain.SortKey
	sortOrder domain.SortOrder

	list   []domain.Resource
	cursor int

	// seq numbers listing requests; only the response to the latest one
	// is applied.
	seq     uint64
	loading bool

	status string
	err    string

	width  int
	height int
}

type resourcesMsg struct {
	seq  uint64
	list []domain.Resource
	err  error
}

type signInMsg struct {
	err error
}

type toggledMsg struct {
	id     string
	action bookmarks.Action
	err    error
}

func NewModel(cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "search titles, authors, topics..."
	input.Prompt = "/ "
	input.CharLimit = 500

	m := Model{
		session:   cfg.Session,
		keys:      DefaultKeyMap,
		theme:     DefaultTheme,
		input:     input,
		window:    catalog.NewWindow(cfg.WindowInitial, cfg.WindowStep),
		timeout:   cfg.CallTimeout,
		token:     cfg.Token,
		query:     cfg.Query,
		filters:   cfg.Filters,
		sortBy:    cfg.SortBy,
		sortOrder: cfg.SortOrder,
		seq:       1,
		loading:   true,
	}
	if cfg.Keys != nil {
		m.keys = *cfg.Keys
	}
	if cfg.Theme != nil {
		m.theme = *cfg.Theme
	}
	if m.timeout <= 0 {
		m.timeout = defaultCallTimeout
	}
	if m.sortBy == "" {
		m.sortBy = domain.DefaultSortKey
	}
	if m.sortOrder == "" {
		m.sortOrder = domain.DefaultSortOrder
	}
	return m
}

// Init loads the first listing and, with a token, signs in.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.fetchCmd(m.seq)}
	if m.token != "" {
		cmds = append(cmds, m.signInCmd(m.token))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-4, 10)

	case resourcesMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.err = errorText("load resources", msg.err)
			return m, nil
		}
		m.err = ""
		m.list = msg.list
		m.cursor = 0
		m.window.Reset()
		m.session.SetCatalog(msg.list)

	case signInMsg:
		if msg.err != nil {
			m.err = errorText("sign in", msg.err)
			return m, nil
		}
		m.status = fmt.Sprintf("signed in, %d bookmarks", m.session.Bookmarks.Count())

	case toggledMsg:
		if m.session.Overlay.IsOpen() {
			m.session.Overlay.Refresh()
		}
		if msg.err != nil {
			m.err = errorText("bookmark", msg.err)
			if !m.session.Bookmarks.Authenticated() {
				m.status = "signed out"
			}
			return m, nil
		}
		m.err = ""
		m.status = "bookmark " + string(msg.action)

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		if m.session.Overlay.IsOpen() {
			return m.handleOverlayKeys(msg)
		}
		return m.handleListKeys(msg)
	}
	return m, nil
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		visible := m.window.Limit(len(m.list))
		if m.cursor >= visible-1 {
			m.window.Advance(len(m.list))
			visible = m.window.Limit(len(m.list))
		}
		if m.cursor < visible-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.More):
		m.window.Advance(len(m.list))

	case key.Matches(msg, m.keys.Search):
		m.session.Overlay.Open()
		m.input.Reset()
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Bookmark):
		if r, ok := m.current(); ok {
			cmd := m.toggle(r.ID)
			return m, cmd
		}

	case key.Matches(msg, m.keys.SortNext):
		m.sortBy = nextSortKey(m.sortBy)
		cmd := m.reload()
		return m, cmd

	case key.Matches(msg, m.keys.OrderFlip):
		m.sortOrder = m.sortOrder.Toggle()
		cmd := m.reload()
		return m, cmd

	case key.Matches(msg, m.keys.Refresh):
		m.session.Backend.Invalidate()
		cmd := m.reload()
		return m, cmd

	case key.Matches(msg, m.keys.SignOut):
		m.session.SignOut()
		m.status = "signed out"
	}
	return m, nil
}

func (m Model) handleOverlayKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ov := m.session.Overlay

	switch {
	case key.Matches(msg, m.keys.Close):
		m.closeOverlay()
		return m, nil

	case msg.Type == tea.KeyUp:
		ov.MoveUp()
		return m, nil

	case msg.Type == tea.KeyDown:
		ov.MoveDown()
		return m, nil

	case key.Matches(msg, m.keys.ScopeToggle):
		if ov.Scope() == search.ScopeCatalog {
			if !m.session.Bookmarks.Authenticated() {
				m.status = "sign in to search bookmarks"
				return m, nil
			}
			ov.SetScope(search.ScopeBookmarks)
		} else {
			ov.SetScope(search.ScopeCatalog)
		}
		return m, nil

	case key.Matches(msg, m.keys.OverlayBookmark):
		if r, ok := ov.Selected(); ok {
			cmd := m.toggle(r.ID)
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		r, ok := ov.Selected()
		m.closeOverlay()
		if ok {
			m.focus(r.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != ov.Query() {
		ov.SetQuery(v)
	}
	return m, cmd
}

func (m *Model) closeOverlay() {
	m.session.Overlay.Close()
	m.input.Reset()
	m.input.Blur()
}

// focus moves the cursor to id, revealing more of the listing as needed.
func (m *Model) focus(id string) {
	for i, r := range m.list {
		if r.ID != id {
			continue
		}
		for m.window.Limit(len(m.list)) <= i {
			if !m.window.Advance(len(m.list)) {
				break
			}
		}
		m.cursor = i
		return
	}
	m.status = "not in the current listing"
}

func (m Model) current() (domain.Resource, bool) {
	visible := m.window.Visible(m.list)
	if m.cursor < 0 || m.cursor >= len(visible) {
		return domain.Resource{}, false
	}
	return visible[m.cursor], true
}

// reload requests a new listing. Responses to earlier requests are dropped.
func (m *Model) reload() tea.Cmd {
	m.seq++
	m.loading = true
	return m.fetchCmd(m.seq)
}

func (m Model) fetchCmd(seq uint64) tea.Cmd {
	backend := m.session.Backend
	query, filters, sortBy, sortOrder := m.query, m.filters, m.sortBy, m.sortOrder
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		list, err := backend.FetchResources(ctx, query, filters, sortBy, sortOrder)
		return resourcesMsg{seq: seq, list: list, err: err}
	}
}

func (m Model) signInCmd(token string) tea.Cmd {
	session, timeout := m.session, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return signInMsg{err: session.SignIn(ctx, token)}
	}
}

func (m *Model) toggle(id string) tea.Cmd {
	if !m.session.Bookmarks.Authenticated() {
		m.status = "sign in to bookmark"
		return nil
	}
	manager, timeout := m.session.Bookmarks, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		action, err := manager.Toggle(ctx, id)
		return toggledMsg{id: id, action: action, err: err}
	}
}

func nextSortKey(k domain.SortKey) domain.SortKey {
	for i, s := range sortCycle {
		if s == k {
			return sortCycle[(i+1)%len(sortCycle)]
		}
	}
	return sortCycle[0]
}

func errorText(op string, err error) string {
	var ve *apperr.ValidationError
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		return op + ": not signed in"
	case errors.Is(err, apperr.ErrForbidden):
		return op + ": not allowed"
	case errors.As(err, &ve):
		return op + ": " + ve.Message
	default:
		return op + " failed: " + err.Error()
	}
}
