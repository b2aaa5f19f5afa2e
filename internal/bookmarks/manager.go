// Package bookmarks keeps the signed-in user's bookmarked resource ids in
// memory and applies toggles optimistically against a remote store.
package bookmarks

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/curio/internal/apperr"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/logger"
)

// ReconcileTimeout bounds the background refetch scheduled after a toggle.
const ReconcileTimeout = 10 * time.Second

// Remote is the persistent bookmark store, as seen by the signed-in user.
type Remote interface {
	ListBookmarks(ctx context.Context) ([]domain.Bookmark, error)
	CreateBookmark(ctx context.Context, resourceID string, notes *string) (domain.Bookmark, error)
	DeleteBookmark(ctx context.Context, resourceID string) error
}

// Action is the local effect of a toggle.
type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
)

// State is the optimistic-update state of one resource id.
type State int

const (
	Idle State = iota
	Pending
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

type Manager struct {
	remote Remote
	log    logger.Logger

	mu     sync.RWMutex
	authed bool
	ids    map[string]struct{}
	states map[string]State
	flight map[string]int    // remote toggle calls still running per id
	list   []domain.Bookmark // last fetched listing, newest first
	gen    uint64            // bumped on sign-out; results from an older generation are dropped

	fetchSeq   uint64 // listings are numbered when requested
	appliedSeq uint64 // and never replaced by an older one

	wg sync.WaitGroup
}

func NewManager(remote Remote, log logger.Logger) *Manager {
	return &Manager{
		remote: remote,
		log:    log,
		ids:    make(map[string]struct{}),
		states: make(map[string]State),
		flight: make(map[string]int),
	}
}

// Authenticate seeds the id set from the remote listing and enables the
// manager. It fails without side effects if the listing fails.
func (m *Manager) Authenticate(ctx context.Context) error {
	list, err := m.remote.ListBookmarks(ctx)
	if err != nil {
		return apperr.Backend("list bookmarks", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.authed = true
	m.states = make(map[string]State)
	m.replaceLocked(list, nil)

	m.log.Debug("bookmarks loaded", logger.Int("count", len(m.ids)))
	return nil
}

// Authenticated reports whether the manager currently has a signed-in user.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.authed
}

// IsBookmarked reports whether id is in the local set.
func (m *Manager) IsBookmarked(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.ids[id]
	return ok
}

// IDs returns the bookmarked ids, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.ids))
	for id := range m.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// State returns the optimistic-update state of id.
func (m *Manager) State(id string) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[id]
}

// Resources returns the joined resources of the last listing that are still
// bookmarked locally, newest bookmark first.
func (m *Manager) Resources() []domain.Resource {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Resource, 0, len(m.list))
	for _, b := range m.list {
		if b.Resource == nil {
			continue
		}
		if _, ok := m.ids[b.ResourceID]; ok {
			out = append(out, *b.Resource)
		}
	}
	return out
}

// Toggle flips the bookmark state of id. The local set is patched before the
// remote call returns; a failed remote call applies the inverse patch and
// returns the error. Success schedules a background Reconcile.
//
// Toggles on the same id are not serialized: the last local patch wins and
// both remote calls race. The id stays Pending until the last of them
// returns.
func (m *Manager) Toggle(ctx context.Context, id string) (Action, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperr.NewValidation("resource id is required")
	}

	m.mu.Lock()
	if !m.authed {
		m.mu.Unlock()
		return "", apperr.ErrUnauthenticated
	}
	_, was := m.ids[id]
	action := ActionAdded
	if was {
		action = ActionRemoved
		delete(m.ids, id)
	} else {
		m.ids[id] = struct{}{}
	}
	m.states[id] = Pending
	m.flight[id]++
	gen := m.gen
	m.mu.Unlock()

	var err error
	if was {
		err = m.remote.DeleteBookmark(ctx, id)
	} else {
		_, err = m.remote.CreateBookmark(ctx, id, nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		// signed out while the call was in flight
		return action, err
	}
	settled := m.land(id)

	if err != nil {
		if was {
			m.ids[id] = struct{}{}
		} else {
			delete(m.ids, id)
		}
		if settled {
			m.states[id] = RolledBack
		}
		m.log.Warn("bookmark toggle rolled back",
			logger.String("resource_id", id),
			logger.String("action", string(action)),
			logger.Error(err))

		if errors.Is(err, apperr.ErrUnauthenticated) {
			m.signOutLocked()
		}
		return action, apperr.Backend("toggle bookmark", err)
	}

	if settled {
		m.states[id] = Committed
	}
	m.scheduleReconcileLocked(context.WithoutCancel(ctx))
	return action, nil
}

// Reconcile refetches the listing and replaces the local set. Ids with a
// toggle still in flight keep their local value.
func (m *Manager) Reconcile(ctx context.Context) error {
	m.mu.Lock()
	authed, gen := m.authed, m.gen
	m.fetchSeq++
	seq := m.fetchSeq
	m.mu.Unlock()
	if !authed {
		return apperr.ErrUnauthenticated
	}

	list, err := m.remote.ListBookmarks(ctx)
	if err != nil {
		if errors.Is(err, apperr.ErrUnauthenticated) {
			m.SignOut()
		}
		return apperr.Backend("reconcile bookmarks", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen || !m.authed || seq < m.appliedSeq {
		return nil
	}
	m.appliedSeq = seq

	pending := make(map[string]bool)
	for id, st := range m.states {
		if st == Pending {
			_, local := m.ids[id]
			pending[id] = local
		}
	}
	m.replaceLocked(list, pending)
	return nil
}

// SignOut clears every local value and disables the manager until the next
// Authenticate.
func (m *Manager) SignOut() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOutLocked()
}

// Wait blocks until every scheduled background reconcile has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) signOutLocked() {
	m.authed = false
	m.ids = make(map[string]struct{})
	m.states = make(map[string]State)
	m.flight = make(map[string]int)
	m.list = nil
	m.gen++
}

// land records that one remote call for id returned and reports whether it
// was the last one in flight.
func (m *Manager) land(id string) bool {
	if m.flight[id] <= 1 {
		delete(m.flight, id)
		return true
	}
	m.flight[id]--
	return false
}

// replaceLocked swaps in a fetched listing; keep overrides membership for ids
// whose local value must survive.
func (m *Manager) replaceLocked(list []domain.Bookmark, keep map[string]bool) {
	ids := make(map[string]struct{}, len(list))
	for _, b := range list {
		ids[b.ResourceID] = struct{}{}
	}
	for id, present := range keep {
		if present {
			ids[id] = struct{}{}
		} else {
			delete(ids, id)
		}
	}
	m.ids = ids
	m.list = list
}

func (m *Manager) scheduleReconcileLocked(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, ReconcileTimeout)
		defer cancel()
		if err := m.Reconcile(ctx); err != nil && !errors.Is(err, apperr.ErrUnauthenticated) {
			m.log.Warn("bookmark reconcile failed", logger.Error(err))
		}
	}()
}
