package bookmarks_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/curio/internal/apperr"
	"github.com/MrSnakeDoc/curio/internal/bookmarks"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/logger"
)

type fakeRemote struct {
	mu        sync.Mutex
	saved     map[string]bool
	failWith  error
	block     chan struct{} // when set, create/delete wait on it
	listCalls int
	mutations int
}

func newFakeRemote(ids ...string) *fakeRemote {
	f := &fakeRemote{saved: make(map[string]bool)}
	for _, id := range ids {
		f.saved[id] = true
	}
	return f
}

func (f *fakeRemote) ListBookmarks(_ context.Context) ([]domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]domain.Bookmark, 0, len(f.saved))
	for id := range f.saved {
		out = append(out, domain.Bookmark{
			ID:         "bm-" + id,
			ResourceID: id,
			Resource:   &domain.Resource{ID: id, Title: "title " + id},
		})
	}
	return out, nil
}

func (f *fakeRemote) CreateBookmark(_ context.Context, resourceID string, notes *string) (domain.Bookmark, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations++
	if f.failWith != nil {
		return domain.Bookmark{}, f.failWith
	}
	f.saved[resourceID] = true
	return domain.Bookmark{ResourceID: resourceID, Notes: notes}, nil
}

func (f *fakeRemote) DeleteBookmark(_ context.Context, resourceID string) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutations++
	if f.failWith != nil {
		return f.failWith
	}
	delete(f.saved, resourceID)
	return nil
}

func (f *fakeRemote) wait() {
	f.mu.Lock()
	ch := f.block
	f.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func (f *fakeRemote) setFail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

func newManager(t *testing.T, remote *fakeRemote) *bookmarks.Manager {
	t.Helper()
	m := bookmarks.NewManager(remote, logger.Nop())
	require.NoError(t, m.Authenticate(context.Background()))
	return m
}

func TestManager_UnauthenticatedMutatesNothing(t *testing.T) {
	remote := newFakeRemote()
	m := bookmarks.NewManager(remote, logger.Nop())

	_, err := m.Toggle(context.Background(), "r1")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.ErrorIs(t, m.Reconcile(context.Background()), apperr.ErrUnauthenticated)
	assert.False(t, m.IsBookmarked("r1"))
	assert.Equal(t, 0, remote.mutations)
}

func TestManager_AuthenticateSeedsSet(t *testing.T) {
	m := newManager(t, newFakeRemote("b", "a"))

	assert.True(t, m.Authenticated())
	assert.Equal(t, []string{"a", "b"}, m.IDs())
	assert.Equal(t, 2, m.Count())
	assert.Len(t, m.Resources(), 2)
}

func TestManager_ToggleAddsAndCommits(t *testing.T) {
	remote := newFakeRemote()
	m := newManager(t, remote)

	action, err := m.Toggle(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, bookmarks.ActionAdded, action)
	assert.True(t, m.IsBookmarked("r1"))
	assert.Equal(t, bookmarks.Committed, m.State("r1"))

	m.Wait()
	assert.Equal(t, 2, remote.listCalls, "success schedules a reconcile")
	assert.True(t, m.IsBookmarked("r1"))
}

func TestManager_ToggleTwiceRestoresMembership(t *testing.T) {
	m := newManager(t, newFakeRemote("r1"))

	a1, err := m.Toggle(context.Background(), "r1")
	require.NoError(t, err)
	a2, err := m.Toggle(context.Background(), "r1")
	require.NoError(t, err)
	m.Wait()

	assert.Equal(t, bookmarks.ActionRemoved, a1)
	assert.Equal(t, bookmarks.ActionAdded, a2)
	assert.True(t, m.IsBookmarked("r1"))
}

func TestManager_FailedToggleRollsBack(t *testing.T) {
	remote := newFakeRemote("keep")
	m := newManager(t, remote)
	remote.setFail(errors.New("connection reset"))

	_, err := m.Toggle(context.Background(), "r1")
	require.Error(t, err)
	var be *apperr.BackendError
	assert.ErrorAs(t, err, &be)
	assert.False(t, m.IsBookmarked("r1"))
	assert.Equal(t, bookmarks.RolledBack, m.State("r1"))

	_, err = m.Toggle(context.Background(), "keep")
	require.Error(t, err)
	assert.True(t, m.IsBookmarked("keep"), "removal is rolled back too")

	m.Wait()
	assert.Equal(t, 1, remote.listCalls, "failures schedule no reconcile")
}

func TestManager_UnauthenticatedFailureSignsOut(t *testing.T) {
	remote := newFakeRemote("a")
	m := newManager(t, remote)
	remote.setFail(apperr.ErrUnauthenticated)

	_, err := m.Toggle(context.Background(), "b")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.False(t, m.Authenticated())
	assert.Empty(t, m.IDs())
}

func TestManager_ReconcileKeepsPendingEntries(t *testing.T) {
	remote := newFakeRemote()
	m := newManager(t, remote)

	release := make(chan struct{})
	remote.mu.Lock()
	remote.block = release
	remote.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := m.Toggle(context.Background(), "r1")
		done <- err
	}()

	require.Eventually(t, func() bool { return m.State("r1") == bookmarks.Pending }, time.Second, 5*time.Millisecond)

	// The remote has not stored r1 yet, but the in-flight value survives.
	require.NoError(t, m.Reconcile(context.Background()))
	assert.True(t, m.IsBookmarked("r1"))

	close(release)
	require.NoError(t, <-done)
	m.Wait()
	assert.True(t, m.IsBookmarked("r1"))
	assert.Equal(t, bookmarks.Committed, m.State("r1"))
}

// steppedRemote releases one blocked create or delete per send on proceed.
type steppedRemote struct {
	*fakeRemote
	proceed chan struct{}
	waiting atomic.Int32
}

func (s *steppedRemote) CreateBookmark(ctx context.Context, resourceID string, notes *string) (domain.Bookmark, error) {
	s.waiting.Add(1)
	<-s.proceed
	return s.fakeRemote.CreateBookmark(ctx, resourceID, notes)
}

func (s *steppedRemote) DeleteBookmark(ctx context.Context, resourceID string) error {
	s.waiting.Add(1)
	<-s.proceed
	return s.fakeRemote.DeleteBookmark(ctx, resourceID)
}

func TestManager_OverlappingTogglesStayPendingUntilLastReturns(t *testing.T) {
	remote := &steppedRemote{fakeRemote: newFakeRemote(), proceed: make(chan struct{})}
	m := bookmarks.NewManager(remote, logger.Nop())
	require.NoError(t, m.Authenticate(context.Background()))

	done := make(chan error, 2)
	toggle := func() {
		_, err := m.Toggle(context.Background(), "r1")
		done <- err
	}

	go toggle() // add
	require.Eventually(t, func() bool { return remote.waiting.Load() == 1 }, time.Second, 5*time.Millisecond)
	go toggle() // remove
	require.Eventually(t, func() bool { return remote.waiting.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.False(t, m.IsBookmarked("r1"))

	remote.proceed <- struct{}{}
	require.NoError(t, <-done)
	assert.Equal(t, bookmarks.Pending, m.State("r1"), "a call on r1 is still running")

	// Whichever call landed, the last local patch survives a refetch.
	require.NoError(t, m.Reconcile(context.Background()))
	assert.False(t, m.IsBookmarked("r1"))

	remote.proceed <- struct{}{}
	require.NoError(t, <-done)
	m.Wait()
	assert.Equal(t, bookmarks.Committed, m.State("r1"))
}

func TestManager_SignOutClears(t *testing.T) {
	m := newManager(t, newFakeRemote("a", "b"))

	m.SignOut()

	assert.False(t, m.Authenticated())
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, bookmarks.Idle, m.State("a"))
	assert.Empty(t, m.Resources())
}

func TestManager_ToggleRequiresID(t *testing.T) {
	m := newManager(t, newFakeRemote())

	_, err := m.Toggle(context.Background(), "  ")
	var ve *apperr.ValidationError
	assert.ErrorAs(t, err, &ve)
}
