package tui

import (
	"context"
	"strings"

	"github.com/MrSnakeDoc/curio/internal/bookmarks"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/logger"
	"github.com/MrSnakeDoc/curio/internal/search"
)

// Backend is the part of the API client the terminal UI talks to.
// *client.Client implements it.
type Backend interface {
	bookmarks.Remote
	FetchResources(ctx context.Context, query string, filters domain.FilterOptions,
		sortBy domain.SortKey, sortOrder domain.SortOrder) ([]domain.Resource, error)
	SetToken(token string)
	Invalidate()
}

// Session owns everything tied to one signed-in user: the backend, the
// bookmark manager and the search overlay. Signing out tears the user
// specific parts down.
//
// Apart from Bookmarks, a Session is only touched from the bubbletea
// update loop.
type Session struct {
	Backend   Backend
	Bookmarks *bookmarks.Manager
	Overlay   *search.Overlay

	log     logger.Logger
	catalog []domain.Resource
}

func NewSession(b Backend, log logger.Logger) *Session {
	s := &Session{
		Backend:   b,
		Bookmarks: bookmarks.NewManager(b, logger.Named(log, "bookmarks")),
		log:       log,
	}
	s.Overlay = search.NewOverlay(s.Catalog, s.Bookmarks.Resources)
	return s
}

// Catalog returns the last listing loaded into the session.
func (s *Session) Catalog() []domain.Resource {
	return s.catalog
}

// SetCatalog replaces the listing the overlay searches.
func (s *Session) SetCatalog(list []domain.Resource) {
	s.catalog = list
	if s.Overlay.IsOpen() {
		s.Overlay.Refresh()
	}
}

// SignIn installs token and loads the user's bookmarks. On failure the
// session stays signed out.
func (s *Session) SignIn(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		s.SignOut()
		return nil
	}
	s.Backend.SetToken(token)
	if err := s.Bookmarks.Authenticate(ctx); err != nil {
		s.Backend.SetToken("")
		return err
	}
	return nil
}

// SignOut drops the token and every bookmark-derived value. A bookmarks
// scoped overlay falls back to the catalog.
func (s *Session) SignOut() {
	s.Backend.SetToken("")
	s.Bookmarks.SignOut()
	if s.Overlay.Scope() == search.ScopeBookmarks {
		s.Overlay.SetScope(search.ScopeCatalog)
	}
}

// Close waits for background bookmark reconciles to finish.
func (s *Session) Close() {
	s.Bookmarks.Wait()
}
