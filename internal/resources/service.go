// Package resources serves the catalog: it reads from the store, applies the
// filter/sort engine and keeps results in a tag-invalidated cache.
package resources

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/MrSnakeDoc/curio/internal/apperr"
	"github.com/MrSnakeDoc/curio/internal/catalog"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/logger"
	"github.com/MrSnakeDoc/curio/internal/metrics"
)

// Cache tags. Revalidation requests name them.
const (
	TagResources       = "resources"
	TagResourceOptions = "resource-options"
	TagPreview         = "sneak-peek-content"
)

// AllTags lists every tag the service writes.
var AllTags = []string{TagResources, TagResourceOptions, TagPreview}

// MaxSearchLength caps the free-text query, in runes.
const MaxSearchLength = 500

const (
	keyResources = "resources:"
	keyOptions   = "resource-options"
	keyPreview   = "sneak-peek-content"
)

// Store is the read side of the catalog database.
type Store interface {
	ListResources(ctx context.Context, pushdown domain.FilterOptions) ([]domain.Resource, error)
	ListPreview(ctx context.Context) ([]domain.Resource, error)
	FacetRows(ctx context.Context) ([]catalog.FacetRow, error)
}

// Cache is a tag-invalidated key/value cache. index.MemoryIndex and the
// Redis store both satisfy it.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error
	InvalidateTags(ctx context.Context, tags ...string) (int, error)
	Ping(ctx context.Context) error
}

type Options struct {
	// TTL is the freshness window of every cached response.
	TTL time.Duration
	// Pushdown lets the database pre-filter difficulty, content type and
	// categories. The engine re-applies every filter either way.
	Pushdown bool
}

type Service struct {
	store Store
	cache Cache
	opts  Options
	log   logger.Logger

	// epoch is bumped on every invalidation; a fetch that started before
	// the bump does not write its result back.
	epoch atomic.Uint64
}

func NewService(store Store, cache Cache, opts Options, log logger.Logger) *Service {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, cache: cache, opts: opts, log: log}
}

// SanitizeQuery trims the search text and caps it at MaxSearchLength runes.
// Missing sort parameters take their defaults.
func SanitizeQuery(q domain.Query) domain.Query {
	q.Search = strings.TrimSpace(q.Search)
	if utf8.RuneCountInString(q.Search) > MaxSearchLength {
		q.Search = string([]rune(q.Search)[:MaxSearchLength])
	}
	if q.SortBy == "" {
		q.SortBy = domain.DefaultSortKey
	}
	if q.SortOrder == "" {
		q.SortOrder = domain.DefaultSortOrder
	}
	q.Filters = q.Filters.Normalized()
	return q
}

// FetchResources returns the resources matching q in the requested order.
func (s *Service) FetchResources(ctx context.Context, q domain.Query) ([]domain.Resource, error) {
	q = SanitizeQuery(q)
	key := keyResources + q.CacheKey()

	var cached []domain.Resource
	if s.lookup(ctx, TagResources, key, &cached) {
		return cached, nil
	}

	epoch := s.epoch.Load()
	var pushdown domain.FilterOptions
	if s.opts.Pushdown {
		pushdown = q.Filters
	}
	rows, err := s.store.ListResources(ctx, pushdown)
	if err != nil {
		return nil, apperr.Backend("list resources", err)
	}

	out := catalog.ApplyQuery(rows, q)
	s.remember(ctx, epoch, key, out, TagResources)
	return out, nil
}

// FetchFacetOptions returns every selectable facet value, de-duplicated and
// sorted.
func (s *Service) FetchFacetOptions(ctx context.Context) (domain.FacetOptions, error) {
	var cached domain.FacetOptions
	if s.lookup(ctx, TagResourceOptions, keyOptions, &cached) {
		return cached, nil
	}

	epoch := s.epoch.Load()
	rows, err := s.store.FacetRows(ctx)
	if err != nil {
		return domain.FacetOptions{}, apperr.Backend("list facet options", err)
	}

	opts := catalog.DeriveFacetOptions(rows)
	s.remember(ctx, epoch, keyOptions, opts, TagResourceOptions)
	return opts, nil
}

// FetchPreview returns the preview content, newest first. A missing or
// unreadable preview table yields an empty list.
func (s *Service) FetchPreview(ctx context.Context) ([]domain.Resource, error) {
	var cached []domain.Resource
	if s.lookup(ctx, TagPreview, keyPreview, &cached) {
		return cached, nil
	}

	epoch := s.epoch.Load()
	rows, err := s.store.ListPreview(ctx)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		s.log.Warn("preview content unavailable", logger.Error(err))
		rows = []domain.Resource{}
	case err != nil:
		return nil, apperr.Backend("list preview", err)
	case rows == nil:
		rows = []domain.Resource{}
	}

	s.remember(ctx, epoch, keyPreview, rows, TagPreview)
	return rows, nil
}

// Invalidate drops every cached response carrying one of tags and returns
// how many entries went away.
func (s *Service) Invalidate(ctx context.Context, tags ...string) (int, error) {
	s.epoch.Add(1)
	removed, err := s.cache.InvalidateTags(ctx, tags...)
	if err != nil {
		return removed, apperr.Backend("invalidate cache", err)
	}
	for _, t := range tags {
		metrics.CacheInvalidationsTotal.WithLabelValues(t).Inc()
	}
	s.log.Info("cache invalidated", logger.Strings("tags", tags), logger.Int("removed", removed))
	return removed, nil
}

// Warm repopulates the default catalog view, the facet options and the
// preview list.
func (s *Service) Warm(ctx context.Context) error {
	start := time.Now()
	_, errResources := s.FetchResources(ctx, domain.Query{})
	_, errOptions := s.FetchFacetOptions(ctx)
	_, errPreview := s.FetchPreview(ctx)

	if err := errors.Join(errResources, errOptions, errPreview); err != nil {
		return err
	}
	s.log.Debug("cache warmed", logger.Duration("took", time.Since(start)))
	return nil
}

// Ping checks the cache backend.
func (s *Service) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

// lookup reads key into dst. Cache failures are logged and treated as a miss.
func (s *Service) lookup(ctx context.Context, tag, key string, dst any) bool {
	hit, err := s.cache.Get(ctx, key, dst)
	metrics.ObserveCache(tag, hit, err)
	if err != nil {
		s.log.Warn("cache read failed", logger.String("key", key), logger.Error(err))
		return false
	}
	return hit
}

func (s *Service) remember(ctx context.Context, epoch uint64, key string, value any, tags ...string) {
	if s.epoch.Load() != epoch {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.opts.TTL, tags...); err != nil {
		s.log.Warn("cache write failed", logger.String("key", key), logger.Error(err))
	}
}
