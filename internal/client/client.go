// Package client talks to the curio HTTP API. Catalog reads are cached in
// memory for a freshness window; bookmark calls always hit the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/curio/internal/apperr"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/logger"
	"github.com/MrSnakeDoc/curio/internal/utils"
)

const (
	// DefaultFreshFor is how long a cached catalog response is served
	// without asking the server again.
	DefaultFreshFor = 12 * time.Hour

	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 16 << 20
)

// Query parameter names understood by GET /api/resources.
const (
	paramSearch           = "search"
	paramTopics           = "topics"
	paramTagCategories    = "tagCategories"
	paramTagSubcategories = "tagSubcategories"
	paramDifficulty       = "difficulty"
	paramContentType      = "content_type"
	paramSortBy           = "sortBy"
	paramSortOrder        = "sortOrder"
	paramResourceID       = "resource_id"
)

type Options struct {
	// BaseURL is the server root, e.g. "http://localhost:8080".
	BaseURL string

	// Token is a bearer JWT. Bookmark calls fail with
	// apperr.ErrUnauthenticated while it is empty.
	Token string

	// HTTPClient defaults to a client with a 15s timeout.
	HTTPClient *http.Client

	// FreshFor defaults to DefaultFreshFor. A negative value disables the
	// cache.
	FreshFor time.Duration

	Logger logger.Logger
	Now    func() time.Time
}

type cachedBody struct {
	body      []byte
	fetchedAt time.Time
}

type Client struct {
	baseURL  string
	http     *http.Client
	log      logger.Logger
	freshFor time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	token string
	cache map[string]cachedBody
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("client: invalid base URL %q", opts.BaseURL)
	}

	c := &Client{
		baseURL:  base,
		http:     opts.HTTPClient,
		log:      opts.Logger,
		freshFor: opts.FreshFor,
		now:      opts.Now,
		token:    opts.Token,
		cache:    make(map[string]cachedBody),
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	if c.freshFor == 0 {
		c.freshFor = DefaultFreshFor
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// SetToken replaces the bearer token. An empty token signs the client out.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Invalidate drops every cached catalog response.
func (c *Client) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]cachedBody)
}

// FetchResources returns the resources matching query and filters, ordered
// by sortBy and sortOrder. Empty sort values use the server defaults.
func (c *Client) FetchResources(ctx context.Context, query string, filters domain.FilterOptions,
	sortBy domain.SortKey, sortOrder domain.SortOrder) ([]domain.Resource, error) {
	var out []domain.Resource
	if err := c.getCached(ctx, "/api/resources", resourceParams(query, filters, sortBy, sortOrder), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FetchFacetOptions(ctx context.Context) (domain.FacetOptions, error) {
	var out domain.FacetOptions
	err := c.getCached(ctx, "/api/resource-options", nil, &out)
	return out, err
}

func (c *Client) FetchPreview(ctx context.Context) ([]domain.Resource, error) {
	var out []domain.Resource
	if err := c.getCached(ctx, "/api/sneak-peek", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListBookmarks(ctx context.Context) ([]domain.Bookmark, error) {
	var out struct {
		Bookmarks []domain.Bookmark `json:"bookmarks"`
	}
	if err := c.authed(ctx, http.MethodGet, "/api/bookmarks", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Bookmarks, nil
}

func (c *Client) CreateBookmark(ctx context.Context, resourceID string, notes *string) (domain.Bookmark, error) {
	var out struct {
		Bookmark domain.Bookmark `json:"bookmark"`
	}
	req := domain.CreateBookmarkRequest{ResourceID: resourceID, Notes: notes}
	if err := c.authed(ctx, http.MethodPost, "/api/bookmarks", nil, req, &out); err != nil {
		return domain.Bookmark{}, err
	}
	return out.Bookmark, nil
}

func (c *Client) DeleteBookmark(ctx context.Context, resourceID string) error {
	params := url.Values{paramResourceID: {resourceID}}
	return c.authed(ctx, http.MethodDelete, "/api/bookmarks", params, nil, nil)
}

func resourceParams(query string, f domain.FilterOptions, sortBy domain.SortKey, sortOrder domain.SortOrder) url.Values {
	v := url.Values{}
	if q := strings.TrimSpace(query); q != "" {
		v.Set(paramSearch, q)
	}
	f = f.Normalized()
	for name, values := range map[string][]string{
		paramTopics:           f.Topics,
		paramTagCategories:    f.TagCategories,
		paramTagSubcategories: f.TagSubcategories,
		paramDifficulty:       f.Difficulty,
		paramContentType:      f.ContentType,
	} {
		if len(values) > 0 {
			v.Set(name, strings.Join(values, ","))
		}
	}
	if sortBy != "" {
		v.Set(paramSortBy, string(sortBy))
	}
	if sortOrder != "" {
		v.Set(paramSortOrder, string(sortOrder))
	}
	return v
}

func (c *Client) getCached(ctx context.Context, path string, params url.Values, dst any) error {
	key := path
	if len(params) > 0 {
		key += "?" + params.Encode()
	}

	if c.freshFor > 0 {
		c.mu.RLock()
		hit, ok := c.cache[key]
		c.mu.RUnlock()
		if ok && c.now().Sub(hit.fetchedAt) < c.freshFor {
			if err := json.Unmarshal(hit.body, dst); err == nil {
				return nil
			}
		}
	}

	body, err := c.do(ctx, http.MethodGet, path, params, nil, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Backend("decode "+path, err)
	}

	if c.freshFor > 0 {
		c.mu.Lock()
		c.cache[key] = cachedBody{body: body, fetchedAt: c.now()}
		c.mu.Unlock()
	}
	return nil
}

func (c *Client) authed(ctx context.Context, method, path string, params url.Values, in, dst any) error {
	token := c.bearer()
	if token == "" {
		return apperr.ErrUnauthenticated
	}
	body, err := c.do(ctx, method, path, params, in, token)
	if err != nil {
		return err
	}
	if dst == nil {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Backend("decode "+path, err)
	}
	return nil
}

// do sends one request and returns the body of a 2xx response. Other
// statuses are mapped back onto the apperr taxonomy.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, in any, token string) ([]byte, error) {
	op := method + " " + path

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reqBody io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Backend(op, err)
	}
	defer utils.DrainAndClose(resp.Body, c.log)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, apperr.Backend(op, fmt.Errorf("read body: %w", err))
	}

	c.log.Debug("api call",
		logger.String("op", op),
		logger.Int("status", resp.StatusCode),
		logger.Duration("took", c.now().Sub(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(op, resp.StatusCode, body)
	}
	return body, nil
}

func statusError(op string, status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(status)
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	if status == http.StatusTooManyRequests {
		return &apperr.BackendError{Op: op, Err: errors.New(msg)}
	}
	return apperr.FromStatus(status, msg)
}
