package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/curio/internal/apperr"
	"github.com/MrSnakeDoc/curio/internal/auth"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/httpserver"
	"github.com/MrSnakeDoc/curio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/curio/internal/logger"
	pgstore "github.com/MrSnakeDoc/curio/internal/store/postgres"
)

const (
	jwtSecret  = "handler-secret"
	adminEmail = "admin@example.com"
)

type fakeResources struct {
	mu          sync.Mutex
	lastQuery   domain.Query
	list        []domain.Resource
	err         error
	invalidated []string
	pingErr     error
}

func (f *fakeResources) FetchResources(_ context.Context, q domain.Query) ([]domain.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	return f.list, f.err
}

func (f *fakeResources) FetchFacetOptions(context.Context) (domain.FacetOptions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return domain.FacetOptions{Topics: []string{"Go"}, Difficulties: []string{"Beginner"}}, f.err
}

func (f *fakeResources) FetchPreview(context.Context) ([]domain.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return nil, f.err
}

func (f *fakeResources) Invalidate(_ context.Context, tags ...string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, tags...)
	return len(tags), nil
}

func (f *fakeResources) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeResources) set(fn func(*fakeResources)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeResources) query() domain.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastQuery
}

func (f *fakeResources) tags() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.invalidated...)
}

type fakeBookmarks struct {
	mu    sync.Mutex
	items map[string][]domain.Bookmark
}

func (f *fakeBookmarks) List(_ context.Context, userID string) ([]domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[userID], nil
}

func (f *fakeBookmarks) Upsert(_ context.Context, userID, resourceID string, notes *string) (domain.Bookmark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if resourceID == "missing" {
		return domain.Bookmark{}, apperr.NewValidation("unknown resource")
	}
	bm := domain.Bookmark{ID: "b-" + resourceID, UserID: userID, ResourceID: resourceID, Notes: notes}
	f.items[userID] = append(f.items[userID], bm)
	return bm, nil
}

func (f *fakeBookmarks) Delete(_ context.Context, userID, resourceID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, bm := range f.items[userID] {
		if bm.ResourceID == resourceID {
			f.items[userID] = append(f.items[userID][:i], f.items[userID][i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type fakeDB struct {
	checkErr error
}

func (f fakeDB) Check(context.Context) error { return f.checkErr }

func (f fakeDB) Verify(context.Context) (pgstore.Report, error) {
	return pgstore.Report{Connected: true, TableExists: true, ColumnCount: 3, RowCount: 7,
		SampleColumns: []string{"id", "title", "url"}}, nil
}

type fixture struct {
	server    *httptest.Server
	resources *fakeResources
	bookmarks *fakeBookmarks
	warm      chan struct{}
}

func newFixture(t *testing.T, mutate ...func(*deps.Deps)) *fixture {
	t.Helper()
	f := &fixture{
		resources: &fakeResources{},
		bookmarks: &fakeBookmarks{items: map[string][]domain.Bookmark{}},
		warm:      make(chan struct{}, 1),
	}
	d := deps.Deps{
		Logger:           logger.Nop(),
		StartTime:        time.Now(),
		Version:          "test",
		AllowedOrigins:   []string{"https://curio.example.com"},
		Resources:        f.resources,
		Bookmarks:        f.bookmarks,
		Database:         fakeDB{},
		Tokens:           auth.NewVerifier(jwtSecret),
		CacheMode:        "memory",
		RevalidateSecret: "s3cret",
		AdminEmail:       adminEmail,
		RateLimitRPS:     1000,
		RateLimitBurst:   1000,
		WarmTrigger:      f.warm,
	}
	for _, m := range mutate {
		m(&d)
	}
	f.server = httptest.NewServer(httpserver.NewRouter(d.Logger, d))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	obj, _ := decoded.(map[string]any)
	return resp, obj
}

func token(t *testing.T, userID, email string) string {
	t.Helper()
	tok, err := auth.Issue(jwtSecret, auth.Principal{UserID: userID, Email: email}, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Empty(t, resp.Header.Get("X-Ratelimit-Limit"), "probes are not rate limited")
}

func TestReadyz(t *testing.T) {
	f := newFixture(t)
	resp, body := f.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ready"])

	f = newFixture(t, func(d *deps.Deps) { d.Database = fakeDB{checkErr: errors.New("down")} })
	resp, body = f.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, false, body["database"])
	assert.Equal(t, true, body["cache"])
}

func TestInfra(t *testing.T) {
	f := newFixture(t)
	f.resources.set(func(r *fakeResources) { r.pingErr = errors.New("redis timeout") })

	resp, body := f.do(t, http.MethodGet, "/infra", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "degraded", body["status"])
}

func TestProbes_CIDRRestricted(t *testing.T) {
	f := newFixture(t, func(d *deps.Deps) { d.AllowedCIDRS = []string{"10.0.0.0/8"} })

	resp, _ := f.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "liveness stays public")
}

func TestResources_ParsesQuery(t *testing.T) {
	f := newFixture(t)
	f.resources.set(func(r *fakeResources) { r.list = []domain.Resource{{ID: "1", Title: "Go", URL: "u"}} })

	resp, _ := f.do(t, http.MethodGet,
		"/api/resources?search=go&topics=Go,%20CSS&difficulty=Beginner&difficulty=Advanced&sortBy=rating&sortOrder=asc", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	q := f.resources.query()
	assert.Equal(t, "go", q.Search)
	assert.Equal(t, []string{"Go", "CSS"}, q.Filters.Topics)
	assert.Equal(t, []string{"Beginner", "Advanced"}, q.Filters.Difficulty)
	assert.Equal(t, domain.SortByRating, q.SortBy)
	assert.Equal(t, domain.SortAsc, q.SortOrder)
}

func TestResources_Errors(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/resources?sortBy=popularity", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "popularity")

	f.resources.set(func(r *fakeResources) {
		r.err = &apperr.BackendError{Op: "list resources", Err: errors.New("boom")}
	})
	resp, body = f.do(t, http.MethodGet, "/api/resources", "", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", body["error"], "backend details are not leaked")
}

func TestResources_EmptyListIsArray(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/api/resources", "/api/sneak-peek"} {
		resp, err := http.Get(f.server.URL + path)
		require.NoError(t, err)
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		resp.Body.Close()
		assert.JSONEq(t, `[]`, string(raw), path)
	}
}

func TestResourceOptions(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/resource-options", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"Go"}, body["topics"])
	assert.Equal(t, []any{"Beginner"}, body["difficulties"])
}

func TestVerify(t *testing.T) {
	f := newFixture(t)

	resp, body := f.do(t, http.MethodGet, "/api/verify", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	data, _ := body["data"].(map[string]any)
	assert.EqualValues(t, 7, data["rowCount"])
	assert.NotEmpty(t, body["missingColumns"])
}

func TestBookmarks_RequireAuth(t *testing.T) {
	f := newFixture(t)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		resp, body := f.do(t, method, "/api/bookmarks", "", "")
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, method)
		assert.Equal(t, "Unauthorized", body["error"])
	}

	resp, _ := f.do(t, http.MethodGet, "/api/bookmarks", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestBookmarks_Lifecycle(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "user-1", "u@example.com")

	resp, body := f.do(t, http.MethodPost, "/api/bookmarks", tok, `{"resource_id":"r1","notes":"later"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	bm, _ := body["bookmark"].(map[string]any)
	assert.Equal(t, "r1", bm["resource_id"])
	assert.Equal(t, "user-1", bm["user_id"])

	resp, body = f.do(t, http.MethodGet, "/api/bookmarks", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["bookmarks"], 1)

	resp, body = f.do(t, http.MethodDelete, "/api/bookmarks?resource_id=r1", tok, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, body = f.do(t, http.MethodDelete, "/api/bookmarks?resource_id=r1", tok, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "deleting twice still succeeds")
	assert.Equal(t, true, body["success"])

	resp, body = f.do(t, http.MethodGet, "/api/bookmarks", tok, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{}, body["bookmarks"])
}

func TestBookmarks_Validation(t *testing.T) {
	f := newFixture(t)
	tok := token(t, "user-1", "")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"create without id", http.MethodPost, "/api/bookmarks", `{"notes":"x"}`},
		{"create with empty body", http.MethodPost, "/api/bookmarks", ""},
		{"create with malformed body", http.MethodPost, "/api/bookmarks", `{"resource_id":`},
		{"create unknown resource", http.MethodPost, "/api/bookmarks", `{"resource_id":"missing"}`},
		{"delete without id", http.MethodDelete, "/api/bookmarks", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(t, tt.method, tt.path, tok, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRevalidate(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/api/revalidate?secret=wrong&tags=resources", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/revalidate?secret=s3cret", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/api/revalidate?secret=s3cret&tags=resources,%20resource-options", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["revalidated"])
	assert.Equal(t, []any{"resources", "resource-options"}, body["tags"])
	assert.NotZero(t, body["now"])
	assert.Equal(t, []string{"resources", "resource-options"}, f.resources.tags())

	select {
	case <-f.warm:
	default:
		t.Error("revalidation did not trigger a cache warm")
	}
}

func TestRevalidate_NotConfigured(t *testing.T) {
	f := newFixture(t, func(d *deps.Deps) { d.RevalidateSecret = "" })

	resp, _ := f.do(t, http.MethodPost, "/api/revalidate?secret=&tags=resources", "", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestAdminRefresh(t *testing.T) {
	f := newFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/api/admin/refresh", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodPost, "/api/admin/refresh", token(t, "u", "someone@example.com"), "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, f.resources.tags())

	resp, body := f.do(t, http.MethodPost, "/api/admin/refresh", token(t, "u", "ADMIN@example.com"), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.ElementsMatch(t, []string{"resources", "resource-options", "sneak-peek-content"}, f.resources.tags())
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, func(d *deps.Deps) {
		d.RateLimitRPS = 0.001
		d.RateLimitBurst = 2
	})

	for i := 0; i < 2; i++ {
		resp, _ := f.do(t, http.MethodGet, "/api/resource-options", "", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := f.do(t, http.MethodGet, "/api/resource-options", "", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.NotEmpty(t, body["error"])

	resp, _ = f.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "probes are outside the limiter")
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequest(http.MethodOptions, f.server.URL+"/api/bookmarks", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://curio.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://curio.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	_, _ = f.do(t, http.MethodGet, "/api/resource-options", "", "")

	// The counter is bumped after the response is flushed.
	want := `curio_http_requests_total{method="GET",route="/api/resource-options",status="200"}`
	assert.Eventually(t, func() bool {
		resp, err := http.Get(f.server.URL + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && strings.Contains(string(raw), want)
	}, 2*time.Second, 20*time.Millisecond)
}
