package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/curio/internal/auth"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/logger"
	pgstore "github.com/MrSnakeDoc/curio/internal/store/postgres"
)

// ResourceService is the cached catalog read path.
type ResourceService interface {
	FetchResources(ctx context.Context, q domain.Query) ([]domain.Resource, error)
	FetchFacetOptions(ctx context.Context) (domain.FacetOptions, error)
	FetchPreview(ctx context.Context) ([]domain.Resource, error)
	Invalidate(ctx context.Context, tags ...string) (int, error)
	Ping(ctx context.Context) error
}

// BookmarkStore persists bookmarks per user.
type BookmarkStore interface {
	List(ctx context.Context, userID string) ([]domain.Bookmark, error)
	Upsert(ctx context.Context, userID, resourceID string, notes *string) (domain.Bookmark, error)
	Delete(ctx context.Context, userID, resourceID string) (bool, error)
}

// Database exposes connectivity and schema checks.
type Database interface {
	Check(ctx context.Context) error
	Verify(ctx context.Context) (pgstore.Report, error)
}

type Deps struct {
	Logger           logger.Logger
	StartTime        time.Time
	Version          string
	Commit           string
	BuildDate        string
	GoVersion        string
	TimeNow          func() time.Time // for testing, defaults to time.Now
	AllowedHosts     []string         // Host headers allowed to access the server
	AllowedCIDRS     []string         // IPs allowed to access readyz/infra/metrics
	AllowedOrigins   []string         // CORS origins, "*" for any
	TrustProxy       bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	Resources        ResourceService  // Cached catalog reads
	Bookmarks        BookmarkStore    // Bookmark persistence
	Database         Database         // Postgres health and schema report
	Tokens           *auth.Verifier   // Access token verification
	CacheMode        string           // "redis" or "memory"
	RevalidateSecret string           // Shared secret of POST /api/revalidate, empty disables it
	AdminEmail       string           // Email allowed to call admin endpoints
	RateLimitRPS     float64          // Sustained requests per second per client on /api
	RateLimitBurst   int              // Burst size per client on /api
	WarmTrigger      chan struct{}    // Channel to trigger a cache warm after revalidation (may be nil)
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
