package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/curio/internal/auth"
	"github.com/MrSnakeDoc/curio/internal/config"
	"github.com/MrSnakeDoc/curio/internal/httpserver"
	"github.com/MrSnakeDoc/curio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/curio/internal/index"
	"github.com/MrSnakeDoc/curio/internal/logger"
	"github.com/MrSnakeDoc/curio/internal/redis"
	"github.com/MrSnakeDoc/curio/internal/resources"
	"github.com/MrSnakeDoc/curio/internal/scheduler"
	pgstore "github.com/MrSnakeDoc/curio/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/curio/internal/store/redis"
	"github.com/MrSnakeDoc/curio/internal/version"
)

const (
	cacheModeRedis  = "redis"
	cacheModeMemory = "memory"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	pool        *pgstore.ConnectionPool
	redisClient *goredis.Client
	warmer      *scheduler.CacheWarmer
	sweeper     *scheduler.CacheSweeper
}

// database joins the health checker and the schema report behind
// deps.Database.
type database struct {
	*pgstore.HealthChecker
	*pgstore.Reader
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Postgres early - fail fast if unavailable
	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.DBConnectTimeout)
	defer cancel()
	pool, err := pgstore.NewConnectionPool(connectCtx, pgstore.PoolConfig{
		ConnStr:  cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	loggerClient.Info("Postgres initialized successfully")

	reader := pgstore.NewReader(pool)

	cache, redisClient, mode, err := newCache(cfg, loggerClient)
	if err != nil {
		pool.Close()
		return nil, err
	}

	service := resources.NewService(reader, cache, resources.Options{
		TTL:      cfg.CacheTTL,
		Pushdown: cfg.PushdownFilters,
	}, logger.Named(loggerClient, "resources"))

	// Create revalidation warm trigger channel
	warmTrigger := make(chan struct{}, 1)
	warmer := scheduler.NewCacheWarmer(service, loggerClient, cfg.WarmInterval, warmTrigger)

	var sweeper *scheduler.CacheSweeper
	if mem, ok := cache.(*index.MemoryIndex); ok {
		sweeper = scheduler.NewCacheSweeper(mem, loggerClient, cfg.CacheSweepInterval)
	}

	if cfg.RevalidateSecret == "" {
		loggerClient.Warn("CURIO_REVALIDATE_SECRET not set, /api/revalidate will refuse every call")
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:           loggerClient,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedHosts:     cfg.AllowedHosts,
		AllowedCIDRS:     cfg.AllowedCIDRS,
		AllowedOrigins:   cfg.AllowedOrigins,
		TrustProxy:       cfg.TrustProxy,
		Resources:        service,
		Bookmarks:        pgstore.NewBookmarkStore(pool),
		Database:         database{HealthChecker: pgstore.NewHealthChecker(pool), Reader: reader},
		Tokens:           auth.NewVerifier(cfg.JWTSecret),
		CacheMode:        mode,
		RevalidateSecret: cfg.RevalidateSecret,
		AdminEmail:       cfg.AdminEmail,
		RateLimitRPS:     cfg.RateLimitRPS,
		RateLimitBurst:   cfg.RateLimitBurst,
		WarmTrigger:      warmTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		pool:        pool,
		redisClient: redisClient,
		warmer:      warmer,
		sweeper:     sweeper,
	}, nil
}

// newCache connects to Redis when an address is configured and falls back
// to the in-process index otherwise.
func newCache(cfg *config.Config, log logger.Logger) (resources.Cache, *goredis.Client, string, error) {
	if cfg.RedisAddr == "" {
		log.Info("CURIO_REDIS_ADDR not set, using in-memory cache")
		return index.NewMemoryIndex(), nil, cacheModeMemory, nil
	}

	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.New(context.Background(), redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, log)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis initialized successfully")
	return redisstore.NewStore(client), client, cacheModeRedis, nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting curio v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("curio %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start cache warmer (warms once, then on interval and on revalidation)
	if err := a.warmer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start cache warmer: %w", err)
	}
	a.logger.Info("cache warmer started",
		logger.Duration("interval", a.cfg.WarmInterval))

	// Start memory cache sweeper (memory mode only)
	if a.sweeper != nil {
		if err := a.sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start cache sweeper: %w", err)
		}
		a.logger.Info("cache sweeper started",
			logger.Duration("interval", a.cfg.CacheSweepInterval))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	a.warmer.Stop()
	if a.sweeper != nil {
		a.sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.pool.Close()
	a.logger.Info("✅ Postgres pool closed")

	if runErr != nil {
		return runErr
	}
	a.logger.Info("✅ curio stopped cleanly")
	return nil
}
