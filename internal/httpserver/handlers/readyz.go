package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/curio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/curio/internal/httpserver/respond"
	"github.com/MrSnakeDoc/curio/internal/logger"
)

const probeTimeout = time.Second

type readyzResponse struct {
	Ready    bool `json:"ready"`
	Database bool `json:"database"`
	Cache    bool `json:"cache"`
}

// Readyz is ready when both Postgres and the response cache answer.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		resp := readyzResponse{
			Database: probe(ctx, d, "database", d.Database.Check),
			Cache:    probe(ctx, d, "cache", d.Resources.Ping),
		}
		resp.Ready = resp.Database && resp.Cache

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Cache-Control", "no-store")
		respond.JSON(w, status, resp)
	}
}

func probe(ctx context.Context, d deps.Deps, name string, check func(context.Context) error) bool {
	if err := check(ctx); err != nil {
		d.Logger.Warn("readiness probe failed", logger.String("component", name), logger.Error(err))
		return false
	}
	return true
}
