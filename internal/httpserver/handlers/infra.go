package handlers

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/curio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/curio/internal/httpserver/respond"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		components := map[string]componentStatus{
			"postgres":     checkComponent(ctx, d.Database.Check, "primary", "catalog-unavailable"),
			"cache":        checkComponent(ctx, d.Resources.Ping, d.CacheMode, "every-request-hits-postgres"),
			"auth":         configured(d.Tokens != nil, "jwt-hs256", "bookmarks-disabled"),
			"revalidation": configured(d.RevalidateSecret != "", "shared-secret", "webhook-disabled"),
			"admin":        configured(d.AdminEmail != "", "email", "admin-refresh-disabled"),
		}

		w.Header().Set("Cache-Control", "no-store")
		respond.JSON(w, http.StatusOK, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

// overallStatus is "critical" without Postgres, "degraded" when the cache
// is down and "operational" otherwise.
func overallStatus(components map[string]componentStatus) string {
	if pg, ok := components["postgres"]; ok && !pg.OK {
		return "critical"
	}
	if c, ok := components["cache"]; ok && !c.OK {
		return "degraded"
	}
	return "operational"
}

func checkComponent(ctx context.Context, check func(context.Context) error, mode, impact string) componentStatus {
	if err := check(ctx); err != nil {
		return componentStatus{OK: false, Mode: mode, Impact: impact, Error: err.Error()}
	}
	return componentStatus{OK: true, Mode: mode}
}

func configured(ok bool, mode, impact string) componentStatus {
	if !ok {
		return componentStatus{OK: false, Impact: impact, Error: "not configured"}
	}
	return componentStatus{OK: true, Mode: mode}
}
