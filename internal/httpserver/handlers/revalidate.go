package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/curio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/curio/internal/httpserver/respond"
	"github.com/MrSnakeDoc/curio/internal/logger"
	"github.com/MrSnakeDoc/curio/internal/metrics"
	"github.com/MrSnakeDoc/curio/internal/resources"
)

type revalidateResponse struct {
	Revalidated bool     `json:"revalidated"`
	Tags        []string `json:"tags"`
	Removed     int      `json:"removed"`
	Now         int64    `json:"now"`
}

type refreshResponse struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Tags      []string  `json:"tags"`
	Timestamp time.Time `json:"timestamp"`
}

// Revalidate drops the cache entries of the requested tags. It is meant to
// be called by a database webhook holding the shared secret.
func Revalidate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.RevalidateSecret == "" {
			respond.Message(w, http.StatusInternalServerError,
				"Revalidation not configured. Set CURIO_REVALIDATE_SECRET in environment variables.")
			return
		}

		q := r.URL.Query()
		if subtle.ConstantTimeCompare([]byte(q.Get("secret")), []byte(d.RevalidateSecret)) != 1 {
			d.Logger.Warn("revalidation with invalid secret", logger.String("remote_ip", r.RemoteAddr))
			respond.Message(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		tags := splitList(q["tags"])
		if len(tags) == 0 {
			respond.Message(w, http.StatusBadRequest,
				"No tags provided. Use ?tags="+resources.TagResources+","+resources.TagResourceOptions+","+resources.TagPreview)
			return
		}

		removed, err := d.Resources.Invalidate(r.Context(), tags...)
		if err != nil {
			respond.Error(w, r, d.Logger, err)
			return
		}
		metrics.RevalidationsTotal.WithLabelValues("webhook").Inc()
		triggerWarm(d, r)

		respond.JSON(w, http.StatusOK, revalidateResponse{
			Revalidated: true,
			Tags:        tags,
			Removed:     removed,
			Now:         d.Now().UnixMilli(),
		})
	}
}

// AdminRefresh drops every cache tag. Access is checked by mw.RequireAdmin.
func AdminRefresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := d.Resources.Invalidate(r.Context(), resources.AllTags...); err != nil {
			respond.Error(w, r, d.Logger, err)
			return
		}
		metrics.RevalidationsTotal.WithLabelValues("admin").Inc()
		triggerWarm(d, r)

		respond.JSON(w, http.StatusOK, refreshResponse{
			Success:   true,
			Message:   "Cache refreshed successfully",
			Tags:      resources.AllTags,
			Timestamp: d.Now().UTC(),
		})
	}
}

// triggerWarm asks the cache warmer to run without waiting for it.
func triggerWarm(d deps.Deps, r *http.Request) {
	if d.WarmTrigger == nil {
		return
	}
	select {
	case d.WarmTrigger <- struct{}{}:
		d.Logger.Debug("cache warm triggered", logger.String("path", r.URL.Path))
	default:
		d.Logger.Debug("cache warm already pending")
	}
}
