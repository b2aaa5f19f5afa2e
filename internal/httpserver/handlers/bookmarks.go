package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/curio/internal/apperr"
	"github.com/MrSnakeDoc/curio/internal/auth"
	"github.com/MrSnakeDoc/curio/internal/domain"
	"github.com/MrSnakeDoc/curio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/curio/internal/httpserver/respond"
	"github.com/MrSnakeDoc/curio/internal/logger"
	"github.com/MrSnakeDoc/curio/internal/metrics"
)

const maxBodyBytes = 64 << 10

type bookmarksResponse struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

type bookmarkResponse struct {
	Bookmark domain.Bookmark `json:"bookmark"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// principal returns the caller set by mw.Auth.
func principal(r *http.Request) (auth.Principal, error) {
	p, ok := auth.FromContext(r.Context())
	if !ok {
		return auth.Principal{}, apperr.ErrUnauthenticated
	}
	return p, nil
}

func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			respond.Error(w, r, d.Logger, err)
			return
		}

		list, err := d.Bookmarks.List(r.Context(), p.UserID)
		if err != nil {
			respond.Error(w, r, d.Logger, apperr.Backend("list bookmarks", err))
			return
		}
		respond.JSON(w, http.StatusOK, bookmarksResponse{Bookmarks: nonNil(list)})
	}
}

func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			respond.Error(w, r, d.Logger, err)
			return
		}

		var req domain.CreateBookmarkRequest
		body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respond.Error(w, r, d.Logger, apperr.NewValidationWrap("Invalid request body", err))
			return
		}
		req.ResourceID = strings.TrimSpace(req.ResourceID)
		if req.ResourceID == "" {
			respond.Error(w, r, d.Logger, apperr.NewValidation("Resource ID is required"))
			return
		}
		if req.Notes != nil && strings.TrimSpace(*req.Notes) == "" {
			req.Notes = nil
		}

		bm, err := d.Bookmarks.Upsert(r.Context(), p.UserID, req.ResourceID, req.Notes)
		if err != nil {
			metrics.BookmarkMutationsTotal.WithLabelValues("create", "error").Inc()
			respond.Error(w, r, d.Logger, apperr.Backend("create bookmark", err))
			return
		}

		metrics.BookmarkMutationsTotal.WithLabelValues("create", "ok").Inc()
		d.Logger.Info("bookmark saved",
			logger.String("user_id", p.UserID),
			logger.String("resource_id", req.ResourceID))
		respond.JSON(w, http.StatusCreated, bookmarkResponse{Bookmark: bm})
	}
}

func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := principal(r)
		if err != nil {
			respond.Error(w, r, d.Logger, err)
			return
		}

		resourceID := strings.TrimSpace(r.URL.Query().Get("resource_id"))
		if resourceID == "" {
			respond.Error(w, r, d.Logger, apperr.NewValidation("Resource ID is required"))
			return
		}

		removed, err := d.Bookmarks.Delete(r.Context(), p.UserID, resourceID)
		if err != nil {
			metrics.BookmarkMutationsTotal.WithLabelValues("delete", "error").Inc()
			respond.Error(w, r, d.Logger, apperr.Backend("delete bookmark", err))
			return
		}

		metrics.BookmarkMutationsTotal.WithLabelValues("delete", "ok").Inc()
		d.Logger.Info("bookmark removed",
			logger.String("user_id", p.UserID),
			logger.String("resource_id", resourceID),
			logger.Bool("existed", removed))
		respond.JSON(w, http.StatusOK, successResponse{Success: true})
	}
}
