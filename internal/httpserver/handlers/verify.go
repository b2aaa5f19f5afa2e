package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/curio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/curio/internal/httpserver/respond"
	"github.com/MrSnakeDoc/curio/internal/logger"
	pgstore "github.com/MrSnakeDoc/curio/internal/store/postgres"
)

type verifyResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error,omitempty"`
	Missing []string        `json:"missingColumns,omitempty"`
	Data    *pgstore.Report `json:"data,omitempty"`
}

// Verify reports database connectivity and the shape of the catalog table.
func Verify(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := d.Database.Verify(r.Context())
		if err != nil {
			d.Logger.Error("database verification failed", logger.Error(err))
			respond.JSON(w, http.StatusInternalServerError, verifyResponse{
				Success: false,
				Message: "Could not connect to database. Check CURIO_DATABASE_URL and table permissions.",
				Error:   err.Error(),
			})
			return
		}

		resp := verifyResponse{Success: true, Message: "Database connection successful", Data: &rep}
		if !rep.TableExists {
			resp.Message = "Connected, but the catalog table is missing"
		} else if missing := rep.MissingColumns(); len(missing) > 0 {
			resp.Message = "Connected, but the catalog table lacks expected columns"
			resp.Missing = missing
		}
		respond.JSON(w, http.StatusOK, resp)
	}
}
