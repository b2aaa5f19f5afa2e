package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/curio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/curio/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/curio/internal/httpserver/mw"
)

func init() { Register(registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	r.Post("/revalidate", handlers.Revalidate(d))

	r.With(
		mw.EnforceHost(d.AllowedHosts, d.Logger),
		mw.Auth(d.Tokens, d.Logger),
		mw.RequireAdmin(d.AdminEmail, d.Logger),
	).Post("/admin/refresh", handlers.AdminRefresh(d))
}
