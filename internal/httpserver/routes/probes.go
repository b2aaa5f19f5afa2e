package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/curio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/curio/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/curio/internal/httpserver/mw"
)

func init() { RegisterProbe(registerProbes) }

func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	private := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	private.Get("/readyz", handlers.Readyz(d))
	private.Get("/infra", handlers.Infra(d))
	private.Method("GET", "/metrics", handlers.Metrics())
}
