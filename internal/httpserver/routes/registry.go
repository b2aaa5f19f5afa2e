package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/curio/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var (
	apiRegistry   []entry // mounted under /api
	probeRegistry []entry // mounted at the root
)

// Register an /api registrar with optional per-route middlewares.
func Register(reg Registrar, mws ...Middleware) {
	apiRegistry = append(apiRegistry, entry{reg: reg, mws: mws})
}

// RegisterProbe registers an operational endpoint served at the root,
// outside the /api middlewares.
func RegisterProbe(reg Registrar, mws ...Middleware) {
	probeRegistry = append(probeRegistry, entry{reg: reg, mws: mws})
}

// Called once from server.New(). apiMws wrap every /api route.
func RegisterAll(r chi.Router, d deps.Deps, apiMws ...Middleware) {
	mount(r, d, probeRegistry)
	r.Route("/api", func(api chi.Router) {
		api.Use(apiMws...)
		mount(api, d, apiRegistry)
	})
}

func mount(r chi.Router, d deps.Deps, entries []entry) {
	for _, e := range entries {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		sub := r.With(e.mws...) // apply per-route middlewares
		e.reg(sub, d)
	}
}
