package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/curio/internal/httpserver/deps"
	"github.com/MrSnakeDoc/curio/internal/httpserver/handlers"
)

func init() { Register(registerResources) }

func registerResources(r chi.Router, d deps.Deps) {
	r.Get("/resources", handlers.Resources(d))
	r.Get("/resource-options", handlers.ResourceOptions(d))
	r.Get("/sneak-peek", handlers.SneakPeek(d))
	r.Get("/verify", handlers.Verify(d))
}
