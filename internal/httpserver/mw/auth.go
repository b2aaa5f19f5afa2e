package mw

import (
	"fmt"
	"net/http"

	"github.com/MrSnakeDoc/curio/internal/apperr"
	"github.com/MrSnakeDoc/curio/internal/auth"
	"github.com/MrSnakeDoc/curio/internal/httpserver/respond"
	"github.com/MrSnakeDoc/curio/internal/logger"
)

// Auth requires a valid bearer token and stores the caller's principal in
// the request context.
func Auth(v *auth.Verifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				respond.Error(w, r, log, fmt.Errorf("%w: token verification disabled", apperr.ErrUnauthenticated))
				return
			}
			p, err := v.VerifyRequest(r)
			if err != nil {
				respond.Error(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireAdmin lets through only the principal whose email is adminEmail.
// It must run after Auth.
func RequireAdmin(adminEmail string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.FromContext(r.Context())
			if !ok {
				respond.Error(w, r, log, apperr.ErrUnauthenticated)
				return
			}
			if !auth.IsAdmin(p, adminEmail) {
				log.Warn("admin endpoint denied", logger.String("user_id", p.UserID))
				respond.Error(w, r, log, apperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
