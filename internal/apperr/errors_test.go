package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/MrSnakeDoc/curio/internal/apperr"
)

func TestNewValidation(t *testing.T) {
	err := apperr.NewValidation("resource_id is required")

	if err.Error() != "resource_id is required" {
		t.Errorf("expected 'resource_id is required', got %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("expected nil unwrap, got %v", err.Unwrap())
	}
}

func TestNewValidationWrap(t *testing.T) {
	inner := fmt.Errorf("unexpected EOF")
	err := apperr.NewValidationWrap("invalid body", inner)

	if err.Error() != "invalid body: unexpected EOF" {
		t.Errorf("expected 'invalid body: unexpected EOF', got %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestValidationError_SurvivesFmtWrapping(t *testing.T) {
	original := apperr.NewValidation("invalid sortBy")

	wrapped := fmt.Errorf("parse query: %w", original)
	doubleWrapped := fmt.Errorf("handler: %w", wrapped)

	var ve *apperr.ValidationError
	if !errors.As(doubleWrapped, &ve) {
		t.Fatal("errors.As should find ValidationError through double wrapping")
	}
	if ve.Message != "invalid sortBy" {
		t.Errorf("expected 'invalid sortBy', got %q", ve.Message)
	}
}

func TestBackend(t *testing.T) {
	if apperr.Backend("op", nil) != nil {
		t.Fatal("Backend(nil) should stay nil")
	}

	plain := errors.New("connection refused")
	err := apperr.Backend("list bookmarks", plain)

	var be *apperr.BackendError
	if !errors.As(err, &be) {
		t.Fatal("expected BackendError")
	}
	if be.Op != "list bookmarks" || !errors.Is(err, plain) {
		t.Errorf("unexpected backend error: %v", err)
	}

	// Categorized errors are not re-wrapped.
	if got := apperr.Backend("op", apperr.ErrUnauthenticated); got != apperr.ErrUnauthenticated {
		t.Errorf("expected ErrUnauthenticated to pass through, got %v", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", apperr.NewValidation("x"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("a: %w", apperr.NewValidation("x")), http.StatusBadRequest},
		{"unauthenticated", fmt.Errorf("token: %w", apperr.ErrUnauthenticated), http.StatusUnauthorized},
		{"forbidden", apperr.ErrForbidden, http.StatusForbidden},
		{"not found", apperr.ErrNotFound, http.StatusNotFound},
		{"backend", apperr.Backend("db", errors.New("boom")), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFromStatusRoundTrip(t *testing.T) {
	for _, status := range []int{400, 401, 403, 404, 500} {
		err := apperr.FromStatus(status, "msg")
		if got := apperr.HTTPStatus(err); got != status {
			t.Errorf("FromStatus(%d) maps back to %d", status, got)
		}
	}
}
