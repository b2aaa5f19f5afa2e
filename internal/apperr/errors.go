package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated is returned when no valid credential accompanies a
	// request. Nothing is mutated.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden is returned when the caller is known but not allowed.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks an expected dataset that is absent. Callers degrade
	// to an empty result instead of failing.
	ErrNotFound = errors.New("not found")
)

type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// BackendError wraps a storage or network failure with the operation that
// triggered it.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Backend wraps err as a BackendError. A nil err stays nil, and errors that
// already carry a category (validation, auth, not found) pass through.
func Backend(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) || errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrForbidden) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &BackendError{Op: op, Err: err}
}

// HTTPStatus maps an error chain to the status code it should surface as.
func HTTPStatus(err error) int {
	var ve *ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// FromStatus rebuilds a categorized error from an HTTP status and message.
// It is the inverse of HTTPStatus, used by API clients.
func FromStatus(status int, msg string) error {
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthenticated, msg)
	case status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, msg)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case status >= 400 && status < 500:
		return NewValidation(msg)
	default:
		return &BackendError{Op: fmt.Sprintf("http %d", status), Err: errors.New(msg)}
	}
}
