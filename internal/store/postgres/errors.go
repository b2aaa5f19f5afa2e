package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrSnakeDoc/curio/internal/apperr"
)

// Postgres error codes the store reacts to.
const (
	codeUndefinedTable     = "42P01"
	codeInsufficientPriv   = "42501"
	codeInvalidText        = "22P02"
	codeForeignKeyViolated = "23503"
)

var errNoPool = errors.New("postgres pool not initialized")

// isUnavailable reports whether err means the relation is missing or not
// readable by the current role.
func isUnavailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUndefinedTable || pgErr.Code == codeInsufficientPriv
	}
	msg := err.Error()
	return strings.Contains(msg, "does not exist") || strings.Contains(msg, "permission denied")
}

func isCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// classify turns input errors reported by Postgres into validation errors.
// Everything else is returned unchanged.
func classify(err error, what string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeInvalidText:
		return apperr.NewValidationWrap("invalid "+what, err)
	case codeForeignKeyViolated:
		return apperr.NewValidationWrap("unknown "+what, err)
	default:
		return err
	}
}
