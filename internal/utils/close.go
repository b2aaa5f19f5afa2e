package utils

import (
	"io"

	"github.com/MrSnakeDoc/curio/internal/logger"
)

// maxDrain bounds how much of an unread body is discarded before closing.
const maxDrain = 64 << 10

// MustClose closes c and logs any error.
// Use for defer statements where we want to track close errors.
func MustClose(c io.Closer, log logger.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.Error(err))
	}
}

// DrainAndClose discards what is left of an HTTP body so the connection
// can be reused, then closes it.
func DrainAndClose(rc io.ReadCloser, log logger.Logger) {
	_, _ = io.CopyN(io.Discard, rc, maxDrain)
	MustClose(rc, log)
}
