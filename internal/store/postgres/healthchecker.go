package postgres

import (
	"context"
)

type HealthChecker struct {
	pool *ConnectionPool
}

func NewHealthChecker(pool *ConnectionPool) *HealthChecker {
	return &HealthChecker{
		pool: pool,
	}
}

// Check pings the database, reporting why it is unhealthy.
func (hc *HealthChecker) Check(ctx context.Context) error {
	if hc == nil || hc.pool == nil {
		return errNoPool
	}
	return hc.pool.Ping(ctx)
}
