// Package database reads the location master tables.
package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	infraconfig "github.com/jonesrussell/north-cloud/geotagger/infrastructure/config"
	infracontext "github.com/jonesrussell/north-cloud/geotagger/infrastructure/context"
	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/retry"
)

// NewPostgresConnection opens the location master database and pings it,
// retrying while the server is still coming up.
func NewPostgresConnection(ctx context.Context, cfg *infraconfig.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingErr := retry.Retry(ctx, retry.DefaultConfig(), func() error {
		pingCtx, cancel := infracontext.WithPingTimeout()
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", pingErr)
	}

	return db, nil
}
