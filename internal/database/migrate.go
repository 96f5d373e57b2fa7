package database

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:blankimports // file source driver
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
)

// Migration directions.
const (
	MigrateUp   = "up"
	MigrateDown = "down"
)

// ErrInvalidDirection is returned for a direction other than up or down.
var ErrInvalidDirection = errors.New(`direction must be "up" or "down"`)

// RunMigrations applies the location master migrations in dir.
func RunMigrations(db *sqlx.DB, dir, direction string, log logger.Logger) error {
	if direction != MigrateUp && direction != MigrateDown {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, direction)
	}

	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}

	if absPath, absErr := filepath.Abs(dir); absErr == nil {
		dir = absPath
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if direction == MigrateUp {
		err = m.Up()
	} else {
		err = m.Down()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("No pending migrations", logger.String("migrations_path", dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("run migrations %s: %w", direction, err)
	}

	log.Info("Migrations applied",
		logger.String("direction", direction),
		logger.String("migrations_path", dir),
	)
	return nil
}
