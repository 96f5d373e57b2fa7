package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/config"
	"github.com/jonesrussell/north-cloud/geotagger/internal/database"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
	"github.com/jonesrussell/north-cloud/geotagger/internal/reftables"
)

// LocationMaster is what the pipeline reads from the location master
// database at startup.
type LocationMaster struct {
	db         *sqlx.DB
	repo       *database.Repository
	rules      []domain.LocationFeature
	publishers []reftables.PublisherRow
}

// SetupDatabase connects to the location master and loads the feature rules.
// It returns nil when no database is configured.
func SetupDatabase(ctx context.Context, cfg *config.Config, log logger.Logger) (*LocationMaster, error) {
	if !cfg.Database.Enabled() {
		log.Warn("Location master database not configured, feature rules and local publishers disabled")
		return nil, nil //nolint:nilnil // the database is optional
	}

	db, err := database.NewPostgresConnection(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	repo := database.NewRepository(db)
	lm := &LocationMaster{db: db, repo: repo}

	lm.rules, err = repo.LoadLocationFeatures(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load location features: %w", err)
	}

	if cfg.Reference.PublishersFromDB {
		lm.publishers, err = repo.PublisherRows(ctx)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("load publisher rows: %w", err)
		}
	}

	log.Info("Connected to location master",
		logger.String("host", cfg.Database.Host),
		logger.Int("feature_rules", len(lm.rules)),
		logger.Int("publisher_rows", len(lm.publishers)),
	)
	return lm, nil
}
