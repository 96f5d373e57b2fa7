package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
	"github.com/jonesrussell/north-cloud/geotagger/internal/reftables"
)

// localPublisherStatusAccepted marks publishers cleared for tagging.
const localPublisherStatusAccepted = "ACCEPTED"

// Repository reads feature rules, local publishers and publisher locations.
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a Repository.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// LoadLocationFeatures returns every feature rule.
func (r *Repository) LoadLocationFeatures(ctx context.Context) ([]domain.LocationFeature, error) {
	query := `
		SELECT id, location_id, feature, condition_type
		FROM location_feature
		ORDER BY id
	`

	var rules []domain.LocationFeature
	if err := r.db.SelectContext(ctx, &rules, query); err != nil {
		return nil, fmt.Errorf("failed to load location features: %w", err)
	}
	return rules, nil
}

// LocalPublisherLocationIDs returns the locations of the accepted local
// publisher registered for host.
func (r *Repository) LocalPublisherLocationIDs(ctx context.Context, host string) ([]domain.ID, error) {
	query := `
		SELECT t_p.location_id
		FROM local_publisher AS t_l
		INNER JOIN publisher_location AS t_p ON t_l.id = t_p.local_publisher_id
		WHERE t_l.host = $1 AND t_l.status = $2
	`

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, host, localPublisherStatusAccepted); err != nil {
		return nil, fmt.Errorf("failed to load local publisher locations: %w", err)
	}

	out := make([]domain.ID, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.ID(id))
	}
	return out, nil
}

// PublisherRows returns the publisher domain to admin area mapping.
func (r *Repository) PublisherRows(ctx context.Context) ([]reftables.PublisherRow, error) {
	query := `
		SELECT domain, admin_area
		FROM publisher_admin_area
		ORDER BY domain
	`

	var rows []reftables.PublisherRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to load publisher rows: %w", err)
	}
	return rows, nil
}

// Ping checks connectivity for health endpoints.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
