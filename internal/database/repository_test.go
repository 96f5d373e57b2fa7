package database_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/geotagger/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/geotagger/internal/database"
	"github.com/jonesrussell/north-cloud/geotagger/internal/domain"
	"github.com/jonesrussell/north-cloud/geotagger/internal/reftables"
)

func newRepo(t *testing.T) (*database.Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return database.NewRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestRepository_LoadLocationFeatures(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	rows := sqlmock.NewRows([]string{"id", "location_id", "feature", "condition_type"}).
		AddRow(1, "1001", "austin-news", domain.ConditionInclude).
		AddRow(2, 1002, "national", domain.ConditionExclude)
	mock.ExpectQuery("SELECT id, location_id, feature, condition_type FROM location_feature").
		WillReturnRows(rows)

	got, err := repo.LoadLocationFeatures(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.LocationFeature{
		{ID: 1, LocationID: "1001", Feature: "austin-news", ConditionType: domain.ConditionInclude},
		{ID: 2, LocationID: "1002", Feature: "national", ConditionType: domain.ConditionExclude},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_LocalPublisherLocationIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(sqlmock.Sqlmock)
		want    []domain.ID
		wantErr bool
	}{
		{
			name: "accepted publisher",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM local_publisher AS t_l").
					WithArgs("www.statesman.com", "ACCEPTED").
					WillReturnRows(sqlmock.NewRows([]string{"location_id"}).AddRow("11").AddRow("12"))
			},
			want: []domain.ID{"11", "12"},
		},
		{
			name: "unknown host",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM local_publisher AS t_l").
					WithArgs("www.statesman.com", "ACCEPTED").
					WillReturnRows(sqlmock.NewRows([]string{"location_id"}))
			},
			want: []domain.ID{},
		},
		{
			name: "database failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FROM local_publisher AS t_l").WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo, mock := newRepo(t)
			tt.setup(mock)

			got, err := repo.LocalPublisherLocationIDs(context.Background(), "www.statesman.com")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_PublisherRows(t *testing.T) {
	t.Parallel()

	repo, mock := newRepo(t)
	mock.ExpectQuery("SELECT domain, admin_area FROM publisher_admin_area").
		WillReturnRows(sqlmock.NewRows([]string{"domain", "admin_area"}).
			AddRow("kansascity.com", "Missouri").
			AddRow("kansascity.com", "Kansas"))

	got, err := repo.PublisherRows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []reftables.PublisherRow{
		{Domain: "kansascity.com", AdminArea: "Missouri"},
		{Domain: "kansascity.com", AdminArea: "Kansas"},
	}, got)
}

func TestRunMigrations_InvalidDirection(t *testing.T) {
	t.Parallel()

	err := database.RunMigrations(nil, "migrations", "sideways", logger.NewNop())
	require.ErrorIs(t, err, database.ErrInvalidDirection)
}
