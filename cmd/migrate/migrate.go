// Package migrate implements the migrate command for the location master
// schema.
package migrate

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/geotagger/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/geotagger/internal/database"
)

var errNoDatabase = errors.New("database.host is not configured")

// Command returns the migrate command.
func Command() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Apply location master schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{database.MigrateUp, database.MigrateDown},
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")

			cfg, err := bootstrap.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if !cfg.Database.Enabled() {
				return errNoDatabase
			}

			log, err := bootstrap.CreateLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := database.NewPostgresConnection(cmd.Context(), &cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			return database.RunMigrations(db, dir, args[0], log)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "migrations", "migrations directory")
	return cmd
}
