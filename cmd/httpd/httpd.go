// Package httpd implements the serve command.
package httpd

import (
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/geotagger/internal/bootstrap"
)

// Command returns the serve command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP tagging service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")
			return bootstrap.Start(cmd.Context(), configPath, debug)
		},
	}
}
