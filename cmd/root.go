// Package cmd implements the geotagger command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/geotagger/cmd/httpd"
	"github.com/jonesrussell/north-cloud/geotagger/cmd/migrate"
	"github.com/jonesrussell/north-cloud/geotagger/cmd/placeline"
	"github.com/jonesrussell/north-cloud/geotagger/cmd/tag"
	infraconfig "github.com/jonesrussell/north-cloud/geotagger/infrastructure/config"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "geotagger",
	Short: "Tag news articles with the US locations they are about",
	Long: `geotagger finds the cities, counties and states a news article is about
and resolves places that share a name across states.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("config", infraconfig.GetConfigPath("config.yml"), "path to configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "geotagger version %s\n", Version)
		},
	})

	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(tag.Command())
	rootCmd.AddCommand(tag.FeaturizeCommand())
	rootCmd.AddCommand(placeline.Command())
	rootCmd.AddCommand(migrate.Command())
}
