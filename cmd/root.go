package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taigabase/geobase/cmd/cachectl"
	"github.com/taigabase/geobase/cmd/serve"
	"github.com/taigabase/geobase/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "geobase",
		Short: "Geobase geospatial search service",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		serve.Command(settings),
		cachectl.Command(settings),
	)

	return rootCmd
}

// setupFlags binds global command line flags to configuration values.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	flags := cmd.PersistentFlags()

	flags.BoolVarP(&settings.Main.Debug, "debug", "d", settings.Main.Debug, "Enable debug output")
	flags.StringVar(&settings.Database.Host, "db-host", settings.Database.Host, "PostGIS database host")
	flags.StringVar(&settings.Database.Port, "db-port", settings.Database.Port, "PostGIS database port")
	flags.StringVar(&settings.Database.Database, "db-name", settings.Database.Database, "PostGIS database name")
	flags.StringVar(&settings.Cache.Addr, "cache-addr", settings.Cache.Addr, "Redis address for the query cache")
	flags.StringVar(&settings.Synonyms.Path, "synonyms", settings.Synonyms.Path, "Path to the synonym table")
	flags.StringVarP(&settings.WebServer.Port, "port", "p", settings.WebServer.Port, "HTTP listen port")

	if err := viper.BindPFlags(flags); err != nil {
		cmd.PrintErrf("failed to bind flags to viper: %v\n", err)
	}
}
