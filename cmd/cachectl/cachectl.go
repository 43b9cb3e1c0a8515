// Package cachectl implements cache administration commands.
package cachectl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taigabase/geobase/internal/conf"
	"github.com/taigabase/geobase/internal/querycache"
)

// Command creates the cache command with its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the query-result cache",
	}

	cacheCmd.AddCommand(statsCommand(settings), purgeCommand(settings))
	return cacheCmd
}

func statsCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entry counts per cache namespace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(cmd, settings)
			if err != nil {
				return err
			}
			defer cache.Close() //nolint:errcheck // read-only inspection

			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading cache stats: %w", err)
			}
			for _, ns := range []querycache.Namespace{querycache.NamespaceArea, querycache.NamespaceCoords, querycache.NamespacePolygon} {
				cmd.Printf("%-16s %d\n", ns, stats[ns])
			}
			return nil
		},
	}
}

func purgeCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <namespace>",
		Short: "Delete every entry in one cache namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns := querycache.Namespace(args[0])
			switch ns {
			case querycache.NamespaceArea, querycache.NamespaceCoords, querycache.NamespacePolygon:
			default:
				return fmt.Errorf("unknown namespace %q", args[0])
			}

			cache, err := openCache(cmd, settings)
			if err != nil {
				return err
			}
			defer cache.Close() //nolint:errcheck // process exits right after

			removed, err := cache.Purge(cmd.Context(), ns)
			if err != nil {
				return fmt.Errorf("purging %s: %w", ns, err)
			}
			cmd.Printf("removed %d entries from %s\n", removed, ns)
			return nil
		},
	}
}

// openCache connects to the configured Redis store. Cache administration
// only makes sense against a shared store, so there is no memory fallback.
func openCache(cmd *cobra.Command, settings *conf.Settings) (*querycache.Cache, error) {
	if settings.Cache.Addr == "" {
		return nil, fmt.Errorf("cache administration requires a configured redis address")
	}
	store, err := querycache.NewRedisStore(cmd.Context(), settings.Cache.Addr, settings.Cache.Password, settings.Cache.DB, settings.Cache.Timeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return querycache.New(store, nil), nil
}
