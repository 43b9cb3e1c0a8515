// Package serve implements the serve command: it assembles the datastore,
// cache, synonym index, map renderer and HTTP surface, and runs until
// signalled.
package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/taigabase/geobase/internal/api"
	"github.com/taigabase/geobase/internal/conf"
	"github.com/taigabase/geobase/internal/datastore"
	"github.com/taigabase/geobase/internal/logging"
	"github.com/taigabase/geobase/internal/maprender"
	"github.com/taigabase/geobase/internal/querycache"
	"github.com/taigabase/geobase/internal/search"
	"github.com/taigabase/geobase/internal/synonyms"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the search API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), settings)
		},
	}
}

func runServer(ctx context.Context, settings *conf.Settings) error {
	logging.Init()
	logger := logging.StructuredLogger()

	ds := datastore.New(settings)
	if err := ds.Open(); err != nil {
		return fmt.Errorf("opening datastore: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			logger.Error("datastore close failed", "error", err)
		}
	}()

	var index *synonyms.Index
	if settings.Synonyms.Path != "" {
		var err error
		index, err = synonyms.Load(settings.Synonyms.Path)
		if err != nil {
			return fmt.Errorf("loading synonym table: %w", err)
		}
		logger.Info("synonym table loaded", "path", settings.Synonyms.Path, "entries", index.Len())
	}

	registry := prometheus.NewRegistry()

	cache, err := buildCache(ctx, settings, logger, registry)
	if err != nil {
		return err
	}
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Error("cache close failed", "error", err)
			}
		}()
	}

	var renderer maprender.Renderer
	if settings.MapRender.Enabled {
		renderer = maprender.NewHTTPRenderer(settings.MapRender.BaseURL, settings.MapRender.Timeout)
	}

	svc := search.New(ds, index, cache, renderer, settings, logger)

	apiLogger := logger
	if settings.WebServer.Log.Enabled && settings.WebServer.Log.Path != "" {
		fileLogger, closeLog, err := logging.NewFileLogger(settings.WebServer.Log.Path, "api", slog.LevelInfo)
		if err != nil {
			logger.Warn("file logging unavailable, using process logger", "path", settings.WebServer.Log.Path, "error", err)
		} else {
			apiLogger = fileLogger
			defer func() {
				if err := closeLog(); err != nil {
					logger.Error("closing api log failed", "error", err)
				}
			}()
		}
	}

	e := echo.New()
	e.HideBanner = true
	api.New(e, svc, cache, settings, apiLogger, registry)

	errChan := make(chan error, 1)
	go func() {
		addr := ":" + settings.WebServer.Port
		logger.Info("starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("shutting down", "reason", "context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// buildCache selects the cache backend. Redis when an address is
// configured, in-process memory otherwise; disabled configuration means no
// cache at all.
func buildCache(ctx context.Context, settings *conf.Settings, logger *slog.Logger, registry *prometheus.Registry) (*querycache.Cache, error) {
	if !settings.Cache.Enabled {
		logger.Info("query cache disabled")
		return nil, nil
	}

	metrics, err := querycache.NewMetrics(registry)
	if err != nil {
		// The cache works uninstrumented; registration trouble costs
		// counters, not memoization.
		logger.Warn("cache metrics unavailable", "error", err)
		metrics = nil
	}

	if settings.Cache.Addr != "" {
		store, err := querycache.NewRedisStore(ctx, settings.Cache.Addr, settings.Cache.Password, settings.Cache.DB, settings.Cache.Timeout)
		if err != nil {
			// A broken cache never blocks startup; searches just skip
			// memoization.
			logger.Warn("redis unavailable, falling back to in-process cache", "addr", settings.Cache.Addr, "error", err)
			return querycache.New(querycache.NewMemoryStore(), logger, querycache.WithMetrics(metrics)), nil
		}
		logger.Info("query cache backed by redis", "addr", settings.Cache.Addr)
		return querycache.New(store, logger, querycache.WithMetrics(metrics)), nil
	}

	logger.Info("query cache backed by process memory")
	return querycache.New(querycache.NewMemoryStore(), logger, querycache.WithMetrics(metrics)), nil
}
