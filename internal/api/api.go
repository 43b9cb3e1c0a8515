// Package api exposes the search engine over HTTP using Echo.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taigabase/geobase/internal/conf"
	"github.com/taigabase/geobase/internal/geo"
	"github.com/taigabase/geobase/internal/querycache"
	"github.com/taigabase/geobase/internal/search"
)

// SearchProvider is the slice of the search service the HTTP layer needs.
type SearchProvider interface {
	Nearby(ctx context.Context, req *search.NearbyRequest) (*search.Result, error)
	InPolygon(ctx context.Context, req *search.PolygonRequest) (*search.Result, error)
	InArea(ctx context.Context, req *search.AreaRequest) (*search.Result, error)
	RadiusIntersection(ctx context.Context, center geo.LatLon, radiusKm float64) (*search.IntersectionResult, error)
	Describe(ctx context.Context, name, objectType string) ([]search.Description, error)
	Synonyms(name string) map[string][]string
}

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Search   SearchProvider
	Cache    *querycache.Cache
	Settings *conf.Settings

	logger    *slog.Logger
	startTime time.Time
}

// New creates a controller and registers its routes on the given Echo
// instance. A nil registry skips the /metrics endpoint.
func New(e *echo.Echo, svc SearchProvider, cache *querycache.Cache, settings *conf.Settings, logger *slog.Logger, registry *prometheus.Registry) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		Echo:      e,
		Search:    svc,
		Cache:     cache,
		Settings:  settings,
		logger:    logger.With("service", "api"),
		startTime: time.Now(),
	}

	c.Group = e.Group("/api/v1")
	c.Group.Use(middleware.Recover())
	c.Group.Use(middleware.CORS())
	c.Group.Use(middleware.BodyLimit("1M"))
	c.Group.Use(c.loggingMiddleware())

	c.initRoutes()

	if registry != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return c
}

// initRoutes registers all API endpoints.
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	c.Group.POST("/search/nearby", c.SearchNearby)
	c.Group.POST("/search/polygon", c.SearchPolygon)
	c.Group.POST("/search/area", c.SearchArea)
	c.Group.GET("/search/intersection", c.SearchIntersection)

	c.Group.GET("/describe", c.DescribeObject)
	c.Group.GET("/synonyms", c.ListSynonyms)

	c.Group.GET("/cache/stats", c.CacheStats)
	c.Group.DELETE("/cache/:namespace", c.CachePurge)
}

// loggingMiddleware logs one structured line per request.
func (c *Controller) loggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)

			req := ctx.Request()
			res := ctx.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.String("ip", ctx.RealIP()),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			c.logger.LogAttrs(req.Context(), slog.LevelInfo, "API Request", attrs...)

			return err
		}
	}
}

// HealthCheck reports liveness and uptime.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"uptime_seconds": time.Since(c.startTime).Seconds(),
	})
}
