package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taigabase/geobase/internal/errors"
	"github.com/taigabase/geobase/internal/querycache"
)

var knownNamespaces = map[string]querycache.Namespace{
	string(querycache.NamespaceArea):    querycache.NamespaceArea,
	string(querycache.NamespaceCoords):  querycache.NamespaceCoords,
	string(querycache.NamespacePolygon): querycache.NamespacePolygon,
}

// CacheStats reports entry counts per namespace.
func (c *Controller) CacheStats(ctx echo.Context) error {
	if c.Cache == nil {
		return ctx.JSON(http.StatusOK, map[string]any{"enabled": false})
	}

	stats, err := c.Cache.Stats(ctx.Request().Context())
	if err != nil {
		return c.HandleError(ctx, err, "Cache stats failed")
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"enabled":    true,
		"namespaces": stats,
	})
}

// CachePurge deletes every entry in one namespace.
func (c *Controller) CachePurge(ctx echo.Context) error {
	if c.Cache == nil {
		return c.HandleError(ctx, errors.Newf("cache is not configured").
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Cache disabled")
	}

	ns, ok := knownNamespaces[ctx.Param("namespace")]
	if !ok {
		return c.HandleError(ctx, errors.Newf("unknown namespace %q", ctx.Param("namespace")).
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Unknown cache namespace")
	}

	removed, err := c.Cache.Purge(ctx.Request().Context(), ns)
	if err != nil {
		return c.HandleError(ctx, err, "Cache purge failed")
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"namespace": ns,
		"removed":   removed,
	})
}
