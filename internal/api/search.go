package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taigabase/geobase/internal/errors"
	"github.com/taigabase/geobase/internal/geo"
	"github.com/taigabase/geobase/internal/search"
)

// SearchNearby handles point-radius searches.
func (c *Controller) SearchNearby(ctx echo.Context) error {
	var req search.NearbyRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, badRequest(err), "Invalid request body")
	}

	result, err := c.Search.Nearby(ctx.Request().Context(), &req)
	if err != nil {
		return c.HandleError(ctx, err, "Nearby search failed")
	}
	return ctx.JSON(http.StatusOK, result)
}

// SearchPolygon handles polygon and named-polygon searches.
func (c *Controller) SearchPolygon(ctx echo.Context) error {
	var req search.PolygonRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, badRequest(err), "Invalid request body")
	}

	result, err := c.Search.InPolygon(ctx.Request().Context(), &req)
	if err != nil {
		return c.HandleError(ctx, err, "Polygon search failed")
	}
	return ctx.JSON(http.StatusOK, result)
}

// SearchArea handles named-area searches.
func (c *Controller) SearchArea(ctx echo.Context) error {
	var req search.AreaRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx, badRequest(err), "Invalid request body")
	}

	result, err := c.Search.InArea(ctx.Request().Context(), &req)
	if err != nil {
		return c.HandleError(ctx, err, "Area search failed")
	}
	return ctx.JSON(http.StatusOK, result)
}

// SearchIntersection reports the overlap between a search circle and the
// stored map geometries. Query parameters: lat, lon, radius_km.
func (c *Controller) SearchIntersection(ctx echo.Context) error {
	lat, err := strconv.ParseFloat(ctx.QueryParam("lat"), 64)
	if err != nil {
		return c.HandleError(ctx, badRequest(err), "Invalid lat")
	}
	lon, err := strconv.ParseFloat(ctx.QueryParam("lon"), 64)
	if err != nil {
		return c.HandleError(ctx, badRequest(err), "Invalid lon")
	}
	radius, err := strconv.ParseFloat(ctx.QueryParam("radius_km"), 64)
	if err != nil {
		return c.HandleError(ctx, badRequest(err), "Invalid radius_km")
	}

	result, err := c.Search.RadiusIntersection(ctx.Request().Context(), geo.LatLon{Lat: lat, Lon: lon}, radius)
	if err != nil {
		return c.HandleError(ctx, err, "Intersection query failed")
	}
	if result == nil {
		return ctx.JSON(http.StatusOK, map[string]any{"intersection": nil})
	}
	return ctx.JSON(http.StatusOK, result)
}

// DescribeObject returns stored text descriptions for a named object.
// Query parameters: name (required), type.
func (c *Controller) DescribeObject(ctx echo.Context) error {
	name := ctx.QueryParam("name")
	if name == "" {
		return c.HandleError(ctx, errors.Newf("name is required").
			Component("api").
			Category(errors.CategoryValidation).
			Build(), "Missing name parameter")
	}

	descriptions, err := c.Search.Describe(ctx.Request().Context(), name, ctx.QueryParam("type"))
	if err != nil {
		return c.HandleError(ctx, err, "Description lookup failed")
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"name":         name,
		"descriptions": descriptions,
		"count":        len(descriptions),
	})
}

// ListSynonyms returns the alias table, optionally narrowed to one name.
func (c *Controller) ListSynonyms(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.Search.Synonyms(ctx.QueryParam("name")))
}

func badRequest(err error) error {
	return errors.New(err).
		Component("api").
		Category(errors.CategoryValidation).
		Build()
}
