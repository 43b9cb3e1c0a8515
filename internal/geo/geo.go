// Package geo validates and inspects GeoJSON geometry exchanged with the
// database and the map renderer.
package geo

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/taigabase/geobase/internal/errors"
)

// LatLon is a WGS84 coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the coordinate is on the globe.
func (p LatLon) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return errors.Newf("latitude %v out of range [-90, 90]", p.Lat).
			Category(errors.CategoryValidation).
			Component("geo").
			Build()
	}
	if p.Lon < -180 || p.Lon > 180 {
		return errors.Newf("longitude %v out of range [-180, 180]", p.Lon).
			Category(errors.CategoryValidation).
			Component("geo").
			Build()
	}
	return nil
}

// ParseGeometry decodes raw GeoJSON into an orb geometry.
func ParseGeometry(raw json.RawMessage) (orb.Geometry, error) {
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, errors.Newf("unparsable GeoJSON: %w", err).
			Category(errors.CategoryValidation).
			Component("geo").
			Build()
	}
	return g.Geometry(), nil
}

// ValidatePolygon checks that raw GeoJSON holds a Polygon with well-formed
// rings: at least 4 positions per ring and first == last. Malformed input
// is rejected before any query executes.
func ValidatePolygon(raw json.RawMessage) error {
	g, err := ParseGeometry(raw)
	if err != nil {
		return err
	}

	poly, ok := g.(orb.Polygon)
	if !ok {
		return errors.Newf("geometry type %q is not a Polygon", g.GeoJSONType()).
			Category(errors.CategoryValidation).
			Component("geo").
			Build()
	}
	if len(poly) == 0 {
		return errors.Newf("polygon has no rings").
			Category(errors.CategoryValidation).
			Component("geo").
			Build()
	}
	for i, ring := range poly {
		if len(ring) < 4 {
			return errors.Newf("polygon ring %d has %d positions, need at least 4", i, len(ring)).
				Category(errors.CategoryValidation).
				Component("geo").
				Build()
		}
		if !ring.Closed() {
			return errors.Newf("polygon ring %d is not closed", i).
				Category(errors.CategoryValidation).
				Component("geo").
				Build()
		}
	}
	return nil
}

// IsPoint reports whether raw GeoJSON holds a Point geometry. Used to
// prefer polygonal geometry when resolving a named area.
func IsPoint(raw json.RawMessage) bool {
	g, err := ParseGeometry(raw)
	if err != nil {
		return false
	}
	_, ok := g.(orb.Point)
	return ok
}

// Centroid returns the planar centroid of raw GeoJSON geometry. For points
// it is the point itself. Distance ranking against centroids mirrors the
// database-side computation for map annotations.
func Centroid(raw json.RawMessage) (LatLon, error) {
	g, err := ParseGeometry(raw)
	if err != nil {
		return LatLon{}, err
	}
	c, _ := planar.CentroidArea(g)
	return LatLon{Lat: c.Lat(), Lon: c.Lon()}, nil
}
