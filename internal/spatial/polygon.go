package spatial

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/taigabase/geobase/internal/errors"
	"github.com/taigabase/geobase/internal/geo"
)

// PolygonParams describes a polygon-plus-buffer search.
type PolygonParams struct {
	PolygonGeoJSON json.RawMessage
	BufferRadiusKm float64
	Limit          int

	ObjectType string
	Filters    Filters
}

// BuildPolygonQuery assembles the polygon-intersection federated query. The
// input polygon is grown by the buffer in metric space; candidates qualify
// by intersection, not containment, so partial overlaps count. Distance from
// each candidate's centroid to the area centroid orders the result, ranking
// only.
func BuildPolygonQuery(p PolygonParams) (Query, error) {
	if err := geo.ValidatePolygon(p.PolygonGeoJSON); err != nil {
		return Query{}, err
	}
	if p.BufferRadiusKm < 0 {
		return Query{}, errors.New(fmt.Errorf("buffer radius must be non-negative, got %g", p.BufferRadiusKm)).
			Component("spatial").
			Category(errors.CategoryValidation).
			Build()
	}
	if p.Limit <= 0 {
		return Query{}, errors.New(fmt.Errorf("limit must be positive, got %d", p.Limit)).
			Component("spatial").
			Category(errors.CategoryValidation).
			Build()
	}
	kinds, err := ResolveKinds(p.ObjectType)
	if err != nil {
		return Query{}, err
	}

	var b strings.Builder
	args := []any{string(p.PolygonGeoJSON), p.BufferRadiusKm}

	b.WriteString(`WITH area AS (
	SELECT ST_Buffer(ST_GeomFromGeoJSON(?)::geography, ? * 1000) AS geom
)
SELECT * FROM (
	SELECT DISTINCT ON (entities.type, entities.id)
		entities.id,
		entities.name,
		entities.description,
		entities.type,
		entities.feature_data,
		ST_AsGeoJSON(mc.geometry)::json AS geojson,
		ST_Distance(
			CASE WHEN ST_GeometryType(mc.geometry) = 'ST_Point'
				THEN mc.geometry
				ELSE ST_Centroid(mc.geometry)
			END,
			ST_Centroid(a.geom)
		) / 1000 AS distance_km
	FROM (
		`)
	b.WriteString(entityUnion(kinds))
	b.WriteString(`
	) entities
	`)
	b.WriteString(geometryJoin)
	b.WriteString(`
	CROSS JOIN area a
	WHERE ST_Intersects(mc.geometry, a.geom)
	`)

	conds, filterArgs := p.Filters.conditions()
	for _, c := range conds {
		b.WriteString("AND ")
		b.WriteString(c)
		b.WriteString("\n\t")
	}
	args = append(args, filterArgs...)

	b.WriteString(`ORDER BY entities.type, entities.id, distance_km
) dedup
ORDER BY distance_km
LIMIT ?`)
	args = append(args, p.Limit)

	return Query{SQL: b.String(), Args: args}, nil
}
