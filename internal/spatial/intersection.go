package spatial

import (
	"encoding/json"

	"github.com/taigabase/geobase/internal/geo"
)

// BuildBufferQuery grows a geometry by the radius in metric space and
// returns the buffered shape as GeoJSON.
func BuildBufferQuery(geometry json.RawMessage, bufferRadiusKm float64) (Query, error) {
	if _, err := geo.ParseGeometry(geometry); err != nil {
		return Query{}, err
	}
	sql := `SELECT ST_AsGeoJSON(
	ST_Buffer(ST_GeomFromGeoJSON(?)::geography, ? * 1000)
)::json AS buffer_geojson`
	return Query{SQL: sql, Args: []any{string(geometry), bufferRadiusKm}}, nil
}

// BuildRadiusIntersectionQuery summarizes how a search circle overlaps the
// stored map geometries: the clipped intersection shape plus the regions the
// circle touches.
func BuildRadiusIntersectionQuery(center geo.LatLon, radiusKm float64) (Query, error) {
	if err := center.Validate(); err != nil {
		return Query{}, err
	}
	sql := `WITH user_point AS (
	SELECT ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography AS point_geog
),
circle_geom AS (
	SELECT ST_SetSRID(ST_Buffer(point_geog, ? * 1000)::geometry, 4326) AS geom
	FROM user_point
),
regions_in_radius AS (
	SELECT DISTINCT ge.id, ge.name_ru
	FROM geographical_entity ge
	JOIN entity_geo eg ON ge.id = eg.geographical_entity_id
	JOIN map_content mc ON mc.id = eg.entity_id AND eg.entity_type = 'map_content'
	CROSS JOIN circle_geom c
	WHERE ST_Intersects(mc.geometry, c.geom)
)
SELECT
	ST_AsGeoJSON(
		ST_Intersection(ST_Union(mc.geometry), (SELECT geom FROM circle_geom))
	)::json AS intersection_geojson,
	COALESCE(
		(SELECT json_agg(json_build_object('id', r.id, 'name', r.name_ru)) FROM regions_in_radius r),
		'[]'::json
	) AS regions
FROM map_content mc
WHERE ST_Intersects(mc.geometry, (SELECT geom FROM circle_geom))`
	return Query{SQL: sql, Args: []any{center.Lon, center.Lat, radiusKm}}, nil
}
