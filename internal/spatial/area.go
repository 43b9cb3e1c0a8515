package spatial

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/taigabase/geobase/internal/errors"
	"github.com/taigabase/geobase/internal/geo"
)

// BuildAreaCandidatesQuery fetches every stored geometry whose title
// contains the area name, from the map-content titles and the geographical
// entity names. Preference ranking happens in ChooseArea.
func BuildAreaCandidatesQuery(areaName string) (Query, error) {
	if strings.TrimSpace(areaName) == "" {
		return Query{}, errors.Newf("area name is required").
			Component("spatial").
			Category(errors.CategoryValidation).
			Build()
	}

	sql := `SELECT mc.id, mc.title, 'map_content' AS source,
	ST_GeometryType(mc.geometry) = 'ST_Point' AS is_point,
	ST_AsGeoJSON(mc.geometry)::json AS geometry_geojson
FROM map_content mc
WHERE mc.title ILIKE ?
UNION ALL
SELECT ge.id, ge.name_ru AS title, 'geographical_entity' AS source,
	ST_GeometryType(mc.geometry) = 'ST_Point' AS is_point,
	ST_AsGeoJSON(mc.geometry)::json AS geometry_geojson
FROM geographical_entity ge
JOIN entity_geo eg ON ge.id = eg.geographical_entity_id
JOIN map_content mc ON eg.entity_id = mc.id AND eg.entity_type = 'map_content'
WHERE ge.name_ru ILIKE ?`

	pattern := "%" + areaName + "%"
	return Query{SQL: sql, Args: []any{pattern, pattern}}, nil
}

// ChooseArea picks the best candidate for an area name: exact title match
// first, then substring; non-point geometries beat points; direct map
// titles beat indirect entity names; shorter titles win remaining ties.
// Returns false when no candidate has a usable geometry.
func ChooseArea(candidates []AreaCandidate, areaName string) (AreaCandidate, bool) {
	usable := make([]AreaCandidate, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Geometry) > 0 {
			usable = append(usable, c)
		}
	}
	if len(usable) == 0 {
		return AreaCandidate{}, false
	}

	wanted := strings.ToLower(strings.TrimSpace(areaName))
	rank := func(c AreaCandidate) (exact, nonPoint, direct int) {
		if strings.ToLower(strings.TrimSpace(c.Title)) == wanted {
			exact = 1
		}
		// The is_point flag comes from the database; backends without
		// ST_GeometryType leave it unset, so inspect the GeoJSON too.
		if !c.IsPoint && !geo.IsPoint(c.Geometry) {
			nonPoint = 1
		}
		if c.Source == "map_content" {
			direct = 1
		}
		return exact, nonPoint, direct
	}

	sort.SliceStable(usable, func(i, j int) bool {
		ei, ni, di := rank(usable[i])
		ej, nj, dj := rank(usable[j])
		if ei != ej {
			return ei > ej
		}
		if ni != nj {
			return ni > nj
		}
		if di != dj {
			return di > dj
		}
		if len(usable[i].Title) != len(usable[j].Title) {
			return len(usable[i].Title) < len(usable[j].Title)
		}
		return usable[i].ID < usable[j].ID
	})
	return usable[0], true
}

// AreaParams describes a named-area search once the area geometry has been
// resolved.
type AreaParams struct {
	AreaGeoJSON json.RawMessage
	// BufferRadiusKm grows the search area when searching around it.
	// Zero keeps the original boundary.
	BufferRadiusKm float64
	Limit          int

	ObjectType string
	Filters    Filters
}

// BuildAreaObjectsQuery assembles the named-area federated query. Each row
// is tagged inside or around by containment in the original, unbuffered
// area, even when the intersection test ran against the buffered one.
func BuildAreaObjectsQuery(p AreaParams) (Query, error) {
	if _, err := geo.ParseGeometry(p.AreaGeoJSON); err != nil {
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
	args := []any{string(p.AreaGeoJSON), p.BufferRadiusKm}

	b.WriteString(`WITH area AS (
	SELECT ST_SetSRID(ST_GeomFromGeoJSON(?), 4326) AS geom
),
search_area AS (
	SELECT ST_Buffer(geom::geography, ? * 1000)::geometry AS geom FROM area
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
			(CASE WHEN ST_GeometryType(mc.geometry) = 'ST_Point'
				THEN mc.geometry
				ELSE ST_Centroid(mc.geometry)
			END)::geography,
			ST_Centroid(a.geom)::geography
		) / 1000 AS distance_km,
		CASE WHEN ST_Within(mc.geometry, a.geom) THEN 'inside' ELSE 'around' END AS location_type
	FROM (
		`)
	b.WriteString(entityUnion(kinds))
	b.WriteString(`
	) entities
	`)
	b.WriteString(geometryJoin)
	b.WriteString(`
	CROSS JOIN area a
	CROSS JOIN search_area sa
	WHERE ST_Intersects(mc.geometry, sa.geom)
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
