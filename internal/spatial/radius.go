package spatial

import (
	"fmt"
	"strings"

	"github.com/taigabase/geobase/internal/errors"
	"github.com/taigabase/geobase/internal/geo"
)

// RadiusParams describes a point-radius search.
type RadiusParams struct {
	Center   geo.LatLon
	RadiusKm float64
	Limit    int

	ObjectType string
	Filters    Filters

	// SpeciesPatterns are ILIKE patterns already expanded through the
	// synonym index. When present, the stoplist gate is applied on the
	// joined species rows.
	SpeciesPatterns []string
	StoplistLevel   int
}

// BuildRadiusQuery assembles the point-radius federated query. Rows beyond
// radiusKm are excluded by geodesic distance, duplicates keep the nearest
// geometry, and the final ordering is distance ascending.
func BuildRadiusQuery(p RadiusParams) (Query, error) {
	if err := p.Center.Validate(); err != nil {
		return Query{}, err
	}
	if p.RadiusKm < 0 {
		return Query{}, errors.New(fmt.Errorf("radius must be non-negative, got %g", p.RadiusKm)).
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
	args := []any{p.Center.Lon, p.Center.Lat}

	b.WriteString(`WITH user_point AS (
	SELECT ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography AS geom
)
SELECT * FROM (
	SELECT DISTINCT ON (entities.type, entities.id)
		entities.id,
		entities.name,
		entities.description,
		entities.type,
		entities.feature_data,
		ST_AsGeoJSON(mc.geometry)::json AS geojson,
		ST_Distance(mc.geometry, up.geom) / 1000 AS distance_km
	FROM (
		`)
	b.WriteString(entityUnion(kinds))
	b.WriteString(`
	) entities
	`)
	if len(p.SpeciesPatterns) > 0 {
		b.WriteString(speciesJoin)
		b.WriteString("\n\t")
	}
	b.WriteString(geometryJoin)
	b.WriteString(`
	CROSS JOIN user_point up
	WHERE ST_DWithin(mc.geometry, up.geom, ? * 1000)
	`)
	args = append(args, p.RadiusKm)

	if len(p.SpeciesPatterns) > 0 {
		speciesSQL, speciesArgs := speciesPredicate(p.SpeciesPatterns, p.StoplistLevel)
		b.WriteString(speciesSQL)
		b.WriteString("\n\t")
		args = append(args, speciesArgs...)
	}

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
