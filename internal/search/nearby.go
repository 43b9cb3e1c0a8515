package search

import (
	"context"
	"sort"
	"strings"

	"github.com/taigabase/geobase/internal/geo"
	"github.com/taigabase/geobase/internal/maprender"
	"github.com/taigabase/geobase/internal/querycache"
	"github.com/taigabase/geobase/internal/ranking"
	"github.com/taigabase/geobase/internal/spatial"
)

// Nearby searches for objects within a radius of a point. Results are
// memoized per rounded coordinates, so requests a few meters apart share an
// entry.
func (s *Service) Nearby(ctx context.Context, req *NearbyRequest) (*Result, error) {
	limit := s.normalizeLimit(req.Limit)
	level := s.normalizeLevel(req.StoplistLevel)

	// Rounded once, used for both the fingerprint and the query, so the
	// cached payload stays a pure function of its key.
	center := geo.LatLon{Lat: querycache.RoundCoord(req.Lat), Lon: querycache.RoundCoord(req.Lon)}
	radius := querycache.RoundRadius(req.RadiusKm)

	patterns := s.expandSpecies(req.Species)

	params := map[string]any{
		"lat":    center.Lat,
		"lon":    center.Lon,
		"radius": radius,
		"limit":  limit,
		"level":  level,
	}
	if req.ObjectType != "" {
		params["object_type"] = req.ObjectType
	}
	if len(patterns) > 0 {
		params["species"] = patterns
	}
	key := querycache.Fingerprint(querycache.NamespaceCoords, params)

	return s.cached(ctx, key, s.settings.Cache.CoordsTTL, func(ctx context.Context) (*Result, error) {
		query, err := spatial.BuildRadiusQuery(spatial.RadiusParams{
			Center:          center,
			RadiusKm:        radius,
			Limit:           limit,
			ObjectType:      req.ObjectType,
			SpeciesPatterns: patterns,
			StoplistLevel:   level,
		})
		if err != nil {
			return nil, err
		}

		rows, err := s.ds.SearchObjects(ctx, query)
		if err != nil {
			return nil, err
		}

		visible, hidden := filterRows(rows, level)
		objects := ranking.Cap(ranking.Merge(toObjects(visible), nil), limit)

		features := make([]maprender.Feature, 0, len(objects))
		for i := range objects {
			features = append(features, featureForObject(&objects[i]))
		}

		return &Result{
			Objects:     objects,
			Count:       len(objects),
			HiddenCount: len(hidden),
			Map:         s.render(ctx, features, mapName(key)),
		}, nil
	})
}

// expandSpecies turns requested species names into canonical ILIKE patterns
// through the synonym index. Unknown names pass through literally.
func (s *Service) expandSpecies(species []string) []string {
	if len(species) == 0 {
		return nil
	}
	canonical := make(map[string]struct{})
	for _, name := range species {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if s.synonyms == nil {
			canonical[name] = struct{}{}
			continue
		}
		res := s.synonyms.Resolve(name, "biological_entity")
		canonical[strings.ToLower(res.CanonicalName)] = struct{}{}
	}

	patterns := make([]string, 0, len(canonical))
	for name := range canonical {
		patterns = append(patterns, "%"+name+"%")
	}
	sort.Strings(patterns)
	return patterns
}

// RadiusIntersection reports how a search circle overlaps the stored map
// geometries. Nil result means the circle touches nothing.
func (s *Service) RadiusIntersection(ctx context.Context, center geo.LatLon, radiusKm float64) (*IntersectionResult, error) {
	query, err := spatial.BuildRadiusIntersectionQuery(center, radiusKm)
	if err != nil {
		return nil, err
	}
	row, err := s.ds.RadiusIntersection(ctx, query)
	if err != nil {
		return nil, err
	}
	if row == nil || len(row.Intersection) == 0 {
		return nil, nil
	}
	return &IntersectionResult{
		Intersection: row.Intersection,
		Regions:      row.Regions,
	}, nil
}
