package search

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/taigabase/geobase/internal/errors"
	"github.com/taigabase/geobase/internal/geo"
	"github.com/taigabase/geobase/internal/maprender"
	"github.com/taigabase/geobase/internal/querycache"
	"github.com/taigabase/geobase/internal/ranking"
	"github.com/taigabase/geobase/internal/spatial"
)

// resolveAreaGeometry turns an area name into a stored geometry: synonym
// resolution first, then the title preference ranking over candidate rows.
func (s *Service) resolveAreaGeometry(ctx context.Context, name string) (json.RawMessage, *AreaInfo, error) {
	if s.synonyms != nil {
		if res := s.synonyms.Resolve(name, ""); res.Resolved {
			name = res.CanonicalName
		}
	}

	query, err := spatial.BuildAreaCandidatesQuery(name)
	if err != nil {
		return nil, nil, err
	}
	candidates, err := s.ds.AreaCandidates(ctx, query)
	if err != nil {
		return nil, nil, err
	}

	chosen, ok := spatial.ChooseArea(candidates, name)
	if !ok {
		return nil, nil, errors.Newf("no geometry found for area %q", name).
			Component("search").
			Category(errors.CategoryNotFound).
			Context("area_name", name).
			Build()
	}

	info := &AreaInfo{
		ID:       chosen.ID,
		Title:    chosen.Title,
		Source:   chosen.Source,
		Geometry: chosen.Geometry,
	}
	if center, err := geo.Centroid(chosen.Geometry); err == nil {
		info.Center = &center
	}
	return chosen.Geometry, info, nil
}

// InArea searches a named area and tags every result inside or around the
// original boundary. The area must resolve to a stored geometry, otherwise
// the search fails with a not-found outcome.
func (s *Service) InArea(ctx context.Context, req *AreaRequest) (*Result, error) {
	if strings.TrimSpace(req.AreaName) == "" {
		return nil, errors.Newf("area name is required").
			Component("search").
			Category(errors.CategoryValidation).
			Build()
	}

	geometry, areaInfo, err := s.resolveAreaGeometry(ctx, req.AreaName)
	if err != nil {
		return nil, err
	}

	limit := s.normalizeLimit(req.Limit)
	level := s.normalizeLevel(req.StoplistLevel)
	buffer := 0.0
	if req.SearchAround {
		// Rounded once so the fingerprint and the query agree.
		buffer = querycache.RoundRadius(req.BufferRadiusKm)
	}

	params := map[string]any{
		"area_id": areaInfo.ID,
		"buffer":  buffer,
		"limit":   limit,
		"level":   level,
	}
	if req.ObjectType != "" {
		params["object_type"] = req.ObjectType
	}
	if req.ObjectSubtype != "" {
		params["object_subtype"] = req.ObjectSubtype
	}
	if req.ObjectName != "" {
		params["object_name"] = strings.ToLower(req.ObjectName)
	}
	key := querycache.Fingerprint(querycache.NamespaceArea, params)

	return s.cached(ctx, key, s.settings.Cache.AreaTTL, func(ctx context.Context) (*Result, error) {
		// Named-area searches run over places; the requested type filters
		// the geoType tags, not the union membership.
		query, err := spatial.BuildAreaObjectsQuery(spatial.AreaParams{
			AreaGeoJSON:    geometry,
			BufferRadiusKm: buffer,
			Limit:          limit,
			ObjectType:     string(spatial.KindGeographical),
			Filters: spatial.Filters{
				Name:    req.ObjectName,
				Type:    req.ObjectType,
				Subtype: req.ObjectSubtype,
			},
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

		// The search area itself leads the map, then the objects.
		features := make([]maprender.Feature, 0, len(objects)+1)
		features = append(features, maprender.Feature{
			Geometry:  geometry,
			Tooltip:   "Область поиска: " + areaInfo.Title,
			PopupHTML: "<h6>" + areaInfo.Title + "</h6><p>Область поиска</p>",
		})
		for i := range objects {
			features = append(features, featureForObject(&objects[i]))
		}

		return &Result{
			Objects:            objects,
			Count:              len(objects),
			HiddenCount:        len(hidden),
			Area:               areaInfo,
			AllBiologicalNames: biologicalNames(objects),
			Map:                s.render(ctx, features, mapName(key)),
		}, nil
	})
}
