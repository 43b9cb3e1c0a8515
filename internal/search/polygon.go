package search

import (
	"context"
	"encoding/json"

	"github.com/taigabase/geobase/internal/errors"
	"github.com/taigabase/geobase/internal/querycache"
	"github.com/taigabase/geobase/internal/ranking"
	"github.com/taigabase/geobase/internal/spatial"
)

// InPolygon searches for objects intersecting a polygon grown by the buffer
// radius. Objects sharing one geometry are grouped into a single map
// feature.
func (s *Service) InPolygon(ctx context.Context, req *PolygonRequest) (*Result, error) {
	if len(req.Polygon) == 0 && req.Name == "" {
		return nil, errors.Newf("either polygon or name is required").
			Component("search").
			Category(errors.CategoryValidation).
			Build()
	}

	polygon := req.Polygon
	var area *AreaInfo
	if len(polygon) == 0 {
		resolved, info, err := s.resolveAreaGeometry(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		polygon = resolved
		area = info
	}

	limit := s.normalizeLimit(req.Limit)
	level := s.normalizeLevel(req.StoplistLevel)
	// The rounded buffer feeds the fingerprint and the query alike.
	buffer := querycache.RoundRadius(req.BufferRadiusKm)

	params := map[string]any{
		"polygon": canonicalGeometry(polygon),
		"buffer":  buffer,
		"limit":   limit,
		"level":   level,
	}
	if req.ObjectType != "" {
		params["object_type"] = req.ObjectType
	}
	key := querycache.Fingerprint(querycache.NamespacePolygon, params)

	return s.cached(ctx, key, s.settings.Cache.PolygonTTL, func(ctx context.Context) (*Result, error) {
		query, err := spatial.BuildPolygonQuery(spatial.PolygonParams{
			PolygonGeoJSON: polygon,
			BufferRadiusKm: buffer,
			Limit:          limit,
			ObjectType:     req.ObjectType,
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

		features, groupedNames := groupByGeometry(objects)

		result := &Result{
			Objects:            objects,
			Count:              len(objects),
			HiddenCount:        len(hidden),
			Area:               area,
			GroupedNames:       groupedNames,
			AllBiologicalNames: biologicalNames(objects),
			Map:                s.render(ctx, features, mapName(key)),
		}

		// Report the effective search area when a buffer was applied.
		if buffer > 0 {
			if bufferQuery, err := spatial.BuildBufferQuery(polygon, buffer); err == nil {
				if buffered, err := s.ds.BufferGeometry(ctx, bufferQuery); err == nil {
					result.Polygon = buffered
				} else {
					s.logger.Warn("buffer geometry computation failed", "error", err)
				}
			}
		} else {
			result.Polygon = polygon
		}
		return result, nil
	})
}

// canonicalGeometry decodes raw GeoJSON for fingerprinting so formatting
// and key order do not split cache entries.
func canonicalGeometry(raw json.RawMessage) any {
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return string(raw)
	}
	return decoded
}
