// Package search orchestrates the query pipeline: synonym resolution, cache
// lookup, spatial query execution, safety filtering, ranking, and map
// rendering.
package search

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/taigabase/geobase/internal/conf"
	"github.com/taigabase/geobase/internal/datastore"
	"github.com/taigabase/geobase/internal/errors"
	"github.com/taigabase/geobase/internal/maprender"
	"github.com/taigabase/geobase/internal/querycache"
	"github.com/taigabase/geobase/internal/ranking"
	"github.com/taigabase/geobase/internal/safety"
	"github.com/taigabase/geobase/internal/spatial"
	"github.com/taigabase/geobase/internal/synonyms"
)

// Service runs searches end to end. All fields are read-only after New, so
// one Service serves concurrent requests without locking.
type Service struct {
	ds       datastore.Interface
	synonyms *synonyms.Index
	cache    *querycache.Cache
	renderer maprender.Renderer
	settings *conf.Settings
	logger   *slog.Logger
}

// New assembles a search service. A nil cache disables memoization, a nil
// renderer disables map artifacts.
func New(ds datastore.Interface, idx *synonyms.Index, cache *querycache.Cache, renderer maprender.Renderer, settings *conf.Settings, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		renderer = maprender.Noop{}
	}
	return &Service{
		ds:       ds,
		synonyms: idx,
		cache:    cache,
		renderer: renderer,
		settings: settings,
		logger:   logger.With("service", "search"),
	}
}

// normalizeLimit applies the configured default and hard cap.
func (s *Service) normalizeLimit(limit int) int {
	if limit <= 0 {
		return s.settings.Search.DefaultLimit
	}
	if limit > s.settings.Search.MaxLimit {
		return s.settings.Search.MaxLimit
	}
	return limit
}

// normalizeLevel applies the configured default safety level.
func (s *Service) normalizeLevel(level *int) int {
	if level == nil {
		return s.settings.Search.DefaultSafetyLevel
	}
	return *level
}

// cached runs compute through the query cache when one is configured. The
// cache never fails a request: any store trouble already degraded to a miss
// inside the cache.
func (s *Service) cached(ctx context.Context, key string, ttl time.Duration, compute func(context.Context) (*Result, error)) (*Result, error) {
	if s.cache == nil {
		return compute(ctx)
	}

	payload, err := s.cache.GetOrCompute(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)
	})
	if err != nil {
		return nil, err
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, errors.New(err).
			Component("search").
			Category(errors.CategoryDataShape).
			Context("key", key).
			Build()
	}
	return &result, nil
}

// mapName derives a deterministic artifact name from a cache key, so
// rendered maps and cache entries share a lifecycle.
func mapName(cacheKey string) string {
	return strings.ReplaceAll(cacheKey, ":", "_")
}

// render draws the map artifacts. Rendering trouble costs the artifacts,
// never the search.
func (s *Service) render(ctx context.Context, features []maprender.Feature, name string) *maprender.Artifacts {
	if !s.settings.MapRender.Enabled || len(features) == 0 {
		return nil
	}
	artifacts, err := s.renderer.Render(ctx, features, name)
	if err != nil {
		s.logger.Warn("map rendering failed, artifacts omitted", "name", name, "error", err)
		return nil
	}
	if artifacts.StaticImageURL == "" && artifacts.InteractiveURL == "" {
		return nil
	}
	return &artifacts
}

// filterRows partitions rows by the stoplist predicate.
func filterRows(rows []spatial.ObjectRow, level int) (visible, hidden []*spatial.ObjectRow) {
	ptrs := make([]*spatial.ObjectRow, len(rows))
	for i := range rows {
		ptrs[i] = &rows[i]
	}
	return safety.Filter(ptrs, level)
}

// toObjects converts visible rows to the merged object model. A spatial
// row keeps its place in the results even without text; the description is
// optional, the location is not.
func toObjects(rows []*spatial.ObjectRow) []ranking.Object {
	objects := make([]ranking.Object, 0, len(rows))
	for _, r := range rows {
		obj := ranking.SpatialObject(r.ID, r.Name, r.Type, r.Description, r.Features())
		d := r.DistanceKm
		obj.DistanceKm = &d
		obj.Geometry = r.GeoJSON
		obj.LocationType = r.LocationType
		objects = append(objects, obj)
	}
	return objects
}
