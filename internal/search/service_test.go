package search

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigabase/geobase/internal/conf"
	"github.com/taigabase/geobase/internal/datastore"
	"github.com/taigabase/geobase/internal/errors"
	"github.com/taigabase/geobase/internal/maprender"
	"github.com/taigabase/geobase/internal/querycache"
	"github.com/taigabase/geobase/internal/spatial"
	"github.com/taigabase/geobase/internal/synonyms"
)

// fakeStore scripts datastore responses and counts executions.
type fakeStore struct {
	objects    []spatial.ObjectRow
	candidates []spatial.AreaCandidate

	searchCalls int
	lastQuery   spatial.Query
}

func (f *fakeStore) Open() error  { return nil }
func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) SearchObjects(_ context.Context, q spatial.Query) ([]spatial.ObjectRow, error) {
	f.searchCalls++
	f.lastQuery = q
	return f.objects, nil
}

func (f *fakeStore) AreaCandidates(context.Context, spatial.Query) ([]spatial.AreaCandidate, error) {
	return f.candidates, nil
}

func (f *fakeStore) RadiusIntersection(context.Context, spatial.Query) (*spatial.IntersectionRow, error) {
	return nil, nil
}

func (f *fakeStore) BufferGeometry(context.Context, spatial.Query) (json.RawMessage, error) {
	return json.RawMessage(`{"type":"Polygon","coordinates":[]}`), nil
}

func (f *fakeStore) GetGeographicalEntity(context.Context, uint) (datastore.GeographicalEntity, error) {
	return datastore.GeographicalEntity{}, nil
}

func (f *fakeStore) GetBiologicalEntity(context.Context, uint) (datastore.BiologicalEntity, error) {
	return datastore.BiologicalEntity{}, nil
}

func (f *fakeStore) Descriptions(context.Context, string, string) ([]datastore.TextContent, error) {
	return nil, nil
}

func (f *fakeStore) SaveMapContent(context.Context, *datastore.MapContent, []datastore.EntityGeoLink) error {
	return nil
}

// recordingRenderer captures render calls.
type recordingRenderer struct {
	calls    int
	lastName string
	features []maprender.Feature
}

func (r *recordingRenderer) Render(_ context.Context, features []maprender.Feature, name string) (maprender.Artifacts, error) {
	r.calls++
	r.lastName = name
	r.features = features
	return maprender.Artifacts{
		StaticImageURL: "https://maps.example.org/" + name + ".png",
		InteractiveURL: "https://maps.example.org/" + name + ".html",
	}, nil
}

func testSettings() *conf.Settings {
	settings := &conf.Settings{}
	settings.Search.DefaultLimit = 20
	settings.Search.MaxLimit = 70
	settings.Search.DefaultSafetyLevel = 1
	settings.Cache.CoordsTTL = 10 * time.Minute
	settings.Cache.PolygonTTL = 30 * time.Minute
	settings.Cache.AreaTTL = 6 * time.Hour
	settings.MapRender.Enabled = true
	return settings
}

func testIndex(t *testing.T) *synonyms.Index {
	t.Helper()
	return synonyms.NewIndex(synonyms.Table{
		"biological_entity": {
			"эдельвейс":      {"Leontopodium", "эдэльвейс"},
			"кедр сибирский": {"сибирский кедр", "сосна сибирская кедровая"},
		},
		"geographical_entity": {
			"остров ольхон": {"ольхон"},
		},
	})
}

func levelFeature(level any) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{"in_stoplist": level})
	return raw
}

func pointGeoJSON() json.RawMessage {
	return json.RawMessage(`{"type":"Point","coordinates":[107.34,53.2]}`)
}

func newTestService(store *fakeStore, renderer maprender.Renderer) *Service {
	cache := querycache.New(querycache.NewMemoryStore(), nil)
	return New(store, nil, cache, renderer, testSettings(), nil)
}

func TestNearbyFiltersAndRanks(t *testing.T) {
	t.Parallel()

	store := &fakeStore{objects: []spatial.ObjectRow{
		{ID: 1, Name: "Багульник", Type: "biological_entity", Description: "Кустарник.", GeoJSON: pointGeoJSON(), DistanceKm: 2.5},
		{ID: 2, Name: "Копеечник зундукский", Type: "biological_entity", Description: "Эндемик.", GeoJSON: pointGeoJSON(), DistanceKm: 0.7, FeatureData: levelFeature(3)},
		{ID: 3, Name: "Мыс Бурхан", Type: "geographical_entity", Description: "Скала.", GeoJSON: pointGeoJSON(), DistanceKm: 1.1},
		// No description, only type tags. Still a result.
		{ID: 4, Name: "Мыс Хобой", Type: "geographical_entity", GeoJSON: pointGeoJSON(), DistanceKm: 0.9,
			FeatureData: json.RawMessage(`{"geo_type":{"primary_type":["natural"]}}`)},
	}}
	renderer := &recordingRenderer{}
	svc := newTestService(store, renderer)

	result, err := svc.Nearby(context.Background(), &NearbyRequest{
		Lat: 53.2, Lon: 107.34, RadiusKm: 5,
	})
	require.NoError(t, err)

	// The level-3 record is withheld at the default level 1; the
	// descriptionless landmark is not.
	require.Len(t, result.Objects, 3)
	assert.Equal(t, 1, result.HiddenCount)
	assert.Equal(t, "Мыс Хобой", result.Objects[0].Name)
	assert.Empty(t, result.Objects[0].Content)
	assert.Equal(t, "Мыс Бурхан", result.Objects[1].Name)
	assert.Equal(t, "Багульник", result.Objects[2].Name)

	require.NotNil(t, result.Map)
	assert.Contains(t, result.Map.StaticImageURL, "coords_search_")
	assert.Equal(t, 1, renderer.calls)
}

func TestNearbyComputesOncePerFingerprint(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	svc := newTestService(store, nil)

	req := &NearbyRequest{Lat: 53.20001, Lon: 107.34, RadiusKm: 5}
	_, err := svc.Nearby(context.Background(), req)
	require.NoError(t, err)

	// Within coordinate rounding distance of the first request.
	req2 := &NearbyRequest{Lat: 53.20003, Lon: 107.34, RadiusKm: 5.01}
	_, err = svc.Nearby(context.Background(), req2)
	require.NoError(t, err)
	assert.Equal(t, 1, store.searchCalls)

	// A different radius is a different query.
	req3 := &NearbyRequest{Lat: 53.20001, Lon: 107.34, RadiusKm: 7}
	_, err = svc.Nearby(context.Background(), req3)
	require.NoError(t, err)
	assert.Equal(t, 2, store.searchCalls)
}

func TestNearbyQueriesRoundedValues(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	svc := newTestService(store, nil)

	// Two requests inside the same rounding bucket share a cache key, so
	// the executed query must use the rounded values too or the cached
	// payload would depend on which caller computed it.
	_, err := svc.Nearby(context.Background(), &NearbyRequest{Lat: 53.20004, Lon: 107.34, RadiusKm: 5.04})
	require.NoError(t, err)

	assert.Contains(t, store.lastQuery.Args, 53.2)
	assert.Contains(t, store.lastQuery.Args, 107.34)
	assert.Contains(t, store.lastQuery.Args, 5.0)
	assert.NotContains(t, store.lastQuery.Args, 5.04)
	assert.NotContains(t, store.lastQuery.Args, 53.20004)
}

func TestNearbyLimitNormalization(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	svc := newTestService(store, nil)

	_, err := svc.Nearby(context.Background(), &NearbyRequest{Lat: 53.2, Lon: 107.3, RadiusKm: 5, Limit: 500})
	require.NoError(t, err)
	assert.Contains(t, store.lastQuery.Args, 70, "limit capped at the maximum")

	_, err = svc.Nearby(context.Background(), &NearbyRequest{Lat: 53.3, Lon: 107.3, RadiusKm: 5})
	require.NoError(t, err)
	assert.Contains(t, store.lastQuery.Args, 20, "default limit applied")
}

func TestExpandSpecies(t *testing.T) {
	t.Parallel()

	svc := New(&fakeStore{}, testIndex(t), nil, nil, testSettings(), nil)

	patterns := svc.expandSpecies([]string{"Leontopodium", "сибирский кедр", "эдельвейс"})
	assert.Equal(t, []string{"%кедр сибирский%", "%эдельвейс%"}, patterns)

	// Unknown names pass through literally.
	patterns = svc.expandSpecies([]string{"черемша"})
	assert.Equal(t, []string{"%черемша%"}, patterns)
}

func TestInAreaNotFound(t *testing.T) {
	t.Parallel()

	store := &fakeStore{} // no candidates
	svc := newTestService(store, nil)

	_, err := svc.InArea(context.Background(), &AreaRequest{AreaName: "атлантида"})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryNotFound, errors.CategoryOf(err))

	_, err = svc.InArea(context.Background(), &AreaRequest{AreaName: "  "})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
}

func TestInAreaClassification(t *testing.T) {
	t.Parallel()

	areaPolygon := json.RawMessage(`{"type":"Polygon","coordinates":[[[106.95,53.0],[107.8,53.0],[107.8,53.45],[106.95,53.45],[106.95,53.0]]]}`)
	store := &fakeStore{
		candidates: []spatial.AreaCandidate{
			{ID: 10, Title: "Остров Ольхон", Source: "map_content", Geometry: areaPolygon},
		},
		objects: []spatial.ObjectRow{
			{ID: 1, Name: "Хужир", Type: "geographical_entity", Description: "Посёлок.", GeoJSON: pointGeoJSON(), DistanceKm: 1.0, LocationType: "inside"},
			{ID: 2, Name: "Ольхонские ворота", Type: "geographical_entity", Description: "Пролив.", GeoJSON: pointGeoJSON(), DistanceKm: 3.0, LocationType: "around"},
		},
	}
	renderer := &recordingRenderer{}
	svc := New(store, testIndex(t), querycache.New(querycache.NewMemoryStore(), nil), renderer, testSettings(), nil)

	result, err := svc.InArea(context.Background(), &AreaRequest{
		AreaName:       "ольхон",
		SearchAround:   true,
		BufferRadiusKm: 5,
	})
	require.NoError(t, err)

	require.NotNil(t, result.Area)
	assert.Equal(t, "Остров Ольхон", result.Area.Title)
	require.Len(t, result.Objects, 2)
	assert.Equal(t, "inside", result.Objects[0].LocationType)
	assert.Equal(t, "around", result.Objects[1].LocationType)

	// The area polygon leads the rendered features.
	require.NotEmpty(t, renderer.features)
	assert.Contains(t, renderer.features[0].Tooltip, "Область поиска")
	assert.Contains(t, renderer.lastName, "area_search_")
}

func TestInPolygonGrouping(t *testing.T) {
	t.Parallel()

	sharedGeom := json.RawMessage(`{"type":"Point","coordinates":[107.1,53.1]}`)
	store := &fakeStore{objects: []spatial.ObjectRow{
		{ID: 1, Name: "Эдельвейс", Type: "biological_entity", Description: "Растение.", GeoJSON: sharedGeom, DistanceKm: 0.2},
		{ID: 2, Name: "Астрагал ольхонский", Type: "biological_entity", Description: "Эндемик.", GeoJSON: sharedGeom, DistanceKm: 0.2},
		{ID: 3, Name: "Тимьян", Type: "biological_entity", Description: "Трава.", GeoJSON: sharedGeom, DistanceKm: 0.2},
		{ID: 4, Name: "Овсяница ленская", Type: "biological_entity", Description: "Злак.", GeoJSON: sharedGeom, DistanceKm: 0.2},
	}}
	renderer := &recordingRenderer{}
	svc := newTestService(store, renderer)

	polygon := json.RawMessage(`{"type":"Polygon","coordinates":[[[106.95,53.0],[107.8,53.0],[107.8,53.45],[106.95,53.45],[106.95,53.0]]]}`)
	result, err := svc.InPolygon(context.Background(), &PolygonRequest{Polygon: polygon})
	require.NoError(t, err)

	// Four species share one geometry: a single feature, tooltip collapsed.
	require.Len(t, renderer.features, 1)
	assert.Contains(t, renderer.features[0].Tooltip, "и еще 1...")
	require.Len(t, result.GroupedNames, 1)
	assert.Len(t, result.AllBiologicalNames, 4)
	assert.Equal(t, json.RawMessage(polygon), result.Polygon)
}

func TestInPolygonRequiresInput(t *testing.T) {
	t.Parallel()

	svc := newTestService(&fakeStore{}, nil)
	_, err := svc.InPolygon(context.Background(), &PolygonRequest{})
	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.CategoryOf(err))
}

func TestCachedResultIncludesMapArtifacts(t *testing.T) {
	t.Parallel()

	store := &fakeStore{objects: []spatial.ObjectRow{
		{ID: 1, Name: "Шаманка", Type: "geographical_entity", Description: "Скала.", GeoJSON: pointGeoJSON(), DistanceKm: 0.5},
	}}
	renderer := &recordingRenderer{}
	svc := newTestService(store, renderer)

	req := &NearbyRequest{Lat: 53.2, Lon: 107.34, RadiusKm: 5}
	first, err := svc.Nearby(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Nearby(context.Background(), req)
	require.NoError(t, err)

	// The hit replays the stored payload, renderer untouched.
	assert.Equal(t, 1, renderer.calls)
	require.NotNil(t, second.Map)
	assert.Equal(t, first.Map.StaticImageURL, second.Map.StaticImageURL)
}
