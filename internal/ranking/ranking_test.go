package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func TestNewObject(t *testing.T) {
	t.Parallel()

	t.Run("plain content wins", func(t *testing.T) {
		t.Parallel()
		obj, ok := NewObject(7, "Эдельвейс", "biological", "Горное растение семейства астровых.", map[string]any{
			"ecology": map[string]any{"habitat": "скалы"},
		})
		require.True(t, ok)
		assert.Equal(t, SourceContent, obj.Source)
		assert.Equal(t, "Горное растение семейства астровых.", obj.Content)
	})

	t.Run("falls back to structured data", func(t *testing.T) {
		t.Parallel()
		obj, ok := NewObject(7, "Эдельвейс", "biological", "", map[string]any{
			"ecology": map[string]any{"habitat": "Скалы и осыпи"},
		})
		require.True(t, ok)
		assert.Equal(t, SourceStructuredData, obj.Source)
		assert.Contains(t, obj.Content, "Местообитание")
	})

	t.Run("dropped when nothing usable", func(t *testing.T) {
		t.Parallel()
		_, ok := NewObject(7, "Эдельвейс", "biological", "", map[string]any{
			"media": map[string]any{"photo": "x.jpg"},
		})
		assert.False(t, ok)
	})
}

func TestSpatialObject(t *testing.T) {
	t.Parallel()

	t.Run("keeps row without any text", func(t *testing.T) {
		t.Parallel()
		// Landmark rows often carry only safety and type tags, neither of
		// which is content. The row must still become a result.
		obj := SpatialObject(7, "Мыс Хобой", "geographical_entity", "", map[string]any{
			"in_stoplist": float64(0),
			"geo_type":    map[string]any{"primary_type": []any{"natural"}},
		})
		assert.Equal(t, int64(7), obj.ID)
		assert.Equal(t, "Мыс Хобой", obj.Name)
		assert.Equal(t, "geographical_entity", obj.ObjectType)
		assert.Empty(t, obj.Content)
		assert.Empty(t, obj.Source)
	})

	t.Run("decorates content when present", func(t *testing.T) {
		t.Parallel()
		obj := SpatialObject(8, "Шаманка", "geographical_entity", "Скала на Ольхоне.", nil)
		assert.Equal(t, SourceContent, obj.Source)
		assert.Equal(t, "Скала на Ольхоне.", obj.Content)
	})
}

func TestMergeSimilarityPrimary(t *testing.T) {
	t.Parallel()

	distance := []Object{
		{ID: 1, Name: "Кедр сибирский", ObjectType: "biological", DistanceKm: fptr(0.4)},
		{ID: 2, Name: "Багульник", ObjectType: "biological", DistanceKm: fptr(1.2)},
	}
	similarity := []Object{
		{ID: 3, Name: "Ольхон", ObjectType: "geographical", Similarity: fptr(0.91)},
		{ID: 2, Name: "Багульник", ObjectType: "biological", Similarity: fptr(0.97)},
	}

	got := Merge(distance, similarity)
	require.Len(t, got, 3)

	// Similarity-bearing records lead, descending.
	assert.Equal(t, int64(2), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
	// Distance-only record trails.
	assert.Equal(t, int64(1), got[2].ID)
	// Duplicate inherited its distance score.
	require.NotNil(t, got[0].DistanceKm)
	assert.InDelta(t, 1.2, *got[0].DistanceKm, 1e-9)
}

func TestMergeDistanceOnly(t *testing.T) {
	t.Parallel()

	distance := []Object{
		{ID: 5, Name: "Шаманка", ObjectType: "geographical", DistanceKm: fptr(3.1)},
		{ID: 6, Name: "Хужир", ObjectType: "geographical", DistanceKm: fptr(0.8)},
		{ID: 7, Name: "Сарайский пляж", ObjectType: "geographical", DistanceKm: fptr(0.8)},
	}

	got := Merge(distance, nil)
	require.Len(t, got, 3)
	assert.Equal(t, "Сарайский пляж", got[0].Name) // name breaks the 0.8 tie
	assert.Equal(t, "Хужир", got[1].Name)
	assert.Equal(t, "Шаманка", got[2].Name)
}

func TestMergePrefixStability(t *testing.T) {
	t.Parallel()

	distance := []Object{
		{ID: 1, Name: "a", ObjectType: "biological", DistanceKm: fptr(2.0)},
		{ID: 2, Name: "b", ObjectType: "biological", DistanceKm: fptr(1.0)},
		{ID: 3, Name: "c", ObjectType: "biological", DistanceKm: fptr(3.0)},
	}
	similarity := []Object{
		{ID: 4, Name: "d", ObjectType: "text", Similarity: fptr(0.5)},
	}

	full := Merge(distance, similarity)
	short := Cap(Merge(distance, similarity), 2)
	require.Len(t, short, 2)
	assert.Equal(t, full[:2], short)
}

func TestCap(t *testing.T) {
	t.Parallel()

	objs := []Object{{ID: 1}, {ID: 2}}
	assert.Len(t, Cap(objs, 1), 1)
	assert.Len(t, Cap(objs, 0), 2)
	assert.Len(t, Cap(objs, 10), 2)
}
