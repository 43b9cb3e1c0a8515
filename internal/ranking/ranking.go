// Package ranking merges distance-ranked and similarity-ranked search
// results into one ordered object list.
package ranking

import (
	"encoding/json"
	"sort"
)

// Source tags where an object's content came from.
type Source string

const (
	SourceContent        Source = "content"
	SourceStructuredData Source = "structuredData"
)

// Object is the merged result shape shared by every search mode.
type Object struct {
	ID           int64           `json:"id,omitempty"`
	Name         string          `json:"name"`
	ObjectType   string          `json:"type"`
	Description  string          `json:"description,omitempty"`
	Content      string          `json:"content,omitempty"`
	Source       Source          `json:"source,omitempty"`
	DistanceKm   *float64        `json:"distanceKm,omitempty"`
	Similarity   *float64        `json:"similarity,omitempty"`
	Geometry     json.RawMessage `json:"geojson,omitempty"`
	LocationType string          `json:"locationType,omitempty"`
}

// NewObject assembles an object from its primary text field and an optional
// structured attributes document. When the primary field is empty, content
// is synthesized from the structured document and the object is tagged
// SourceStructuredData. Returns false when neither yields usable content.
func NewObject(id int64, name, objectType, content string, structured map[string]any) (Object, bool) {
	obj := Object{ID: id, Name: name, ObjectType: objectType}
	if content != "" {
		obj.Content = content
		obj.Source = SourceContent
		return obj, true
	}
	extracted := ExtractStructuredContent(structured)
	if extracted == "" {
		return Object{}, false
	}
	obj.Content = extracted
	obj.Source = SourceStructuredData
	return obj, true
}

// SpatialObject assembles an object for a geometry-bearing row. Unlike
// NewObject it never drops the row: a named, located result is valid with
// just its distance and geometry, so missing text only leaves Content
// empty. The content/source decoration follows NewObject.
func SpatialObject(id int64, name, objectType, content string, structured map[string]any) Object {
	if obj, ok := NewObject(id, name, objectType, content, structured); ok {
		return obj
	}
	return Object{ID: id, Name: name, ObjectType: objectType}
}

type mergeKey struct {
	objectType string
	id         int64
	name       string
}

func keyOf(o *Object) mergeKey {
	if o.ID != 0 {
		return mergeKey{objectType: o.ObjectType, id: o.ID}
	}
	return mergeKey{objectType: o.ObjectType, name: o.Name}
}

// Merge combines distance-ranked and similarity-ranked result sets. When an
// object appears in both, the similarity record wins and inherits the
// distance score. Similarity is the primary sort key (descending) whenever
// any record carries one; otherwise distance sorts ascending. Ordering is
// total so a shorter limit is always a prefix of a longer one.
func Merge(distanceResults, similarityResults []Object) []Object {
	merged := make([]Object, 0, len(distanceResults)+len(similarityResults))
	index := make(map[mergeKey]int, len(similarityResults))

	for _, o := range similarityResults {
		index[keyOf(&o)] = len(merged)
		merged = append(merged, o)
	}
	for _, o := range distanceResults {
		if i, ok := index[keyOf(&o)]; ok {
			if merged[i].DistanceKm == nil {
				merged[i].DistanceKm = o.DistanceKm
			}
			if merged[i].Geometry == nil {
				merged[i].Geometry = o.Geometry
			}
			continue
		}
		merged = append(merged, o)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return less(&merged[i], &merged[j])
	})
	return merged
}

func less(a, b *Object) bool {
	// Similarity first, descending; objects without a similarity score
	// sort after those with one.
	switch {
	case a.Similarity != nil && b.Similarity != nil:
		if *a.Similarity != *b.Similarity {
			return *a.Similarity > *b.Similarity
		}
	case a.Similarity != nil:
		return true
	case b.Similarity != nil:
		return false
	}

	// Then distance, ascending; objects without distance sort last.
	switch {
	case a.DistanceKm != nil && b.DistanceKm != nil:
		if *a.DistanceKm != *b.DistanceKm {
			return *a.DistanceKm < *b.DistanceKm
		}
	case a.DistanceKm != nil:
		return true
	case b.DistanceKm != nil:
		return false
	}

	// Deterministic tie-break.
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}

// Cap truncates an ordered result list to the limit. Non-positive limits
// leave the list unchanged.
func Cap(objects []Object, limit int) []Object {
	if limit <= 0 || len(objects) <= limit {
		return objects
	}
	return objects[:limit]
}
