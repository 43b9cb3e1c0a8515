package spatial

import (
	"encoding/json"

	"github.com/taigabase/geobase/internal/safety"
)

// Query is a ready-to-execute SQL statement with positional arguments.
type Query struct {
	SQL  string
	Args []any
}

// ObjectRow is the shared row shape every search mode scans into.
type ObjectRow struct {
	ID           int64           `gorm:"column:id"`
	Name         string          `gorm:"column:name"`
	Description  string          `gorm:"column:description"`
	Type         string          `gorm:"column:type"`
	FeatureData  json.RawMessage `gorm:"column:feature_data"`
	GeoJSON      json.RawMessage `gorm:"column:geojson"`
	DistanceKm   float64         `gorm:"column:distance_km"`
	LocationType string          `gorm:"column:location_type"`
}

// StoplistLevel implements safety.Leveler by decoding the stored
// inStoplist value, whatever shape it arrived in.
func (r *ObjectRow) StoplistLevel() *int {
	if len(r.FeatureData) == 0 {
		return nil
	}
	var features map[string]any
	if err := json.Unmarshal(r.FeatureData, &features); err != nil {
		return nil
	}
	return safety.DecodeLevel(features["in_stoplist"])
}

// Features decodes the feature data document. Returns nil on absent or
// malformed data.
func (r *ObjectRow) Features() map[string]any {
	if len(r.FeatureData) == 0 {
		return nil
	}
	var features map[string]any
	if err := json.Unmarshal(r.FeatureData, &features); err != nil {
		return nil
	}
	return features
}

// AreaCandidate is one row of the named-area resolution query.
type AreaCandidate struct {
	ID       int64           `gorm:"column:id"`
	Title    string          `gorm:"column:title"`
	Source   string          `gorm:"column:source"`
	IsPoint  bool            `gorm:"column:is_point"`
	Geometry json.RawMessage `gorm:"column:geometry_geojson"`
}

// IntersectionRow summarizes the overlap of a search circle with stored
// geometries.
type IntersectionRow struct {
	Intersection json.RawMessage `gorm:"column:intersection_geojson"`
	Regions      json.RawMessage `gorm:"column:regions"`
}
