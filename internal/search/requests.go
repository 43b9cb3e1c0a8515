package search

import (
	"encoding/json"

	"github.com/taigabase/geobase/internal/geo"
	"github.com/taigabase/geobase/internal/maprender"
	"github.com/taigabase/geobase/internal/ranking"
)

// NearbyRequest is a point-radius search.
type NearbyRequest struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radiusKm"`

	ObjectType string   `json:"objectType,omitempty"`
	Species    []string `json:"species,omitempty"`

	StoplistLevel *int `json:"inStoplist,omitempty"`
	Limit         int  `json:"limit,omitempty"`
}

// PolygonRequest is a polygon-plus-buffer search. Either Polygon or Name
// must be set; Name resolves through synonyms and the stored area titles.
type PolygonRequest struct {
	Polygon json.RawMessage `json:"polygon,omitempty"`
	Name    string          `json:"name,omitempty"`

	BufferRadiusKm float64 `json:"bufferRadiusKm"`
	ObjectType     string  `json:"objectType,omitempty"`

	StoplistLevel *int `json:"inStoplist,omitempty"`
	Limit         int  `json:"limit,omitempty"`
}

// AreaRequest is a named-area search with inside/around classification.
type AreaRequest struct {
	AreaName string `json:"areaName"`

	ObjectType    string `json:"objectType,omitempty"`
	ObjectSubtype string `json:"objectSubtype,omitempty"`
	ObjectName    string `json:"objectName,omitempty"`

	SearchAround   bool    `json:"searchAround"`
	BufferRadiusKm float64 `json:"bufferRadiusKm"`

	StoplistLevel *int `json:"inStoplist,omitempty"`
	Limit         int  `json:"limit,omitempty"`
}

// AreaInfo describes the resolved search area. Center is the geometry
// centroid, for clients that position a map around the area.
type AreaInfo struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Source   string          `json:"source"`
	Geometry json.RawMessage `json:"geometry,omitempty"`
	Center   *geo.LatLon     `json:"center,omitempty"`
}

// Result is the shared response shape. It is what gets serialized into the
// cache, map artifacts included.
type Result struct {
	Objects     []ranking.Object `json:"objects"`
	Count       int              `json:"count"`
	HiddenCount int              `json:"hiddenCount,omitempty"`

	Area *AreaInfo `json:"area,omitempty"`
	// Polygon is the effective (buffered) search area for polygon mode.
	Polygon json.RawMessage      `json:"polygon,omitempty"`
	Map     *maprender.Artifacts `json:"map,omitempty"`

	GroupedNames       []string `json:"groupedNames,omitempty"`
	AllBiologicalNames []string `json:"allBiologicalNames,omitempty"`
}

// IntersectionResult summarizes the overlap of a search circle with the
// stored map geometries.
type IntersectionResult struct {
	Intersection json.RawMessage `json:"intersection"`
	Regions      json.RawMessage `json:"regions"`
}
