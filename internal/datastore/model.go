// model.go defines the entity and content tables behind the search engine.
package datastore

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/taigabase/geobase/internal/safety"
)

// FeatureData is the opaque structured-attributes document carried by every
// entity row, stored as JSONB.
type FeatureData map[string]any

// Value implements driver.Valuer for JSONB storage.
func (f FeatureData) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	return json.Marshal(f)
}

// Scan implements sql.Scanner. Malformed stored documents scan to an empty
// map instead of failing the row.
func (f *FeatureData) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported feature data type %T", value)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		*f = FeatureData{}
		return nil
	}
	*f = decoded
	return nil
}

// GormDataType hints the column type for migrations.
func (FeatureData) GormDataType() string { return "jsonb" }

// StoplistLevel decodes the inStoplist tier, tolerating the legacy boolean
// and string encodings.
func (f FeatureData) StoplistLevel() *int {
	if f == nil {
		return nil
	}
	return safety.DecodeLevel(f["in_stoplist"])
}

// geoType pulls the nested geo_type document, if any.
func (f FeatureData) geoType() map[string]any {
	if f == nil {
		return nil
	}
	gt, _ := f["geo_type"].(map[string]any)
	return gt
}

func toStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// PrimaryTypes returns featureData.geoType.primaryType as strings.
func (f FeatureData) PrimaryTypes() []string {
	return toStrings(f.geoType()["primary_type"])
}

// SpecificTypes returns featureData.geoType.specificTypes as strings.
func (f FeatureData) SpecificTypes() []string {
	return toStrings(f.geoType()["specific_types"])
}

// GeographicalEntity is a named place or region.
type GeographicalEntity struct {
	ID          uint   `gorm:"primaryKey"`
	NameRu      string `gorm:"column:name_ru;size:500;not null;index:idx_geographical_name"`
	Description string
	Type        string `gorm:"size:100"`
	FeatureData FeatureData
}

func (GeographicalEntity) TableName() string { return "geographical_entity" }

// BiologicalEntity is a species or other living thing.
type BiologicalEntity struct {
	ID             uint   `gorm:"primaryKey"`
	CommonNameRu   string `gorm:"column:common_name_ru;size:500;not null;index:idx_biological_name"`
	ScientificName string `gorm:"size:500;index:idx_biological_sciname"`
	Description    string
	Status         string `gorm:"size:100"`
	Type           string `gorm:"size:100"`
	FeatureData    FeatureData
}

func (BiologicalEntity) TableName() string { return "biological_entity" }

// MapContent carries a geometry value. Entities reach geometry only through
// EntityGeoLink rows pointing at these.
type MapContent struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:500;not null;index:idx_map_title"`
	Description string
	Geometry    string `gorm:"type:geometry(Geometry,4326);not null"`
	FeatureData FeatureData
}

func (MapContent) TableName() string { return "map_content" }

// TextContent is a document, optionally with a structured-attributes
// breakdown used when the plain content is empty.
type TextContent struct {
	ID             uint   `gorm:"primaryKey"`
	Title          string `gorm:"size:500"`
	Content        string
	StructuredData FeatureData `gorm:"column:structured_data"`
	Description    string
	FeatureData    FeatureData
}

func (TextContent) TableName() string { return "text_content" }

// ImageContent is a photo or illustration record.
type ImageContent struct {
	ID          uint   `gorm:"primaryKey"`
	Title       string `gorm:"size:500;not null"`
	Description string
	FeatureData FeatureData
}

func (ImageContent) TableName() string { return "image_content" }

// EntityGeoLink ties an entity of any type to a geographical entity. An
// entity with no link has no renderable location and never enters spatial
// queries.
type EntityGeoLink struct {
	EntityID             uint   `gorm:"primaryKey;autoIncrement:false"`
	EntityType           string `gorm:"primaryKey;size:30"`
	GeographicalEntityID uint   `gorm:"primaryKey;autoIncrement:false;index:idx_entity_geo_target"`
}

func (EntityGeoLink) TableName() string { return "entity_geo" }

// EntityRelation is the generic typed link between two records, used here
// for the "object description" relation from text content to entities.
type EntityRelation struct {
	ID           uint   `gorm:"primaryKey"`
	SourceID     uint   `gorm:"not null"`
	SourceType   string `gorm:"size:30;not null"`
	TargetID     uint   `gorm:"not null;index:idx_relation_target"`
	TargetType   string `gorm:"size:30;not null;index:idx_relation_target"`
	RelationType string `gorm:"size:100;not null"`
}

func (EntityRelation) TableName() string { return "entity_relation" }

// RelationDescription is the relation type linking a text document that
// describes an entity.
const RelationDescription = "описание объекта"
