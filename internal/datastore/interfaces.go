// interfaces.go defines the interface for the database operations
package datastore

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/taigabase/geobase/internal/conf"
	"github.com/taigabase/geobase/internal/errors"
	"github.com/taigabase/geobase/internal/spatial"
)

// Interface abstracts the underlying database implementation and defines
// the operations the search engine needs.
type Interface interface {
	Open() error
	Close() error

	// Spatial queries built by the spatial package.
	SearchObjects(ctx context.Context, q spatial.Query) ([]spatial.ObjectRow, error)
	AreaCandidates(ctx context.Context, q spatial.Query) ([]spatial.AreaCandidate, error)
	RadiusIntersection(ctx context.Context, q spatial.Query) (*spatial.IntersectionRow, error)
	BufferGeometry(ctx context.Context, q spatial.Query) (json.RawMessage, error)

	// Plain lookups.
	GetGeographicalEntity(ctx context.Context, id uint) (GeographicalEntity, error)
	GetBiologicalEntity(ctx context.Context, id uint) (BiologicalEntity, error)
	Descriptions(ctx context.Context, objectName, objectType string) ([]TextContent, error)
	SaveMapContent(ctx context.Context, mc *MapContent, links []EntityGeoLink) error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB
	// QueryTimeout bounds every spatial query. Zero means no bound beyond
	// the caller's context.
	QueryTimeout time.Duration
}

// queryContext derives a bounded context for one query.
func (ds *DataStore) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ds.QueryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, ds.QueryTimeout)
}

// New creates a datastore backend based on the provided configuration.
func New(settings *conf.Settings) Interface {
	if settings.Database.SQLite.Enabled {
		return &SQLiteStore{Settings: settings}
	}
	return &PostgresStore{Settings: settings}
}

// SearchObjects executes one federated spatial query and scans the shared
// row shape. The context carries the request-scoped timeout; cancellation
// reaches the driver as statement cancellation.
func (ds *DataStore) SearchObjects(ctx context.Context, q spatial.Query) ([]spatial.ObjectRow, error) {
	ctx, cancel := ds.queryContext(ctx)
	defer cancel()

	var rows []spatial.ObjectRow
	if err := ds.DB.WithContext(ctx).Raw(q.SQL, q.Args...).Scan(&rows).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("query", "search_objects").
			Build()
	}
	return rows, nil
}

// AreaCandidates lists stored geometries matching an area name.
func (ds *DataStore) AreaCandidates(ctx context.Context, q spatial.Query) ([]spatial.AreaCandidate, error) {
	ctx, cancel := ds.queryContext(ctx)
	defer cancel()

	var rows []spatial.AreaCandidate
	if err := ds.DB.WithContext(ctx).Raw(q.SQL, q.Args...).Scan(&rows).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("query", "area_candidates").
			Build()
	}
	return rows, nil
}

// RadiusIntersection returns the circle-overlap summary, or nil when the
// circle touches nothing.
func (ds *DataStore) RadiusIntersection(ctx context.Context, q spatial.Query) (*spatial.IntersectionRow, error) {
	ctx, cancel := ds.queryContext(ctx)
	defer cancel()

	var row spatial.IntersectionRow
	result := ds.DB.WithContext(ctx).Raw(q.SQL, q.Args...).Scan(&row)
	if result.Error != nil {
		return nil, errors.New(result.Error).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("query", "radius_intersection").
			Build()
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &row, nil
}

// BufferGeometry computes a buffered geometry as GeoJSON.
func (ds *DataStore) BufferGeometry(ctx context.Context, q spatial.Query) (json.RawMessage, error) {
	ctx, cancel := ds.queryContext(ctx)
	defer cancel()

	var row struct {
		BufferGeoJSON json.RawMessage `gorm:"column:buffer_geojson"`
	}
	if err := ds.DB.WithContext(ctx).Raw(q.SQL, q.Args...).Scan(&row).Error; err != nil {
		return nil, errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("query", "buffer_geometry").
			Build()
	}
	return row.BufferGeoJSON, nil
}

// GetGeographicalEntity retrieves one place record by id.
func (ds *DataStore) GetGeographicalEntity(ctx context.Context, id uint) (GeographicalEntity, error) {
	var entity GeographicalEntity
	if err := ds.DB.WithContext(ctx).First(&entity, id).Error; err != nil {
		return GeographicalEntity{}, wrapLookupError(err, "geographical_entity", id)
	}
	return entity, nil
}

// GetBiologicalEntity retrieves one species record by id.
func (ds *DataStore) GetBiologicalEntity(ctx context.Context, id uint) (BiologicalEntity, error) {
	var entity BiologicalEntity
	if err := ds.DB.WithContext(ctx).First(&entity, id).Error; err != nil {
		return BiologicalEntity{}, wrapLookupError(err, "biological_entity", id)
	}
	return entity, nil
}

func wrapLookupError(err error, table string, id uint) error {
	category := errors.CategoryDatabase
	if err == gorm.ErrRecordNotFound {
		category = errors.CategoryNotFound
	}
	return errors.New(err).
		Component("datastore").
		Category(category).
		Context("table", table).
		Context("id", id).
		Build()
}

// Descriptions returns the text documents linked to entities whose name
// contains objectName, through the description relation.
func (ds *DataStore) Descriptions(ctx context.Context, objectName, objectType string) ([]TextContent, error) {
	type target struct {
		entityType string
		table      string
		nameColumn string
	}
	targets := []target{
		{"biological_entity", "biological_entity", "common_name_ru"},
		{"geographical_entity", "geographical_entity", "name_ru"},
	}
	if objectType != "" {
		found := false
		for _, tgt := range targets {
			if tgt.entityType == objectType {
				targets = []target{tgt}
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Newf("unsupported description object type %q", objectType).
				Component("datastore").
				Category(errors.CategoryValidation).
				Build()
		}
	}

	// ILIKE is PostgreSQL-only; SQLite LIKE is already case-insensitive.
	match := "LIKE"
	if ds.DB.Dialector.Name() == "postgres" {
		match = "ILIKE"
	}

	var docs []TextContent
	for _, tgt := range targets {
		var part []TextContent
		err := ds.DB.WithContext(ctx).
			Table("text_content tc").
			Select("tc.*").
			Joins("JOIN entity_relation er ON tc.id = er.source_id AND er.source_type = 'text_content' AND er.relation_type = ?", RelationDescription).
			Joins("JOIN "+tgt.table+" e ON e.id = er.target_id AND er.target_type = ?", tgt.entityType).
			Where("e."+tgt.nameColumn+" "+match+" ?", "%"+objectName+"%").
			Scan(&part).Error
		if err != nil {
			return nil, errors.New(err).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("query", "descriptions").
				Context("entity_type", tgt.entityType).
				Build()
		}
		docs = append(docs, part...)
	}
	return docs, nil
}

// SaveMapContent stores a geometry record and its entity links in one
// transaction.
func (ds *DataStore) SaveMapContent(ctx context.Context, mc *MapContent, links []EntityGeoLink) error {
	err := ds.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(mc).Error; err != nil {
			return err
		}
		for i := range links {
			links[i].EntityID = mc.ID
			links[i].EntityType = "map_content"
			if err := tx.Create(&links[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("query", "save_map_content").
			Build()
	}
	return nil
}

// performAutoMigration creates or updates the schema for a freshly opened
// database.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(
		&GeographicalEntity{},
		&BiologicalEntity{},
		&MapContent{},
		&TextContent{},
		&ImageContent{},
		&EntityGeoLink{},
		&EntityRelation{},
	); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Build()
	}
	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}
	return nil
}

// createGormLogger builds the query logger shared by both backends.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      false,
		},
	)
}
