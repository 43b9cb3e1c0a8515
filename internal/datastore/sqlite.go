package datastore

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/taigabase/geobase/internal/conf"
	"github.com/taigabase/geobase/internal/errors"
)

// SQLiteStore implements the datastore on SQLite. Suitable for development
// and the non-spatial query paths; the PostGIS-backed searches need the
// PostgreSQL backend.
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

// Open sets up the SQLite database connection and runs migrations.
func (store *SQLiteStore) Open() error {
	path := store.Settings.Database.SQLite.Path
	if path == "" {
		return errors.Newf("sqlite path is required").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}

	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("path", path).
			Build()
	}

	store.DB = conn
	store.QueryTimeout = store.Settings.Database.QueryTimeout
	return performAutoMigration(conn, store.Settings.Main.Debug, "SQLite", path)
}

// Close releases the database handle.
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
