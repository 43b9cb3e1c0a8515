package datastore

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/taigabase/geobase/internal/conf"
	"github.com/taigabase/geobase/internal/errors"
)

// PostgresStore implements the datastore on PostgreSQL. The spatial queries
// require the PostGIS extension.
type PostgresStore struct {
	DataStore
	Settings *conf.Settings
}

func validatePostgresConfig(settings *conf.Settings) error {
	db := settings.Database
	if db.Host == "" || db.Database == "" {
		return errors.Newf("database host and name are required").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}

// Open sets up the PostgreSQL database connection and runs migrations.
func (store *PostgresStore) Open() error {
	if err := validatePostgresConfig(store.Settings); err != nil {
		return err
	}

	db := store.Settings.Database
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.Username, db.Password, db.Database, db.SSLMode)

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("host", db.Host).
			Context("database", db.Database).
			Build()
	}

	// Spatial predicates need PostGIS before any table exists.
	if err := conn.Exec("CREATE EXTENSION IF NOT EXISTS postgis").Error; err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("extension", "postgis").
			Build()
	}

	store.DB = conn
	store.QueryTimeout = db.QueryTimeout
	return performAutoMigration(conn, store.Settings.Main.Debug, "PostgreSQL", fmt.Sprintf("%s:%s/%s", db.Host, db.Port, db.Database))
}

// Close releases the connection pool.
func (store *PostgresStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
