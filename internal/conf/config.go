// config.go: settings struct and functions to load and save geobase settings.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled    bool   // true to enable file logging
	Path       string // path to log file
	MaxSize    int64  // maximum log file size in bytes before rotation
	MaxBackups int    // number of rotated log files to keep
	MaxAge     int    // maximum age of rotated log files in days
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name  string    // used as prefix for log files and metrics
	Debug bool      // true to enable debug logging
	Log   LogConfig // main log configuration
}

// DatabaseSettings contains settings for the PostGIS database connection.
type DatabaseSettings struct {
	Host         string        // database host
	Port         string        // database port
	Username     string        // database username
	Password     string        // database password
	Database     string        // database name
	SSLMode      string        // disable, require, verify-full
	QueryTimeout time.Duration // per-query timeout applied to spatial queries
	SQLite       struct {
		Enabled bool   // use SQLite instead of PostGIS, dev and tests only
		Path    string // path to SQLite database file
	}
}

// CacheSettings contains settings for the query-result cache store.
type CacheSettings struct {
	Enabled  bool          // false degrades every lookup to a miss
	Addr     string        // redis host:port
	Password string        // redis password
	DB       int           // redis database number
	Timeout  time.Duration // per-operation timeout for cache round-trips
	// TTLs per query class; named-area results are stable and cached
	// longer than point searches.
	CoordsTTL  time.Duration
	PolygonTTL time.Duration
	AreaTTL    time.Duration
}

// SynonymsSettings points at the static alias table.
type SynonymsSettings struct {
	Path string // path to YAML or JSON alias table
}

// MapRenderSettings configures the map-rendering collaborator.
type MapRenderSettings struct {
	Enabled bool          // false disables map artifacts in responses
	BaseURL string        // renderer service base URL
	Timeout time.Duration // render call timeout
}

// SearchSettings contains limits and defaults for search requests.
type SearchSettings struct {
	DefaultLimit       int // result limit when the request omits one
	MaxLimit           int // hard cap applied to any requested limit
	DefaultSafetyLevel int // stoplist level when the request omits one
}

// WebServerSettings contains settings for the HTTP surface.
type WebServerSettings struct {
	Enabled bool      // true to enable web server
	Port    string    // port for HTTP server
	Log     LogConfig // web server log settings
}

// Settings contains all configuration options for the geobase service.
type Settings struct {
	Main      MainSettings
	Database  DatabaseSettings
	Cache     CacheSettings
	Synonyms  SynonymsSettings
	MapRender MapRenderSettings
	Search    SearchSettings
	WebServer WebServerSettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance and stores it as the active one.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/geobase")
	viper.AddConfigPath("/etc/geobase")

	viper.SetEnvPrefix("geobase")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config to the working
// directory and reads it back.
func createDefaultConfig() error {
	configPath := filepath.Join(".", "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	log.Printf("Created default config file at: %s", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading embedded config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SetTestSettings replaces the active settings. For tests only.
func SetTestSettings(s *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = s
}
