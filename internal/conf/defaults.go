// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("main.name", "geobase")
	viper.SetDefault("main.debug", false)
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/geobase.log")
	viper.SetDefault("main.log.maxsize", 104857600)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxage", 28)

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.username", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.database", "geobase")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.querytimeout", 15*time.Second)
	viper.SetDefault("database.sqlite.enabled", false)
	viper.SetDefault("database.sqlite.path", "geobase.db")

	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.addr", "localhost:6379")
	viper.SetDefault("cache.password", "")
	viper.SetDefault("cache.db", 1)
	viper.SetDefault("cache.timeout", 2*time.Second)
	// Point searches change meaning with small coordinate shifts, keep
	// them short-lived. Named-area results are expensive and stable.
	viper.SetDefault("cache.coordsttl", 10*time.Minute)
	viper.SetDefault("cache.polygonttl", 30*time.Minute)
	viper.SetDefault("cache.areattl", 6*time.Hour)

	viper.SetDefault("synonyms.path", "synonyms.yaml")

	viper.SetDefault("maprender.enabled", true)
	viper.SetDefault("maprender.baseurl", "http://localhost:8090")
	viper.SetDefault("maprender.timeout", 10*time.Second)

	viper.SetDefault("search.defaultlimit", 20)
	viper.SetDefault("search.maxlimit", 70)
	viper.SetDefault("search.defaultsafetylevel", 1)

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.log.enabled", true)
	viper.SetDefault("webserver.log.path", "logs/webserver.log")
}
