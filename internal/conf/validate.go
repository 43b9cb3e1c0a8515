package conf

import "fmt"

// ValidateSettings checks settings constraints that would otherwise surface
// as confusing runtime failures.
func ValidateSettings(settings *Settings) error {
	if settings.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.defaultlimit must be positive, got %d", settings.Search.DefaultLimit)
	}
	if settings.Search.MaxLimit < settings.Search.DefaultLimit {
		return fmt.Errorf("search.maxlimit (%d) must not be below search.defaultlimit (%d)",
			settings.Search.MaxLimit, settings.Search.DefaultLimit)
	}
	if settings.Search.DefaultSafetyLevel < 0 {
		return fmt.Errorf("search.defaultsafetylevel must not be negative, got %d", settings.Search.DefaultSafetyLevel)
	}
	if settings.Cache.Enabled {
		if settings.Cache.Addr == "" {
			return fmt.Errorf("cache.addr is required when cache is enabled")
		}
		if settings.Cache.CoordsTTL <= 0 || settings.Cache.PolygonTTL <= 0 || settings.Cache.AreaTTL <= 0 {
			return fmt.Errorf("cache TTLs must be positive")
		}
	}
	if !settings.Database.SQLite.Enabled {
		if settings.Database.Host == "" || settings.Database.Database == "" {
			return fmt.Errorf("database.host and database.database are required")
		}
	}
	return nil
}
