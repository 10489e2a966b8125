package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// DefaultDatabasePath is used when database.path is not configured
const DefaultDatabasePath = "marksync.db"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("sync.category", "bookmarks")
	v.SetDefault("sync.expect_mobile_folder", false)
	v.SetDefault("sync.optimistic", true)
	v.SetDefault("sync.flush_delay_ms", 0)
	v.SetDefault("sync.interval_seconds", 0)

	v.SetDefault("log.json", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
}

// BindEnvVars binds the settings most often overridden per invocation
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "MARKSYNC_DATABASE_PATH")
	v.BindEnv("sync.category", "MARKSYNC_SYNC_CATEGORY")
	v.BindEnv("tracing.enabled", "MARKSYNC_TRACING_ENABLED")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: %s, Sync: {Category: %s, Optimistic: %t}, Tracing: %t}",
		c.Database.Path, c.Sync.Category, c.Sync.Optimistic, c.Tracing.Enabled)
}
