package am

import "time"

// Config represents the marksync configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

// DatabaseConfig configures the SQLite database holding the remote store
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// SyncConfig configures the association engine
type SyncConfig struct {
	Category           string `mapstructure:"category"`             // model_versions row the store stamps
	ExpectMobileFolder bool   `mapstructure:"expect_mobile_folder"` // fail association when the remote mobile folder is missing
	Optimistic         bool   `mapstructure:"optimistic"`           // keep the local side of conflicts when in sync
	FlushDelayMs       int    `mapstructure:"flush_delay_ms"`       // delay before the external-id flush runs
	IntervalSeconds    int    `mapstructure:"interval_seconds"`     // watch loop period, 0 = only on config change
}

// LogConfig configures the global zap logger
type LogConfig struct {
	JSON bool `mapstructure:"json"`
}

// TracingConfig configures OpenTelemetry spans around association runs
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"` // stdout | none
}

// FlushDelay returns the configured flush delay as a duration
func (s SyncConfig) FlushDelay() time.Duration {
	return time.Duration(s.FlushDelayMs) * time.Millisecond
}

// Interval returns the watch loop period, zero when disabled
func (s SyncConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// File permissions used for config files and the ~/.marksync directory
const (
	DefaultDirPermissions  = 0750
	DefaultFilePermissions = 0644
)
