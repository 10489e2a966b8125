package am

import (
	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/tracing"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database.path cannot be empty")
	}

	if c.Sync.Category == "" {
		return errors.New("sync.category cannot be empty")
	}

	// zero means no delay / no periodic runs, negative is invalid
	if c.Sync.FlushDelayMs < 0 {
		return errors.Newf("sync.flush_delay_ms must be >= 0, got %d", c.Sync.FlushDelayMs)
	}
	if c.Sync.IntervalSeconds < 0 {
		return errors.Newf("sync.interval_seconds must be >= 0, got %d", c.Sync.IntervalSeconds)
	}

	if _, err := tracing.ParseExporter(c.Tracing.Exporter); err != nil {
		return errors.Wrap(err, "tracing.exporter")
	}

	return nil
}
