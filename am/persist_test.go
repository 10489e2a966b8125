package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/marksync/errors"
)

func TestSetValue(t *testing.T) {
	home, _ := isolate(t)

	require.NoError(t, SetValue("sync", "optimistic", false))
	require.NoError(t, SetValue("sync", "flush_delay_ms", int64(50)))

	path := filepath.Join(home, ".marksync", CLIConfigName)
	assert.Equal(t, path, GetCLIConfigPath())

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Sync.Optimistic)
	assert.Equal(t, 50, cfg.Sync.FlushDelayMs)
	assert.Equal(t, SourceUserCLI, ConfigSources["sync.optimistic"].Source)

	unknown, err := CheckFile(path)
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestSetValue_RotatesBackups(t *testing.T) {
	home, _ := isolate(t)
	path := filepath.Join(home, ".marksync", CLIConfigName)

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, SetValue("sync", "interval_seconds", i))
	}

	for _, suffix := range []string{".back1", ".back2", ".back3"} {
		_, err := os.Stat(path + suffix)
		assert.NoError(t, err, suffix)
	}
	_, err := os.Stat(path + ".back4")
	assert.True(t, os.IsNotExist(err))

	// back1 holds the value before the last write
	prev, err := LoadFromFile(path + ".back1")
	require.NoError(t, err)
	assert.Equal(t, 4, prev.Sync.IntervalSeconds)
}

func TestSetValue_RequiresKey(t *testing.T) {
	isolate(t)
	err := SetValue("sync", "", true)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, true, ParseValue("true"))
	assert.Equal(t, int64(42), ParseValue("42"))
	assert.Equal(t, int64(1), ParseValue("1"), "digits are never booleans")
	assert.Equal(t, "stdout", ParseValue("stdout"))
	assert.Equal(t, "1.5", ParseValue("1.5"))
}
