package am

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/marksync/errors"
)

func TestIsBackupFile(t *testing.T) {
	assert.True(t, isBackupFile("/home/u/.marksync/am.toml.back1"))
	assert.True(t, isBackupFile("am_from_cli.toml.back3"))
	assert.False(t, isBackupFile("am.toml"))
	assert.False(t, isBackupFile("am.toml.back4"))
}

func TestNewConfigWatcher_NothingToWatch(t *testing.T) {
	_, err := NewConfigWatcher(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestConfigWatcher_ReloadsOnChange(t *testing.T) {
	home, _ := isolate(t)
	path := filepath.Join(home, ".marksync", "am.toml")
	writeFile(t, path, "[sync]\ncategory = \"before\"\n")

	assert.Equal(t, []string{path}, WatchedConfigFiles())

	cw, err := NewConfigWatcher(WatchedConfigFiles()...)
	require.NoError(t, err)
	defer cw.Stop()
	cw.SetDebouncePeriod(10 * time.Millisecond)

	reloaded := make(chan *Config, 4)
	cw.OnReload(func(cfg *Config) error {
		reloaded <- cfg
		return nil
	})
	cw.Start()

	writeFile(t, path, "[sync]\ncategory = \"after\"\n")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "after", cfg.Sync.Category)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was never reloaded")
	}
}

func TestConfigWatcher_IgnoresOwnWrite(t *testing.T) {
	cw := &ConfigWatcher{}
	assert.False(t, cw.checkOwnWrite())
	cw.MarkOwnWrite()
	assert.True(t, cw.checkOwnWrite())
	assert.False(t, cw.checkOwnWrite(), "flag is consumed by the first event")
}
