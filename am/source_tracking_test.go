package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and the working directory at fresh temp dirs
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)

	home = t.TempDir()
	project = t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, project)
	return home, project
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestSourceTracking_Precedence(t *testing.T) {
	home, project := isolate(t)

	writeFile(t, filepath.Join(home, ".marksync", "am.toml"), `
[database]
path = "user.db"

[sync]
category = "user-category"
flush_delay_ms = 100
`)
	writeFile(t, filepath.Join(home, ".marksync", CLIConfigName), `
[sync]
flush_delay_ms = 200
`)
	writeFile(t, filepath.Join(project, "am.toml"), `
[database]
path = "project.db"
`)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "project.db", cfg.Database.Path, "project file wins over user file")
	assert.Equal(t, 200, cfg.Sync.FlushDelayMs, "cli overrides win over user file")
	assert.Equal(t, "user-category", cfg.Sync.Category)
	assert.True(t, cfg.Sync.Optimistic, "untouched keys keep defaults")

	assert.Equal(t, SourceProject, ConfigSources["database.path"].Source)
	assert.Equal(t, SourceUserCLI, ConfigSources["sync.flush_delay_ms"].Source)
	assert.Equal(t, SourceUser, ConfigSources["sync.category"].Source)
	assert.Contains(t, ConfigSources["sync.category"].Path, filepath.Join(".marksync", "am.toml"))
	_, tracked := ConfigSources["sync.optimistic"]
	assert.False(t, tracked)
}

func TestSourceTracking_EnvironmentWins(t *testing.T) {
	home, _ := isolate(t)
	writeFile(t, filepath.Join(home, ".marksync", "am.toml"), `
[sync]
category = "from-file"
`)
	t.Setenv("MARKSYNC_SYNC_CATEGORY", "from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Sync.Category)

	introspection, err := GetConfigIntrospection()
	require.NoError(t, err)

	var found bool
	for _, s := range introspection.Settings {
		if s.Key == "sync.category" {
			found = true
			assert.Equal(t, SourceEnvironment, s.Source)
			assert.Equal(t, "MARKSYNC_SYNC_CATEGORY", s.SourcePath)
		}
	}
	assert.True(t, found)
}

func TestSourceTracking_Defaults(t *testing.T) {
	isolate(t)

	introspection, err := GetConfigIntrospection()
	require.NoError(t, err)
	require.NotEmpty(t, introspection.Settings)

	keys := make([]string, 0, len(introspection.Settings))
	for _, s := range introspection.Settings {
		keys = append(keys, s.Key)
		assert.Equal(t, SourceDefault, s.Source, s.Key)
	}
	assert.IsIncreasing(t, keys, "settings are sorted by key")
	assert.Contains(t, keys, "tracing.exporter")
}

func TestLoad_CachesUntilReset(t *testing.T) {
	home, _ := isolate(t)
	path := filepath.Join(home, ".marksync", "am.toml")
	writeFile(t, path, "[sync]\ncategory = \"one\"\n")

	first, err := Load()
	require.NoError(t, err)

	writeFile(t, path, "[sync]\ncategory = \"two\"\n")
	cached, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, cached)

	Reset()
	fresh, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "two", fresh.Sync.Category)
}
