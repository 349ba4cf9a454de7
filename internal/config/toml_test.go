package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	refserrors "github.com/standardbeagle/refscan/internal/errors"
)

func TestParseTOML_FullDocument(t *testing.T) {
	tomlContent := `
[project]
root = "subdir"
name = "MyGame"

[scan]
workers = 4
max_file_size = 4194304
meta = "none"
guid_only = true

[filter]
include = ["Assets/**"]
exclude = []
extensions = [".prefab"]
exclude_packages = true

[history]
limit = 7
autosave = false

[watch]
debounce_ms = 100
`
	cfg, err := parseTOML([]byte(tomlContent))
	require.NoError(t, err)

	assert.Equal(t, "subdir", cfg.Project.Root)
	assert.Equal(t, "MyGame", cfg.Project.Name)
	assert.Equal(t, 4, cfg.Scan.Workers)
	assert.Equal(t, int64(4194304), cfg.Scan.MaxFileSize)
	assert.Equal(t, "none", cfg.Scan.Meta)
	assert.True(t, cfg.Scan.GUIDOnly)
	assert.Equal(t, []string{"Assets/**"}, cfg.Filter.Include)
	assert.Empty(t, cfg.Filter.Exclude, "an explicit empty list replaces the defaults")
	assert.True(t, cfg.Filter.ExcludePackages)
	assert.Equal(t, 7, cfg.History.Limit)
	assert.False(t, cfg.History.Autosave)
	assert.Equal(t, 100, cfg.Watch.DebounceMs)
}

func TestParseTOML_PartialDocument(t *testing.T) {
	cfg, err := parseTOML([]byte("[scan]\nworkers = 2\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scan.Workers)
	assert.Equal(t, "with-asset", cfg.Scan.Meta, "absent keys keep their defaults")
	assert.Contains(t, cfg.Filter.Exclude, "Library/**")
}

func TestParseTOML_Malformed(t *testing.T) {
	_, err := parseTOML([]byte("[scan\nworkers = "))
	var cerr *refserrors.ConfigError
	require.ErrorAs(t, err, &cerr)
}
