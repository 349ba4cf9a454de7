package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	refserrors "github.com/standardbeagle/refscan/internal/errors"
	"github.com/standardbeagle/refscan/internal/types"
)

func TestLoadPrefersKDL(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, KDLFileName),
		[]byte("scan {\n    workers 3\n}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, TOMLFileName),
		[]byte("[scan]\nworkers = 9\n"), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Scan.Workers, "the kdl file wins when both exist")
}

func TestLoadFallsBackToTOML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, TOMLFileName),
		[]byte("[scan]\nworkers = 9\n"), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Scan.Workers)
}

func TestLoadWithoutFile(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, root, cfg.Project.Root)
	assert.Equal(t, types.DefaultHistoryLimit, cfg.History.Limit)

	t.Run("relative_root_not_rejoined", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.Mkdir(filepath.Join(dir, "proj"), 0o755))
		wd, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { _ = os.Chdir(wd) })

		cfg, err := Load("proj")
		require.NoError(t, err)
		assert.Equal(t, "proj", cfg.Project.Root)
	})
}

func TestLoadAnchorsRoot(t *testing.T) {
	t.Run("relative_root_resolves_against_config_dir", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "game"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, KDLFileName),
			[]byte("project {\n    root \"game\"\n}\n"), 0o644))

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "game"), cfg.Project.Root)
	})

	t.Run("absolute_root_kept", func(t *testing.T) {
		dir := t.TempDir()
		other := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, KDLFileName),
			[]byte("project {\n    root \""+other+"\"\n}\n"), 0o644))

		cfg, err := Load(dir)
		require.NoError(t, err)
		assert.Equal(t, filepath.Clean(other), cfg.Project.Root)
	})
}

func TestLoadFileUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refscan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan: {}"), 0o644))

	_, err := LoadFile(path)
	var cerr *refserrors.ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Project.Root = "/tmp/project"
		return cfg
	}

	t.Run("defaults_pass", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	cases := []struct {
		name    string
		corrupt func(*Config)
	}{
		{"negative_workers", func(c *Config) { c.Scan.Workers = -1 }},
		{"absurd_workers", func(c *Config) { c.Scan.Workers = 100000 }},
		{"zero_file_size", func(c *Config) { c.Scan.MaxFileSize = 0 }},
		{"oversized_file_cap", func(c *Config) { c.Scan.MaxFileSize = 1 << 40 }},
		{"unknown_meta", func(c *Config) { c.Scan.Meta = "sideways" }},
		{"zero_history", func(c *Config) { c.History.Limit = 0 }},
		{"unbounded_history", func(c *Config) { c.History.Limit = 10000 }},
		{"negative_debounce", func(c *Config) { c.Watch.DebounceMs = -5 }},
		{"bad_include_glob", func(c *Config) { c.Filter.Include = []string{"Assets/[broken"} }},
		{"bad_exclude_glob", func(c *Config) { c.Filter.Exclude = []string{"Temp/[broken"} }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.corrupt(cfg)

			err := cfg.Validate()
			var cerr *refserrors.ConfigError
			require.ErrorAs(t, err, &cerr)
		})
	}
}

func TestConfigBridges(t *testing.T) {
	cfg := Default()
	cfg.Filter.Include = []string{"Assets/**"}
	cfg.Filter.ExcludePackages = true
	cfg.Scan.Meta = "only"
	cfg.Watch.DebounceMs = 250

	t.Run("filter_spec", func(t *testing.T) {
		spec := cfg.FilterSpec()
		assert.Equal(t, []string{"Assets/**"}, spec.Include)
		assert.Equal(t, cfg.Filter.Exclude, spec.Exclude)
		assert.True(t, spec.ExcludePackages)
	})

	t.Run("meta_mode", func(t *testing.T) {
		assert.Equal(t, types.MetaOnly, cfg.MetaMode())
	})

	t.Run("watch_debounce", func(t *testing.T) {
		assert.Equal(t, 250*time.Millisecond, cfg.WatchDebounce())
	})
}
