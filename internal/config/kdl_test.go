package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	refserrors "github.com/standardbeagle/refscan/internal/errors"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Zero(t, cfg.Scan.Workers, "0 means one worker per CPU")
	assert.Equal(t, int64(16*1024*1024), cfg.Scan.MaxFileSize)
	assert.Equal(t, "with-asset", cfg.Scan.Meta)
	assert.False(t, cfg.Scan.GUIDOnly)
	assert.Contains(t, cfg.Filter.Exclude, "Library/**")
	assert.Equal(t, 30, cfg.History.Limit)
	assert.True(t, cfg.History.Autosave)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
}

func TestParseKDL_FullDocument(t *testing.T) {
	kdlContent := `
project {
    root "subdir"
    name "MyGame"
}
scan {
    workers 8
    max_file_size "4MB"
    meta "only"
    guid_only true
}
filter {
    include "Assets/**"
    exclude "Assets/Generated/**"
    extensions ".prefab" ".unity"
    exclude_packages true
}
history {
    limit 5
    autosave false
}
watch {
    debounce_ms 250
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)

	assert.Equal(t, "subdir", cfg.Project.Root)
	assert.Equal(t, "MyGame", cfg.Project.Name)
	assert.Equal(t, 8, cfg.Scan.Workers)
	assert.Equal(t, int64(4*1024*1024), cfg.Scan.MaxFileSize)
	assert.Equal(t, "only", cfg.Scan.Meta)
	assert.True(t, cfg.Scan.GUIDOnly)
	assert.Equal(t, []string{"Assets/**"}, cfg.Filter.Include)
	assert.Equal(t, []string{"Assets/Generated/**"}, cfg.Filter.Exclude,
		"an explicit exclude replaces the default list")
	assert.Equal(t, []string{".prefab", ".unity"}, cfg.Filter.Extensions)
	assert.True(t, cfg.Filter.ExcludePackages)
	assert.Equal(t, 5, cfg.History.Limit)
	assert.False(t, cfg.History.Autosave)
	assert.Equal(t, 250, cfg.Watch.DebounceMs)
}

func TestParseKDL_PartialDocument(t *testing.T) {
	cfg, err := parseKDL(`
scan {
    workers 2
}
`)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scan.Workers)
	// Everything else keeps its default.
	assert.Equal(t, "with-asset", cfg.Scan.Meta)
	assert.Contains(t, cfg.Filter.Exclude, "Library/**")
	assert.Equal(t, 30, cfg.History.Limit)
}

func TestParseKDL_SizeForms(t *testing.T) {
	cases := []struct {
		name string
		arg  string
		want int64
	}{
		{"plain_bytes", `max_file_size 1024`, 1024},
		{"kb_string", `max_file_size "500KB"`, 500 * 1024},
		{"mb_string", `max_file_size "16MB"`, 16 * 1024 * 1024},
		{"gb_string", `max_file_size "1GB"`, 1024 * 1024 * 1024},
		{"b_suffix", `max_file_size "128B"`, 128},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := parseKDL("scan {\n    " + tc.arg + "\n}\n")
			require.NoError(t, err)
			assert.Equal(t, tc.want, cfg.Scan.MaxFileSize)
		})
	}
}

func TestParseKDL_ListForms(t *testing.T) {
	t.Run("inline_arguments", func(t *testing.T) {
		cfg, err := parseKDL(`
filter {
    extensions ".prefab" ".unity" ".mat"
}
`)
		require.NoError(t, err)
		assert.Equal(t, []string{".prefab", ".unity", ".mat"}, cfg.Filter.Extensions)
	})

	t.Run("repeated_nodes", func(t *testing.T) {
		cfg, err := parseKDL(`
filter {
    include "Assets/**"
    include "ProjectSettings/**"
}
`)
		require.NoError(t, err)
		assert.Equal(t, []string{"Assets/**", "ProjectSettings/**"}, cfg.Filter.Include)
	})
}

func TestParseKDL_Malformed(t *testing.T) {
	_, err := parseKDL(`scan { workers `)
	var cerr *refserrors.ConfigError
	require.ErrorAs(t, err, &cerr)
}

func TestParseSize(t *testing.T) {
	t.Run("rejects_garbage", func(t *testing.T) {
		_, err := parseSize("lots")
		assert.Error(t, err)
	})

	t.Run("case_insensitive", func(t *testing.T) {
		got, err := parseSize("2mb")
		require.NoError(t, err)
		assert.Equal(t, int64(2*1024*1024), got)
	})
}
