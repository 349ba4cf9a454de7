package config

import (
	"github.com/pelletier/go-toml/v2"

	refserrors "github.com/standardbeagle/refscan/internal/errors"
)

// parseTOML decodes a `.refscan.toml` document over the defaults.
// Unlike KDL, sizes are plain byte counts; otherwise the two formats
// carry the same sections and keys:
//
//	[project]
//	root = "."
//
//	[scan]
//	workers = 8
//	max_file_size = 16777216
//	meta = "with-asset"
//
//	[filter]
//	include = ["Assets/**"]
//	exclude = []
//	exclude_packages = true
//
//	[history]
//	limit = 30
//	autosave = true
//
//	[watch]
//	debounce_ms = 500
func parseTOML(data []byte) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, refserrors.NewConfigError("toml", "", err)
	}
	return cfg, nil
}
