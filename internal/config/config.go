// Package config loads and validates project configuration. The
// primary format is a `.refscan.kdl` file at the project root, with
// `.refscan.toml` accepted as an alternative; CLI flags override file
// values, and everything has a working default so a project with no
// config file at all scans sensibly.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	refserrors "github.com/standardbeagle/refscan/internal/errors"
	"github.com/standardbeagle/refscan/internal/types"
)

const (
	// KDLFileName is the primary config file, looked up first.
	KDLFileName = ".refscan.kdl"
	// TOMLFileName is the alternative config file.
	TOMLFileName = ".refscan.toml"

	maxWorkers     = 1024
	maxFileSizeCap = 256 * 1024 * 1024
	maxHistory     = 1000
)

var (
	errUnknownFormat = errors.New("unknown config format, want .kdl or .toml")
	errOutOfRange    = errors.New("value out of range")
	errBadMetaMode   = errors.New("want none, with-asset or only")
	errBadPattern    = errors.New("bad glob pattern")
)

type Config struct {
	Project Project `toml:"project"`
	Scan    Scan    `toml:"scan"`
	Filter  Filter  `toml:"filter"`
	History History `toml:"history"`
	Watch   Watch   `toml:"watch"`
}

type Project struct {
	// Root is the project directory; relative values resolve against
	// the config file's own directory.
	Root string `toml:"root"`
	Name string `toml:"name"`
}

type Scan struct {
	// Workers bounds scan parallelism. 0 = one per CPU.
	Workers int `toml:"workers"`

	// MaxFileSize is the per-file scan cap in bytes. KDL additionally
	// accepts size strings ("16MB").
	MaxFileSize int64 `toml:"max_file_size"`

	// Meta selects the default sidecar mode: "none", "with-asset" or
	// "only".
	Meta string `toml:"meta"`

	// GUIDOnly makes main-identifier matching the default precision.
	GUIDOnly bool `toml:"guid_only"`
}

type Filter struct {
	Include    []string `toml:"include"`
	Exclude    []string `toml:"exclude"`
	Extensions []string `toml:"extensions"`

	// ExcludePackages drops the shared Packages/ tree from the corpus.
	ExcludePackages bool `toml:"exclude_packages"`
}

type History struct {
	Limit int `toml:"limit"`

	// Autosave persists the history under the state directory after
	// every completed search.
	Autosave bool `toml:"autosave"`
}

type Watch struct {
	// DebounceMs is how long the watcher lets events settle before a
	// rescan.
	DebounceMs int `toml:"debounce_ms"`
}

// Default returns the configuration used when no file is present.
// The exclude list covers the standard generated directories of a
// Unity-style project layout.
func Default() *Config {
	return &Config{
		Scan: Scan{
			MaxFileSize: types.DefaultMaxFileSize,
			Meta:        types.MetaWithAsset.String(),
		},
		Filter: Filter{
			Exclude: []string{
				"Library/**",
				"Temp/**",
				"Logs/**",
				"UserSettings/**",
				"obj/**",
			},
		},
		History: History{
			Limit:    types.DefaultHistoryLimit,
			Autosave: true,
		},
		Watch: Watch{
			DebounceMs: int(types.DefaultWatchDebounce / time.Millisecond),
		},
	}
}

// Load reads the project's config file: `.refscan.kdl` first,
// `.refscan.toml` second, defaults when neither exists. The returned
// config is validated and its root is absolute.
func Load(root string) (*Config, error) {
	kdlPath := filepath.Join(root, KDLFileName)
	if _, err := os.Stat(kdlPath); err == nil {
		return LoadFile(kdlPath)
	}
	tomlPath := filepath.Join(root, TOMLFileName)
	if _, err := os.Stat(tomlPath); err == nil {
		return LoadFile(tomlPath)
	}

	cfg := Default()
	if err := cfg.finish(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads one explicit config file, choosing the format by
// extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, refserrors.NewConfigError("file", path, err)
	}

	var cfg *Config
	switch filepath.Ext(path) {
	case ".kdl":
		cfg, err = parseKDL(string(data))
	case ".toml":
		cfg, err = parseTOML(data)
	default:
		return nil, refserrors.NewConfigError("file", path, errUnknownFormat)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.finish(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish anchors the root and validates. Only a root supplied by the
// file itself resolves against baseDir; the baseDir default is already
// anchored.
func (c *Config) finish(baseDir string) error {
	switch {
	case c.Project.Root == "":
		c.Project.Root = baseDir
	case !filepath.IsAbs(c.Project.Root):
		c.Project.Root = filepath.Join(baseDir, c.Project.Root)
	}
	c.Project.Root = filepath.Clean(c.Project.Root)
	return c.Validate()
}

// Validate bounds-checks every tunable. Config errors carry the field
// path so the CLI can point at the offending line.
func (c *Config) Validate() error {
	if c.Scan.Workers < 0 || c.Scan.Workers > maxWorkers {
		return refserrors.NewConfigError("scan.workers", strconv.Itoa(c.Scan.Workers), errOutOfRange)
	}
	if c.Scan.MaxFileSize <= 0 || c.Scan.MaxFileSize > maxFileSizeCap {
		return refserrors.NewConfigError("scan.max_file_size", strconv.FormatInt(c.Scan.MaxFileSize, 10), errOutOfRange)
	}
	if _, ok := types.ParseMetaMode(c.Scan.Meta); !ok {
		return refserrors.NewConfigError("scan.meta", c.Scan.Meta, errBadMetaMode)
	}
	if c.History.Limit < 1 || c.History.Limit > maxHistory {
		return refserrors.NewConfigError("history.limit", strconv.Itoa(c.History.Limit), errOutOfRange)
	}
	if c.Watch.DebounceMs < 0 {
		return refserrors.NewConfigError("watch.debounce_ms", strconv.Itoa(c.Watch.DebounceMs), errOutOfRange)
	}
	for _, pattern := range append(append([]string{}, c.Filter.Include...), c.Filter.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return refserrors.NewConfigError("filter", pattern, errBadPattern)
		}
	}
	return nil
}

// FilterSpec converts the filter section into the corpus filter's
// input.
func (c *Config) FilterSpec() types.FilterSpec {
	return types.FilterSpec{
		Include:         c.Filter.Include,
		Exclude:         c.Filter.Exclude,
		Extensions:      c.Filter.Extensions,
		ExcludePackages: c.Filter.ExcludePackages,
	}
}

// MetaMode returns the scan section's sidecar mode.
func (c *Config) MetaMode() types.MetaMode {
	m, _ := types.ParseMetaMode(c.Scan.Meta)
	return m
}

// WatchDebounce returns the watch debounce as a duration.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.Watch.DebounceMs) * time.Millisecond
}
