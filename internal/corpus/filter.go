package corpus

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/refscan/internal/debug"
	refserrors "github.com/standardbeagle/refscan/internal/errors"
	"github.com/standardbeagle/refscan/internal/types"
)

// packagesDir is the shared-dependency folder excluded when the filter
// asks for project-owned assets only.
const packagesDir = "Packages"

// Filter selects which project files form the scan corpus. A filter is
// compiled once from its spec and reused across scans; matching always
// operates on slash-separated project-relative paths.
type Filter struct {
	spec       types.FilterSpec
	extensions map[string]bool
}

// NewFilter validates the spec's glob patterns and compiles the filter.
func NewFilter(spec types.FilterSpec) (*Filter, error) {
	for _, pattern := range append(append([]string{}, spec.Include...), spec.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, refserrors.NewValidationError("filter", "bad glob pattern "+pattern)
		}
	}

	var exts map[string]bool
	if len(spec.Extensions) > 0 {
		exts = make(map[string]bool, len(spec.Extensions))
		for _, e := range spec.Extensions {
			e = strings.ToLower(e)
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			exts[e] = true
		}
	}

	return &Filter{spec: spec, extensions: exts}, nil
}

// Spec returns the filter's originating spec, recorded into each
// SearchConfig so history dedup accounts for the corpus shape.
func (f *Filter) Spec() types.FilterSpec {
	return f.spec
}

// Match reports whether a project-relative path belongs to the corpus.
func (f *Filter) Match(rel string) bool {
	// Sidecars never enter the corpus themselves; the loader reaches
	// them through the meta mode.
	if strings.HasSuffix(rel, types.MetaSuffix) {
		return false
	}

	if f.spec.ExcludePackages {
		if rel == packagesDir || strings.HasPrefix(rel, packagesDir+"/") {
			return false
		}
	}

	if f.extensions != nil && !f.extensions[strings.ToLower(filepath.Ext(rel))] {
		return false
	}

	if len(f.spec.Include) > 0 {
		included := false
		for _, pattern := range f.spec.Include {
			if ok, _ := doublestar.Match(pattern, rel); ok {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	for _, pattern := range f.spec.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}

	return true
}

// Paths walks the project root and returns the corpus: every matching
// file as a slash-separated relative path, in deterministic walk order.
func (f *Filter) Paths(root string) (Corpus, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Corpus{}, refserrors.NewScanError("enumerate", err).WithPath(root)
	}

	// Track real directory paths to prevent infinite loops from
	// symlink cycles.
	visitedDirs := make(map[string]bool)

	var paths []string
	walkErr := filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			debug.LogScan("enumerate: skipping %s: %v\n", path, err)
			return nil
		}

		if info.IsDir() {
			name := info.Name()
			if path != absRoot && (name == ".git" || name == types.StateDirName) {
				return filepath.SkipDir
			}
			if f.spec.ExcludePackages {
				if rel, err := filepath.Rel(absRoot, path); err == nil && filepath.ToSlash(rel) == packagesDir {
					return filepath.SkipDir
				}
			}

			realPath, err := filepath.EvalSymlinks(path)
			if err != nil {
				return filepath.SkipDir
			}
			if visitedDirs[realPath] {
				return filepath.SkipDir
			}
			visitedDirs[realPath] = true
			return nil
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if f.Match(rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	if walkErr != nil {
		return Corpus{}, refserrors.NewScanError("enumerate", walkErr).WithPath(root)
	}

	debug.LogScan("enumerate: %d files in corpus under %s\n", len(paths), absRoot)
	return Corpus{paths: paths}, nil
}
