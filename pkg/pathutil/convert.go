// Package pathutil provides utilities for converting between absolute and relative paths.
//
// Architecture Pattern:
// refscan uses slash-separated project-relative paths as the canonical file key
// everywhere: in the corpus, the asset index, tokens, and results. This package
// provides the conversion layer between OS paths and those canonical keys, and
// between internal absolute paths and user-facing relative display paths.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/home/user/project/Assets/Player.prefab", "/home/user/project") → "Assets/Player.prefab"
//   - ToRelative("/other/location/file.mat", "/home/user/project") → "/other/location/file.mat" (outside root)
//   - ToRelative("Assets/Player.prefab", "/home/user/project") → "Assets/Player.prefab" (already relative)
func ToRelative(absPath, rootDir string) string {
	// Handle empty inputs
	if absPath == "" || rootDir == "" {
		return absPath
	}

	// If path is already relative, return as-is
	if !filepath.IsAbs(absPath) {
		return absPath
	}

	// Clean both paths to normalize separators and remove redundant elements
	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		// Conversion failed (e.g., different drives on Windows) - return absolute
		return absPath
	}

	// A ".." prefix means the file is outside the root; the absolute
	// path is clearer in that case.
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}

// ToProjectKey converts an OS path into the canonical project key:
// slash-separated and relative to root. Paths outside the root come
// back unchanged apart from slash normalization.
func ToProjectKey(osPath, rootDir string) string {
	return filepath.ToSlash(ToRelative(osPath, rootDir))
}

// FromProjectKey converts a canonical project key back into an OS path
// under the given root.
func FromProjectKey(key, rootDir string) string {
	return filepath.Join(rootDir, filepath.FromSlash(key))
}
