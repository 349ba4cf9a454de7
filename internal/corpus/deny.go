// Binary extension deny-list for early rejection of non-text assets.
// Scanning imported binary payloads for identifier substrings wastes
// time and produces no matches, so their content reads are skipped.
package corpus

import (
	"path/filepath"
	"strings"
)

// binaryExtensions lists asset extensions whose content is never
// scanned. Deny-listed files stay in the corpus: only the primary
// content read is skipped, and the .meta sidecar remains eligible so
// references written into the sidecar are still found.
var binaryExtensions = map[string]bool{
	// 3D model formats
	".fbx":   true,
	".obj":   true,
	".blend": true,
	".dae":   true,
	".3ds":   true,
	".max":   true,
	".ma":    true,
	".mb":    true,
	".c4d":   true,

	// Image formats
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tga":  true,
	".psd":  true,
	".tif":  true,
	".tiff": true,
	".exr":  true,
	".hdr":  true,
	".dds":  true,
	".iff":  true,
	".pict": true,
	".ico":  true,
	".webp": true,
	".svg":  false, // SVG is text-based XML

	// Audio formats
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".flac": true,
	".aif":  true,
	".aiff": true,
	".mod":  true,
	".xm":   true,

	// Video formats
	".mp4":  true,
	".mov":  true,
	".avi":  true,
	".webm": true,
	".mpg":  true,
	".mpeg": true,

	// Font files
	".ttf":   true,
	".otf":   true,
	".woff":  true,
	".woff2": true,

	// Archives and packages
	".zip":          true,
	".7z":           true,
	".rar":          true,
	".gz":           true,
	".unitypackage": true,

	// Native plugins and libraries
	".dll":   true,
	".so":    true,
	".dylib": true,
	".a":     true,

	// Misc binary payloads
	".bytes": true,
	".bin":   true,
	".cubemap": false, // serialized as text
}

// ContentDenied reports whether the file's own content should be
// skipped based on its extension.
func ContentDenied(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return false
	}
	denied, exists := binaryExtensions[ext]
	return exists && denied
}
