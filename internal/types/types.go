package types

import "time"

// Common system-wide constants
const (
	// File size limits
	DefaultMaxFileSize = 16 * 1024 * 1024 // 16MB per file - upper bound for a scannable asset
	// Rationale: serialized scene and prefab text rarely exceeds a few
	// megabytes; anything larger is almost always an imported binary
	// payload that the extension deny-list should have caught anyway.

	ReadBufferSize = 64 * 1024 // 64KB fixed read buffer per scan worker
	// Rationale: large enough to drain typical asset files in a handful
	// of reads, small enough that one buffer per worker stays cheap.
	// Workers reuse the same buffer for every file in their batch.

	// History limits
	DefaultHistoryLimit = 30 // Bounded number of retained result sets
	// Rationale: covers a full working session of searches while keeping
	// the serialized history file small. Oldest entries are evicted first.

	// Scheduler timing
	ProgressPollInterval = 200 * time.Millisecond // Orchestrator progress sampling cadence
	// Rationale: frequent enough for a responsive progress bar, coarse
	// enough that polling never competes with the scan workers.

	DefaultWatchDebounce = 500 * time.Millisecond // File watcher event settle time
)

// MetaSuffix is the sidecar extension carrying an asset's identity block.
const MetaSuffix = ".meta"

// StateDirName is the per-project directory holding the asset index,
// persisted history, and named save slots.
const StateDirName = ".refscan"

// MetaMode controls how an asset's .meta sidecar participates in a scan.
type MetaMode uint8

const (
	// MetaNone scans only the asset's own content.
	MetaNone MetaMode = iota
	// MetaWithAsset appends the sidecar's content after the asset text,
	// separated by a newline, so both are scanned in one pass.
	MetaWithAsset
	// MetaOnly scans the sidecar's content alone.
	MetaOnly
)

func (m MetaMode) String() string {
	switch m {
	case MetaNone:
		return "none"
	case MetaWithAsset:
		return "with-asset"
	case MetaOnly:
		return "only"
	default:
		return "unknown"
	}
}

// ParseMetaMode converts a CLI or config string into a MetaMode.
func ParseMetaMode(s string) (MetaMode, bool) {
	switch s {
	case "none", "":
		return MetaNone, true
	case "with-asset", "before", "append":
		return MetaWithAsset, true
	case "only", "sidecar-only":
		return MetaOnly, true
	default:
		return MetaNone, false
	}
}

// FilterSpec is the serializable description of a corpus filter. It is
// recorded inside SearchConfig so that two searches over different file
// sets never deduplicate against each other.
type FilterSpec struct {
	Include         []string `json:"include,omitempty"`
	Exclude         []string `json:"exclude,omitempty"`
	Extensions      []string `json:"extensions,omitempty"`
	ExcludePackages bool     `json:"exclude_packages,omitempty"`
}

// Equal reports structural equality, order-sensitive on the pattern lists.
func (f FilterSpec) Equal(o FilterSpec) bool {
	return f.ExcludePackages == o.ExcludePackages &&
		stringSlicesEqual(f.Include, o.Include) &&
		stringSlicesEqual(f.Exclude, o.Exclude) &&
		stringSlicesEqual(f.Extensions, o.Extensions)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
