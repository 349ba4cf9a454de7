package assetdb

import (
	"path"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/refscan/pkg/natsort"
)

// suggestThreshold filters out unrelated paths. Rationale: Jaro-Winkler
// scores below this read as noise rather than near-misses.
const suggestThreshold = 0.6

// SuggestPaths returns up to n indexed paths ranked by similarity to
// query, best first. Both the full path and the bare file name are
// compared, so a typoed file name still finds its asset even without
// the directory part. Used for "did you mean" output when a target
// path fails to resolve.
func (d *DB) SuggestPaths(query string, n int) []string {
	if n <= 0 || query == "" {
		return nil
	}
	paths, err := d.Paths()
	if err != nil {
		return nil
	}

	needle := strings.ToLower(query)
	type scored struct {
		path  string
		score float64
	}
	var candidates []scored

	for _, p := range paths {
		score := similarity(needle, strings.ToLower(p))
		if base := similarity(needle, strings.ToLower(path.Base(p))); base > score {
			score = base
		}
		if score >= suggestThreshold {
			candidates = append(candidates, scored{path: p, score: score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return natsort.Less(candidates[i].path, candidates[j].path)
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.path
	}
	return out
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0.0
	}
	return float64(score)
}
