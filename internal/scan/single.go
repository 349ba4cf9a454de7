package scan

import (
	"github.com/standardbeagle/refscan/internal/types"
)

// SearchFile checks one file against every token without spinning up
// the worker pool. Load failures surface directly instead of being
// folded into a non-match, so callers can distinguish "no reference"
// from "could not read".
func SearchFile(root, rel string, tokens []types.ReferenceToken, meta types.MetaMode, guidOnly bool) ([]int, error) {
	loader := NewLoader()
	content, err := loader.Load(root, rel, meta)
	if err != nil {
		return nil, err
	}

	var hit []int
	for ti := range tokens {
		if Matches(tokens[ti], content, rel, guidOnly) {
			hit = append(hit, ti)
		}
	}
	return hit, nil
}
