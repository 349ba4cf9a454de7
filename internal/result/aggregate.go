package result

import (
	"sort"
	"time"

	"github.com/standardbeagle/refscan/internal/debug"
	"github.com/standardbeagle/refscan/internal/resolve"
	"github.com/standardbeagle/refscan/internal/scan"
	"github.com/standardbeagle/refscan/internal/types"
)

// Build reduces the scheduler's raw path matches into a ResultSet.
//
// For every (token, matched path) pair the path is resolved to its
// main entity; pairs that no longer resolve are dropped silently, as
// are self-matches (the found entity is the token's own target). Each
// surviving pair lands in PerTarget[token] and, symmetrically, in the
// found entity's Inverted entry, so the two views stay consistency
// linked: y is in PerTarget[x].Found exactly when x is in
// Inverted[y].Found.
//
// The merge runs single threaded after the scan join; found lists are
// sorted by path key at the end so identical inputs give identical
// output.
func Build(raw scan.RawMatches, cfg types.SearchConfig, r resolve.Resolver) *ResultSet {
	rs := newSkeleton(cfg, r)

	// The target's own display entry, one per token, reused for every
	// inverted append.
	sources := make([]FoundEntry, len(cfg.Tokens))
	for i, tok := range cfg.Tokens {
		if tok.IsText() {
			sources[i] = TextEntry(tok.TargetText)
			continue
		}
		if e, ok := r.ByRef(tok.Ref()); ok {
			sources[i] = EntryFor(e)
		} else {
			sources[i] = FoundEntry{Ref: tok.Ref()}
		}
	}

	invertedIdx := make(map[types.EntityRef]int)

	// Iterate paths in sorted order so Inverted grows deterministically.
	paths := make([]string, 0, len(raw.ByPath))
	for path := range raw.ByPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		main, ok := r.MainByPath(path)
		if !ok {
			debug.LogResolve("dropping unresolved match %s\n", path)
			continue
		}
		entry := EntryFor(main)

		for _, ti := range raw.ByPath[path] {
			if ti < 0 || ti >= len(cfg.Tokens) {
				continue
			}
			tok := cfg.Tokens[ti]
			if !tok.IsText() && tok.Ref() == main.Ref {
				continue // the target's own file mentioning itself
			}

			rs.PerTarget[ti].Append(entry)

			idx, ok := invertedIdx[main.Ref]
			if !ok {
				rs.Inverted = append(rs.Inverted, MatchResult{
					Root:     main.Ref,
					RootPath: main.Path,
				})
				idx = len(rs.Inverted) - 1
				invertedIdx[main.Ref] = idx
			}
			rs.Inverted[idx].Append(sources[ti])
		}
	}

	for i := range rs.PerTarget {
		rs.PerTarget[i].sortFound()
	}
	for i := range rs.Inverted {
		rs.Inverted[i].sortFound()
	}
	sort.Slice(rs.Inverted, func(i, j int) bool {
		if rs.Inverted[i].RootPath != rs.Inverted[j].RootPath {
			return rs.Inverted[i].RootPath < rs.Inverted[j].RootPath
		}
		return rs.Inverted[i].Root < rs.Inverted[j].Root
	})

	rs.TypeTags = collectTypeTags(rs.PerTarget)
	rs.Unreadable = raw.Unreadable
	return rs
}

// newSkeleton creates the result set with one empty MatchResult per
// token, root paths resolved for display.
func newSkeleton(cfg types.SearchConfig, r resolve.Resolver) *ResultSet {
	rs := &ResultSet{
		PerTarget: make([]MatchResult, len(cfg.Tokens)),
		Config:    cfg,
		CreatedAt: time.Now(),
	}
	for i, tok := range cfg.Tokens {
		if tok.IsText() {
			rs.PerTarget[i] = MatchResult{RootPath: tok.TargetText}
			continue
		}
		mr := MatchResult{Root: tok.Ref()}
		if path, ok := r.PathByGUID(tok.GUID); ok {
			mr.RootPath = path
		}
		rs.PerTarget[i] = mr
	}
	return rs
}

// collectTypeTags gathers the distinct non-empty tags across all found
// entities, sorted ascending.
func collectTypeTags(perTarget []MatchResult) []string {
	set := make(map[string]bool)
	for i := range perTarget {
		for _, f := range perTarget[i].Found {
			if f.TypeTag != "" {
				set[f.TypeTag] = true
			}
		}
	}
	if len(set) == 0 {
		return nil
	}
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
