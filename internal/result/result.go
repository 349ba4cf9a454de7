// Package result holds the output side of a search: the per-target and
// inverted match indexes, the bounded history of completed searches,
// and their persistence.
package result

import (
	"sort"
	"time"

	"github.com/standardbeagle/refscan/internal/resolve"
	"github.com/standardbeagle/refscan/internal/types"
)

// FoundEntry is one matched entity, self-contained for persistence:
// the display fields are captured at aggregation time and re-resolved
// lazily when freshness matters. A text search target appears as an
// entry with an empty Ref and the search text as Name.
type FoundEntry struct {
	Ref     types.EntityRef `json:"ref,omitempty"`
	Path    string          `json:"path,omitempty"`
	Name    string          `json:"name,omitempty"`
	TypeTag string          `json:"typeTag,omitempty"`
}

// EntryFor captures an entity into its persistable form.
func EntryFor(e resolve.Entity) FoundEntry {
	return FoundEntry{Ref: e.Ref, Path: e.Path, Name: e.Name, TypeTag: e.TypeTag}
}

// TextEntry represents a plain-text search target in the inverted view.
func TextEntry(text string) FoundEntry {
	return FoundEntry{Name: text}
}

// key is the identity used for dedup: the ref when present, the text
// otherwise.
func (f FoundEntry) key() string {
	if f.Ref != "" {
		return string(f.Ref)
	}
	return "text:" + f.Name
}

// MatchResult is one search target's outcome: the target and the
// ordered, unique list of entities that reference it (or that it is
// referenced by, in the inverted view).
type MatchResult struct {
	// Root identifies the target. Empty for plain-text searches;
	// resolution of the ref may fail later when the entity is gone,
	// which display layers must tolerate.
	Root types.EntityRef `json:"root,omitempty"`

	// RootPath is the display key captured when the set was built: the
	// entity's path, or the searched text for text targets.
	RootPath string `json:"rootPath,omitempty"`

	Found []FoundEntry `json:"found,omitempty"`

	// Replacement carries a user-chosen substitute entity opaquely
	// through persistence; nothing in this package consumes it.
	Replacement types.EntityRef `json:"replacement,omitempty"`

	// Expanded is a display flag that must round-trip.
	Expanded bool `json:"expanded,omitempty"`
}

// Append adds an entry unless an equal one is already present.
// Reports whether the list changed.
func (m *MatchResult) Append(e FoundEntry) bool {
	key := e.key()
	for _, have := range m.Found {
		if have.key() == key {
			return false
		}
	}
	m.Found = append(m.Found, e)
	return true
}

// Contains reports whether ref is in the found list.
func (m *MatchResult) Contains(ref types.EntityRef) bool {
	for _, have := range m.Found {
		if have.Ref == ref {
			return true
		}
	}
	return false
}

// Remove drops the entry with the given ref. Reports whether the list
// changed.
func (m *MatchResult) Remove(ref types.EntityRef) bool {
	for i, have := range m.Found {
		if have.Ref == ref && ref != "" {
			m.Found = append(m.Found[:i], m.Found[i+1:]...)
			return true
		}
	}
	return false
}

// sortFound orders entries by path, then ref, so equal inputs always
// produce identical output.
func (m *MatchResult) sortFound() {
	sort.Slice(m.Found, func(i, j int) bool {
		if m.Found[i].Path != m.Found[j].Path {
			return m.Found[i].Path < m.Found[j].Path
		}
		return m.Found[i].Ref < m.Found[j].Ref
	})
}

// ResultSet is the outcome of one full scan: both match indexes, the
// distinct type tags seen, and the configuration that produced it.
type ResultSet struct {
	// PerTarget holds one MatchResult per search token, in token
	// order: "what references target X".
	PerTarget []MatchResult `json:"perTarget"`

	// Inverted is keyed by found entity: "which targets does Y
	// reference". Built incrementally during aggregation.
	Inverted []MatchResult `json:"inverted,omitempty"`

	// TypeTags is the sorted set of type tags over all found entities,
	// for display filtering.
	TypeTags []string `json:"typeTags,omitempty"`

	// Unreadable counts the corpus files the scan could not read. Those
	// files were treated as non-matches.
	Unreadable int `json:"unreadable,omitempty"`

	Config    types.SearchConfig `json:"config"`
	CreatedAt time.Time          `json:"createdAt"`
}

// RemoveFound trims one (target, found) pair from both views so the
// dual-index invariant survives user-driven removal. An inverted entry
// left without sources is dropped entirely. Reports whether anything
// changed.
func (rs *ResultSet) RemoveFound(target, found types.EntityRef) bool {
	changed := false
	for i := range rs.PerTarget {
		if rs.PerTarget[i].Root == target && rs.PerTarget[i].Remove(found) {
			changed = true
		}
	}
	for i := range rs.Inverted {
		if rs.Inverted[i].Root != found {
			continue
		}
		if rs.Inverted[i].Remove(target) {
			changed = true
		}
		if len(rs.Inverted[i].Found) == 0 {
			rs.Inverted = append(rs.Inverted[:i], rs.Inverted[i+1:]...)
		}
		break
	}
	return changed
}

// FoundCount returns the total number of found entries across targets.
func (rs *ResultSet) FoundCount() int {
	n := 0
	for i := range rs.PerTarget {
		n += len(rs.PerTarget[i].Found)
	}
	return n
}
