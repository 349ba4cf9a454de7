package result

import (
	"errors"
	"sync"

	"github.com/standardbeagle/refscan/internal/debug"
	"github.com/standardbeagle/refscan/internal/types"
)

// ErrNoHistory signals that a navigation or display request found no
// retained searches to operate on.
var ErrNoHistory = errors.New("no search history")

// History is a bounded, navigable stack of completed result sets. It
// takes an explicit mutex because the watch command pushes from the
// rescan callback while the display goroutine navigates.
type History struct {
	mu      sync.Mutex
	entries []*ResultSet
	cursor  int
	limit   int
}

// NewHistory creates an empty history. A non-positive limit selects
// the default bound.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = types.DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push records a completed search. An existing entry produced by a
// structurally equal configuration is removed first, so repeating the
// same search never grows the history; the oldest entry is evicted
// beyond the bound and the cursor moves to the new entry.
func (h *History) Push(rs *ResultSet) {
	if rs == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	fp := rs.Config.Fingerprint()
	for i := 0; i < len(h.entries); i++ {
		if h.entries[i].Config.Fingerprint() != fp {
			continue
		}
		if !h.entries[i].Config.Equal(rs.Config) {
			continue // fingerprint collision, keep it
		}
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
		debug.LogHistory("replaced equivalent search at %d\n", i)
		break
	}

	h.entries = append(h.entries, rs)
	if len(h.entries) > h.limit {
		h.entries = h.entries[1:]
	}
	h.cursor = len(h.entries) - 1
}

// Prev moves the cursor one entry older and returns the selection.
// Clamps at the oldest entry; never wraps.
func (h *History) Prev() *ResultSet {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return nil
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor]
}

// Next moves the cursor one entry newer and returns the selection.
// Clamps at the newest entry; never wraps.
func (h *History) Next() *ResultSet {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return nil
	}
	if h.cursor < len(h.entries)-1 {
		h.cursor++
	}
	return h.entries[h.cursor]
}

// Current returns the entry at the cursor, or the most recent entry
// when the cursor is out of range.
func (h *History) Current() *ResultSet {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return nil
	}
	if h.cursor < 0 || h.cursor >= len(h.entries) {
		return h.entries[len(h.entries)-1]
	}
	return h.entries[h.cursor]
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// CursorIndex returns the cursor position, oldest first, or -1 when
// the history is empty. Persisted so navigation survives restarts.
func (h *History) CursorIndex() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return -1
	}
	if h.cursor < 0 || h.cursor >= len(h.entries) {
		return len(h.entries) - 1
	}
	return h.cursor
}

// Seek moves the cursor to the given index, clamped into range.
func (h *History) Seek(i int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return
	}
	if i < 0 {
		i = 0
	}
	if i >= len(h.entries) {
		i = len(h.entries) - 1
	}
	h.cursor = i
}

// Entries returns a snapshot of the retained entries, oldest first.
func (h *History) Entries() []*ResultSet {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*ResultSet, len(h.entries))
	copy(out, h.entries)
	return out
}

// replaceAll swaps the retained entries wholesale; used by restore.
func (h *History) replaceAll(entries []*ResultSet) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(entries) > h.limit {
		entries = entries[len(entries)-h.limit:]
	}
	h.entries = entries
	h.cursor = len(entries) - 1
}
