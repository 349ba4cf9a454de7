package result

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	refserrors "github.com/standardbeagle/refscan/internal/errors"
	"github.com/standardbeagle/refscan/internal/types"
	"github.com/standardbeagle/refscan/pkg/natsort"
)

// ErrSlotNotFound signals a load from a slot name that was never
// saved.
var ErrSlotNotFound = errors.New("slot not found")

const (
	// persistVersion guards the envelope layout of saved files.
	persistVersion = 1

	slotsDirName    = "slots"
	historyFileName = "history.json"
	slotFileExt     = ".json"
)

// slotFile is the envelope for one saved result set.
type slotFile struct {
	Version int        `json:"version"`
	SavedAt time.Time  `json:"savedAt"`
	Result  *ResultSet `json:"result"`
}

// historyFile is the envelope for the autosaved history. Cursor
// preserves the navigation position between invocations.
type historyFile struct {
	Version int          `json:"version"`
	SavedAt time.Time    `json:"savedAt"`
	Cursor  int          `json:"cursor"`
	Results []*ResultSet `json:"results"`
}

func slotsDir(root string) string {
	return filepath.Join(root, types.StateDirName, slotsDirName)
}

func slotPath(root, name string) string {
	return filepath.Join(slotsDir(root), name+slotFileExt)
}

func historyPath(root string) string {
	return filepath.Join(root, types.StateDirName, historyFileName)
}

// validSlotName keeps slot files inside the slots directory.
func validSlotName(name string) error {
	if name == "" {
		return refserrors.NewValidationError("slot", "name is empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return refserrors.NewValidationError("slot", "name must not contain path separators")
	}
	return nil
}

// SaveSlot writes one result set to a named slot under the project
// state directory.
func SaveSlot(root, name string, rs *ResultSet) error {
	if err := validSlotName(name); err != nil {
		return err
	}
	if rs == nil {
		return refserrors.NewValidationError("slot", "nothing to save")
	}
	if err := os.MkdirAll(slotsDir(root), 0o755); err != nil {
		return refserrors.NewPersistError("save-slot", slotPath(root, name), err)
	}

	data, err := json.MarshalIndent(slotFile{
		Version: persistVersion,
		SavedAt: time.Now(),
		Result:  rs,
	}, "", "  ")
	if err != nil {
		return refserrors.NewPersistError("save-slot", slotPath(root, name), err)
	}
	if err := os.WriteFile(slotPath(root, name), data, 0o644); err != nil {
		return refserrors.NewPersistError("save-slot", slotPath(root, name), err)
	}
	return nil
}

// LoadSlot restores one saved result set. Corrupt or incompatible
// slots surface a persistence error and leave the caller's in-memory
// state untouched.
func LoadSlot(root, name string) (*ResultSet, error) {
	if err := validSlotName(name); err != nil {
		return nil, err
	}
	path := slotPath(root, name)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, refserrors.NewPersistError("load-slot", path, ErrSlotNotFound)
	}
	if err != nil {
		return nil, refserrors.NewPersistError("load-slot", path, err)
	}

	var envelope slotFile
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, refserrors.NewPersistError("load-slot", path, err)
	}
	if envelope.Version != persistVersion || envelope.Result == nil {
		return nil, refserrors.NewPersistError("load-slot", path,
			refserrors.ErrIncompatibleSlot)
	}
	return envelope.Result, nil
}

// Slots lists the saved slot names in natural order.
func Slots(root string) ([]string, error) {
	entries, err := os.ReadDir(slotsDir(root))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, refserrors.NewPersistError("list-slots", slotsDir(root), err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), slotFileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), slotFileExt))
	}
	natsort.Strings(names)
	return names, nil
}

// SaveHistory autosaves the whole history under the state directory.
func SaveHistory(root string, h *History) error {
	if err := os.MkdirAll(filepath.Dir(historyPath(root)), 0o755); err != nil {
		return refserrors.NewPersistError("save-history", historyPath(root), err)
	}

	data, err := json.MarshalIndent(historyFile{
		Version: persistVersion,
		SavedAt: time.Now(),
		Cursor:  h.CursorIndex(),
		Results: h.Entries(),
	}, "", "  ")
	if err != nil {
		return refserrors.NewPersistError("save-history", historyPath(root), err)
	}
	if err := os.WriteFile(historyPath(root), data, 0o644); err != nil {
		return refserrors.NewPersistError("save-history", historyPath(root), err)
	}
	return nil
}

// LoadHistory restores the autosaved history. The returned history is
// always usable: a missing file yields an empty history and no error,
// a corrupt or incompatible file yields an empty history plus the
// error so the caller can warn and continue.
func LoadHistory(root string, limit int) (*History, error) {
	h := NewHistory(limit)

	data, err := os.ReadFile(historyPath(root))
	if os.IsNotExist(err) {
		return h, nil
	}
	if err != nil {
		return h, refserrors.NewPersistError("load-history", historyPath(root), err)
	}

	var envelope historyFile
	if err := json.Unmarshal(data, &envelope); err != nil {
		return h, refserrors.NewPersistError("load-history", historyPath(root), err)
	}
	if envelope.Version != persistVersion {
		return h, refserrors.NewPersistError("load-history", historyPath(root),
			refserrors.ErrIncompatibleSlot)
	}

	entries := make([]*ResultSet, 0, len(envelope.Results))
	for _, rs := range envelope.Results {
		if rs != nil {
			entries = append(entries, rs)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	h.replaceAll(entries)
	if envelope.Cursor >= 0 && envelope.Cursor < len(entries) {
		h.Seek(envelope.Cursor)
	}
	return h, nil
}
