package types

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// SearchConfig captures everything that shaped one search: the prepared
// tokens, the sidecar mode, the matching precision, and the corpus
// filter. Result history deduplicates on it, so two runs with the same
// config collapse into a single (most recent) entry.
type SearchConfig struct {
	Tokens   []ReferenceToken `json:"tokens"`
	Meta     MetaMode         `json:"meta"`
	GUIDOnly bool             `json:"guid_only,omitempty"`
	Filter   FilterSpec       `json:"filter"`
}

// Equal reports structural equality. Token order matters: the same
// targets in a different order describe a different per-target layout.
func (c SearchConfig) Equal(o SearchConfig) bool {
	if c.Meta != o.Meta || c.GUIDOnly != o.GUIDOnly {
		return false
	}
	if !c.Filter.Equal(o.Filter) {
		return false
	}
	if len(c.Tokens) != len(o.Tokens) {
		return false
	}
	for i := range c.Tokens {
		if c.Tokens[i] != o.Tokens[i] {
			return false
		}
	}
	return true
}

// Fingerprint returns a stable 64-bit digest of the config, used as the
// history dedup fast path. Equal configs always produce equal
// fingerprints; collisions are resolved with Equal.
func (c SearchConfig) Fingerprint() uint64 {
	d := xxhash.New()
	var n [8]byte

	writeStr := func(s string) {
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		d.Write(n[:])
		d.WriteString(s)
	}
	writeList := func(list []string) {
		binary.LittleEndian.PutUint64(n[:], uint64(len(list)))
		d.Write(n[:])
		for _, s := range list {
			writeStr(s)
		}
	}
	writeBool := func(b bool) {
		if b {
			d.Write([]byte{1})
		} else {
			d.Write([]byte{0})
		}
	}

	binary.LittleEndian.PutUint64(n[:], uint64(len(c.Tokens)))
	d.Write(n[:])
	for _, t := range c.Tokens {
		writeStr(t.TargetText)
		writeStr(t.GUID)
		writeStr(t.LocalID)
		writeBool(t.SubEntity)
		writeStr(t.OwnerPath)
	}

	d.Write([]byte{byte(c.Meta)})
	writeBool(c.GUIDOnly)

	writeList(c.Filter.Include)
	writeList(c.Filter.Exclude)
	writeList(c.Filter.Extensions)
	writeBool(c.Filter.ExcludePackages)

	return d.Sum64()
}
