package types

import (
	"fmt"
	"strings"
)

// EntityRef is a reconstructible identifier for a project entity:
// "<guid>" for a main asset, "<guid>:<localID>" for a sub-entity.
// Refs survive persistence and are re-resolved against the live
// project on restore, so a ref may point at an entity that no
// longer exists.
type EntityRef string

// MakeRef builds an EntityRef from its identifier parts.
func MakeRef(guid, localID string) EntityRef {
	if localID == "" {
		return EntityRef(guid)
	}
	return EntityRef(guid + ":" + localID)
}

// Split returns the GUID and local identifier parts of the ref.
// The local part is empty for main-entity refs.
func (r EntityRef) Split() (guid, localID string) {
	s := string(r)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// GUID returns the ref's GUID part.
func (r EntityRef) GUID() string {
	guid, _ := r.Split()
	return guid
}

// IsSub reports whether the ref identifies a sub-entity.
func (r EntityRef) IsSub() bool {
	return strings.IndexByte(string(r), ':') >= 0
}

// ReferenceToken is one search target prepared for content matching.
// Exactly one of TargetText or GUID is set: text tokens request a plain
// substring search, identifier tokens request GUID/local-id matching.
type ReferenceToken struct {
	// TargetText, when set, turns the token into a raw case-sensitive
	// substring search and all identifier fields are ignored.
	TargetText string `json:"target_text,omitempty"`

	// GUID is the target's stable 32-hex identifier.
	GUID string `json:"guid,omitempty"`

	// LocalID narrows the target to one sub-entity inside the asset.
	// Empty for whole-file and container targets.
	LocalID string `json:"local_id,omitempty"`

	// SubEntity marks the token as addressing a sub-entity, which
	// enables the same-file short-form reference rule.
	SubEntity bool `json:"sub_entity,omitempty"`

	// OwnerPath is the project-relative path of the file the entity
	// lives in. Same-file references omit the GUID, so the matcher
	// needs to know when it is scanning the owner itself.
	OwnerPath string `json:"owner_path,omitempty"`
}

// IsText reports whether the token is a plain-text search.
func (t ReferenceToken) IsText() bool {
	return t.TargetText != ""
}

// Ref returns the token's entity ref, or "" for text tokens.
func (t ReferenceToken) Ref() EntityRef {
	if t.IsText() {
		return ""
	}
	return MakeRef(t.GUID, t.LocalID)
}

// Validate checks the token's internal consistency before any scan work
// begins. A token must be either a text search or an identifier search,
// never both and never neither.
func (t ReferenceToken) Validate() error {
	if t.TargetText != "" && t.GUID != "" {
		return fmt.Errorf("reference token sets both target text %q and guid %q", t.TargetText, t.GUID)
	}
	if t.TargetText == "" && t.GUID == "" {
		return fmt.Errorf("reference token has no target text and no guid")
	}
	if t.SubEntity && t.LocalID == "" {
		return fmt.Errorf("sub-entity token for guid %q has no local id", t.GUID)
	}
	return nil
}

// Equal reports field-by-field equality.
func (t ReferenceToken) Equal(o ReferenceToken) bool {
	return t == o
}
