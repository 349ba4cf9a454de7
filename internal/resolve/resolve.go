// Package resolve defines the entity model the search core works in
// terms of: stable references to assets and sub-assets, and the
// Resolver that maps between references, project paths and display
// data. The core never talks to the asset database directly; it only
// sees this interface.
package resolve

import (
	"github.com/standardbeagle/refscan/internal/types"
)

// Entity is one addressable thing in the project: a main asset, or a
// sub-asset serialized inside one.
type Entity struct {
	Ref     types.EntityRef `json:"ref"`
	GUID    string          `json:"guid"`
	LocalID string          `json:"localId,omitempty"`
	Path    string          `json:"path"`
	Name    string          `json:"name"`
	TypeTag string          `json:"typeTag,omitempty"`
	Sub     bool            `json:"sub,omitempty"`
}

// Main builds the entity for an asset's primary object.
func Main(guid, path, name, typeTag string) Entity {
	return Entity{
		Ref:     types.MakeRef(guid, ""),
		GUID:    guid,
		Path:    path,
		Name:    name,
		TypeTag: typeTag,
	}
}

// Sub builds the entity for one serialized object inside an asset.
func Sub(guid, localID, path, name, typeTag string) Entity {
	return Entity{
		Ref:     types.MakeRef(guid, localID),
		GUID:    guid,
		LocalID: localID,
		Path:    path,
		Name:    name,
		TypeTag: typeTag,
		Sub:     true,
	}
}

// Resolver maps between project paths, entity references and entities.
// Implementations may report an entry as missing (deleted or corrupt
// index rows); callers tolerate that and skip the entry.
type Resolver interface {
	// MainByPath returns the primary entity for a project-relative path.
	MainByPath(path string) (Entity, bool)

	// SubsByPath lists the sub-entities serialized inside the asset at
	// path, excluding the primary object.
	SubsByPath(path string) ([]Entity, error)

	// ByRef resolves a reference back to a full entity.
	ByRef(ref types.EntityRef) (Entity, bool)

	// PathByGUID returns the current project path of an asset.
	PathByGUID(guid string) (string, bool)
}

// Container-style assets hold other assets rather than data of their
// own; references to them never carry a local id.
func isContainer(typeTag string) bool {
	return typeTag == "DefaultAsset" || typeTag == "Folder"
}

// TokenFor derives the scan token for an entity. Main entities and
// containers search by GUID alone; sub-entities carry their local id
// and remember the owning file for same-file short-form matching.
func TokenFor(e Entity) types.ReferenceToken {
	if !e.Sub || e.LocalID == "" || isContainer(e.TypeTag) {
		return types.ReferenceToken{GUID: e.GUID}
	}
	return types.ReferenceToken{
		GUID:      e.GUID,
		LocalID:   e.LocalID,
		SubEntity: true,
		OwnerPath: e.Path,
	}
}
