package scan

import (
	"strings"

	"github.com/standardbeagle/refscan/internal/types"
)

// Pure functions for reference matching. These depend only on their
// inputs and carry no state, so every rule is testable in isolation.

// Matches reports whether content references the token's target. The
// rules apply in priority order and the first applicable one decides:
//
//  1. Text tokens are a case-sensitive substring search.
//  2. A sub-entity scanned inside its own file matches on the
//     short-form local reference, which omits the GUID entirely.
//  3. With guidOnly, or without a local id, any occurrence of the GUID
//     is enough.
//  4. Full precision: some occurrence of the GUID must sit on a line
//     that also contains the local id.
//
// The same-file rule outranks guidOnly: a GUID search cannot see
// short-form references, so precision is raised, not lowered, for that
// one file.
func Matches(tok types.ReferenceToken, content, filePath string, guidOnly bool) bool {
	if tok.TargetText != "" {
		return strings.Contains(content, tok.TargetText)
	}

	if tok.SubEntity && tok.OwnerPath == filePath {
		return strings.Contains(content, LocalRefLiteral(tok.LocalID))
	}

	if guidOnly || tok.LocalID == "" {
		return strings.Contains(content, tok.GUID)
	}

	return containsIdentifierPair(content, tok.GUID, tok.LocalID)
}

// LocalRefLiteral returns the short-form reference text a serialized
// object uses for a sibling inside the same file.
func LocalRefLiteral(localID string) string {
	return "{fileID: " + localID + "}"
}

// containsIdentifierPair reports whether any occurrence of guid lies on
// a line that also contains localID. Every occurrence is checked, not
// just the first: a file can reference several sub-entities of the same
// asset and only one of those lines needs to name this local id.
func containsIdentifierPair(content, guid, localID string) bool {
	if guid == "" {
		return false
	}
	for offset := 0; ; {
		idx := strings.Index(content[offset:], guid)
		if idx < 0 {
			return false
		}
		at := offset + idx
		if strings.Contains(content[lineStart(content, at):lineEnd(content, at)], localID) {
			return true
		}
		offset = at + 1
	}
}

// lineStart returns the offset of the start of the line containing
// offset. This is a pure function.
func lineStart(content string, offset int) int {
	if len(content) == 0 || offset <= 0 {
		return 0
	}
	if offset > len(content) {
		offset = len(content)
	}
	idx := strings.LastIndexByte(content[:offset], '\n')
	if idx < 0 {
		return 0
	}
	return idx + 1
}

// lineEnd returns the offset of the end of the line containing offset:
// the position of the newline or the end of content.
func lineEnd(content string, offset int) int {
	if len(content) == 0 {
		return 0
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(content) {
		return len(content)
	}
	idx := strings.IndexByte(content[offset:], '\n')
	if idx < 0 {
		return len(content)
	}
	return offset + idx
}
