package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/refscan/internal/types"
)

func TestMatchesText(t *testing.T) {
	tok := types.ReferenceToken{TargetText: "m_Shader"}

	t.Run("substring_present", func(t *testing.T) {
		assert.True(t, Matches(tok, "  m_Shader: {fileID: 46}", "Assets/M.mat", false))
	})

	t.Run("substring_absent", func(t *testing.T) {
		assert.False(t, Matches(tok, "  m_Texture: {fileID: 46}", "Assets/M.mat", false))
	})

	t.Run("case_sensitive", func(t *testing.T) {
		assert.False(t, Matches(tok, "  m_shader: {fileID: 46}", "Assets/M.mat", false))
	})

	t.Run("ignores_guid_only_flag", func(t *testing.T) {
		assert.True(t, Matches(tok, "m_Shader", "Assets/M.mat", true))
	})
}

func TestMatchesSameFileShortForm(t *testing.T) {
	tok := types.ReferenceToken{
		GUID:      "0447259152e2d2f47af3d0bd82cdffc9",
		LocalID:   "400042",
		SubEntity: true,
		OwnerPath: "Assets/Player.prefab",
	}

	t.Run("short_form_in_owner_file", func(t *testing.T) {
		content := "  m_Father: {fileID: 400042}\n"
		assert.True(t, Matches(tok, content, "Assets/Player.prefab", false))
	})

	t.Run("short_form_outranks_guid_only", func(t *testing.T) {
		// No GUID anywhere in content: the same-file rule must still
		// fire even when guidOnly would otherwise win.
		content := "  m_Father: {fileID: 400042}\n"
		assert.True(t, Matches(tok, content, "Assets/Player.prefab", true))
	})

	t.Run("guid_alone_not_enough_in_owner_file", func(t *testing.T) {
		content := "  guid: 0447259152e2d2f47af3d0bd82cdffc9\n"
		assert.False(t, Matches(tok, content, "Assets/Player.prefab", false))
	})

	t.Run("other_file_uses_pair_rule", func(t *testing.T) {
		content := "{fileID: 400042, guid: 0447259152e2d2f47af3d0bd82cdffc9, type: 3}"
		assert.True(t, Matches(tok, content, "Assets/Scenes/Main.unity", false))
	})

	t.Run("other_file_ignores_short_form", func(t *testing.T) {
		content := "  m_Father: {fileID: 400042}\n"
		assert.False(t, Matches(tok, content, "Assets/Scenes/Main.unity", false))
	})
}

func TestMatchesGUIDSubstring(t *testing.T) {
	t.Run("no_local_id", func(t *testing.T) {
		tok := types.ReferenceToken{GUID: "abc123"}
		assert.True(t, Matches(tok, "guid: abc123, type: 2", "Assets/A.asset", false))
		assert.False(t, Matches(tok, "guid: def456, type: 2", "Assets/A.asset", false))
	})

	t.Run("guid_only_skips_pair_check", func(t *testing.T) {
		tok := types.ReferenceToken{GUID: "abc123", LocalID: "7700000"}
		content := "guid: abc123\nfileID: 7700000"
		//          guid and local id on different lines
		assert.True(t, Matches(tok, content, "Assets/A.asset", true),
			"guidOnly should not require the pair on one line")
		assert.False(t, Matches(tok, content, "Assets/A.asset", false),
			"precision should require the pair on one line")
	})
}

func TestContainsIdentifierPair(t *testing.T) {
	const guid = "0447259152e2d2f47af3d0bd82cdffc9"

	t.Run("pair_on_same_line", func(t *testing.T) {
		content := "  m_Mesh: {fileID: 4300002, guid: " + guid + ", type: 3}\n"
		assert.True(t, containsIdentifierPair(content, guid, "4300002"))
	})

	t.Run("pair_on_different_lines", func(t *testing.T) {
		content := "fileID: 4300002\nguid: " + guid + "\n"
		assert.False(t, containsIdentifierPair(content, guid, "4300002"))
	})

	t.Run("every_occurrence_checked", func(t *testing.T) {
		// First two occurrences reference other sub-assets; only the
		// third line carries the wanted local id.
		content := "{fileID: 100, guid: " + guid + "}\n" +
			"{fileID: 200, guid: " + guid + "}\n" +
			"{fileID: 4300002, guid: " + guid + "}\n"
		assert.True(t, containsIdentifierPair(content, guid, "4300002"))
	})

	t.Run("no_occurrence_qualifies", func(t *testing.T) {
		content := "{fileID: 100, guid: " + guid + "}\n" +
			"{fileID: 200, guid: " + guid + "}\n"
		assert.False(t, containsIdentifierPair(content, guid, "4300002"))
	})

	t.Run("local_id_before_guid_on_line", func(t *testing.T) {
		content := "fileID: 4300002, guid: " + guid
		assert.True(t, containsIdentifierPair(content, guid, "4300002"))
	})

	t.Run("last_line_without_trailing_newline", func(t *testing.T) {
		content := "header\n{fileID: 4300002, guid: " + guid + "}"
		assert.True(t, containsIdentifierPair(content, guid, "4300002"))
	})

	t.Run("empty_guid_never_matches", func(t *testing.T) {
		assert.False(t, containsIdentifierPair("anything", "", "42"))
	})

	t.Run("guid_absent", func(t *testing.T) {
		assert.False(t, containsIdentifierPair("no identifiers here", guid, "42"))
	})
}

func TestLocalRefLiteral(t *testing.T) {
	assert.Equal(t, "{fileID: 400042}", LocalRefLiteral("400042"))
}

func TestLineBounds(t *testing.T) {
	content := "line1\nline2\nline3"
	//          012345 678901 234567

	t.Run("line_start", func(t *testing.T) {
		testCases := []struct {
			offset   int
			expected int
		}{
			{0, 0},   // start of line 1
			{4, 0},   // inside line 1
			{6, 6},   // start of line 2
			{10, 6},  // inside line 2
			{12, 12}, // start of line 3
			{16, 12}, // end of line 3
			{-3, 0},  // clamps low
			{99, 12}, // clamps high
		}
		for _, tc := range testCases {
			assert.Equal(t, tc.expected, lineStart(content, tc.offset),
				"lineStart at offset %d", tc.offset)
		}
	})

	t.Run("line_end", func(t *testing.T) {
		testCases := []struct {
			offset   int
			expected int
		}{
			{0, 5},   // line 1 ends at its newline
			{4, 5},   // inside line 1
			{6, 11},  // line 2
			{12, 17}, // line 3 runs to end of content
			{-3, 5},  // clamps low
			{99, 17}, // clamps high
		}
		for _, tc := range testCases {
			assert.Equal(t, tc.expected, lineEnd(content, tc.offset),
				"lineEnd at offset %d", tc.offset)
		}
	})

	t.Run("empty_content", func(t *testing.T) {
		assert.Equal(t, 0, lineStart("", 0))
		assert.Equal(t, 0, lineEnd("", 0))
	})
}
