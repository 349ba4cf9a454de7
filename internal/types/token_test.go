package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntityRef(t *testing.T) {
	t.Run("main entity ref has no local part", func(t *testing.T) {
		ref := MakeRef("9fc0d4010bbf28b4594072e72b8655ab", "")
		assert.Equal(t, EntityRef("9fc0d4010bbf28b4594072e72b8655ab"), ref)
		assert.False(t, ref.IsSub())

		guid, localID := ref.Split()
		assert.Equal(t, "9fc0d4010bbf28b4594072e72b8655ab", guid)
		assert.Empty(t, localID)
	})

	t.Run("sub entity ref round-trips both parts", func(t *testing.T) {
		ref := MakeRef("9fc0d4010bbf28b4594072e72b8655ab", "8926484042661614526")
		assert.True(t, ref.IsSub())

		guid, localID := ref.Split()
		assert.Equal(t, "9fc0d4010bbf28b4594072e72b8655ab", guid)
		assert.Equal(t, "8926484042661614526", localID)
		assert.Equal(t, "9fc0d4010bbf28b4594072e72b8655ab", ref.GUID())
	})
}

func TestReferenceTokenValidate(t *testing.T) {
	tests := []struct {
		name    string
		token   ReferenceToken
		wantErr bool
	}{
		{
			name:  "guid token",
			token: ReferenceToken{GUID: "9fc0d4010bbf28b4594072e72b8655ab"},
		},
		{
			name:  "text token",
			token: ReferenceToken{TargetText: "MainCamera"},
		},
		{
			name: "sub entity token",
			token: ReferenceToken{
				GUID:      "9fc0d4010bbf28b4594072e72b8655ab",
				LocalID:   "400000",
				SubEntity: true,
				OwnerPath: "Assets/Player.prefab",
			},
		},
		{
			name:    "both text and guid",
			token:   ReferenceToken{TargetText: "x", GUID: "y"},
			wantErr: true,
		},
		{
			name:    "neither text nor guid",
			token:   ReferenceToken{},
			wantErr: true,
		},
		{
			name:    "sub entity without local id",
			token:   ReferenceToken{GUID: "9fc0d4010bbf28b4594072e72b8655ab", SubEntity: true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.token.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReferenceTokenRef(t *testing.T) {
	t.Run("text token has empty ref", func(t *testing.T) {
		tok := ReferenceToken{TargetText: "Spawner"}
		assert.Equal(t, EntityRef(""), tok.Ref())
	})

	t.Run("identifier token builds a ref", func(t *testing.T) {
		tok := ReferenceToken{GUID: "abc123", LocalID: "42", SubEntity: true}
		assert.Equal(t, EntityRef("abc123:42"), tok.Ref())
	})
}

func TestParseMetaMode(t *testing.T) {
	for _, mode := range []MetaMode{MetaNone, MetaWithAsset, MetaOnly} {
		parsed, ok := ParseMetaMode(mode.String())
		assert.True(t, ok, "mode %s should parse", mode)
		assert.Equal(t, mode, parsed)
	}

	_, ok := ParseMetaMode("bogus")
	assert.False(t, ok)
}
