package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/refscan/internal/resolve"
	"github.com/standardbeagle/refscan/internal/scan"
	"github.com/standardbeagle/refscan/internal/types"
)

// fakeResolver backs aggregation tests with a fixed project layout.
type fakeResolver struct {
	byPath map[string]resolve.Entity
	byRef  map[types.EntityRef]resolve.Entity
}

func newFakeResolver(entities ...resolve.Entity) *fakeResolver {
	f := &fakeResolver{
		byPath: make(map[string]resolve.Entity),
		byRef:  make(map[types.EntityRef]resolve.Entity),
	}
	for _, e := range entities {
		if !e.Sub {
			f.byPath[e.Path] = e
		}
		f.byRef[e.Ref] = e
	}
	return f
}

func (f *fakeResolver) MainByPath(path string) (resolve.Entity, bool) {
	e, ok := f.byPath[path]
	return e, ok
}

func (f *fakeResolver) SubsByPath(path string) ([]resolve.Entity, error) {
	var subs []resolve.Entity
	for _, e := range f.byRef {
		if e.Sub && e.Path == path {
			subs = append(subs, e)
		}
	}
	return subs, nil
}

func (f *fakeResolver) ByRef(ref types.EntityRef) (resolve.Entity, bool) {
	e, ok := f.byRef[ref]
	return e, ok
}

func (f *fakeResolver) PathByGUID(guid string) (string, bool) {
	for _, e := range f.byPath {
		if e.GUID == guid {
			return e.Path, true
		}
	}
	return "", false
}

const (
	guidTarget = "aaaa0000aaaa0000aaaa0000aaaa0000"
	guidSceneA = "bbbb0000bbbb0000bbbb0000bbbb0000"
	guidSceneB = "cccc0000cccc0000cccc0000cccc0000"
)

func testProject() *fakeResolver {
	return newFakeResolver(
		resolve.Main(guidTarget, "Assets/Player.prefab", "Player", "Prefab"),
		resolve.Main(guidSceneA, "Assets/Levels/A.unity", "A", "Scene"),
		resolve.Main(guidSceneB, "Assets/Levels/B.unity", "B", "Scene"),
	)
}

func entityConfig(guids ...string) types.SearchConfig {
	cfg := types.SearchConfig{Meta: types.MetaWithAsset}
	for _, g := range guids {
		cfg.Tokens = append(cfg.Tokens, types.ReferenceToken{GUID: g})
	}
	return cfg
}

// requireSymmetric asserts the dual-index invariant: y is in
// PerTarget[x].Found exactly when x is in Inverted[y].Found.
func requireSymmetric(t *testing.T, rs *ResultSet) {
	t.Helper()

	inverted := make(map[types.EntityRef]*MatchResult)
	for i := range rs.Inverted {
		inverted[rs.Inverted[i].Root] = &rs.Inverted[i]
	}

	forward := 0
	for i := range rs.PerTarget {
		target := rs.PerTarget[i]
		for _, f := range target.Found {
			forward++
			inv, ok := inverted[f.Ref]
			require.True(t, ok, "found entity %s has no inverted entry", f.Ref)
			if target.Root != "" {
				require.True(t, inv.Contains(target.Root),
					"inverted entry %s is missing target %s", f.Ref, target.Root)
			}
		}
	}

	backward := 0
	for i := range rs.Inverted {
		backward += len(rs.Inverted[i].Found)
	}
	require.Equal(t, forward, backward, "the views disagree on pair count")
}

func TestBuildBasic(t *testing.T) {
	r := testProject()
	cfg := entityConfig(guidTarget)
	raw := scan.RawMatches{
		TokenCount: 1,
		ByPath: map[string][]int{
			"Assets/Levels/A.unity": {0},
			"Assets/Levels/B.unity": {0},
		},
	}

	rs := Build(raw, cfg, r)

	require.Len(t, rs.PerTarget, 1)
	assert.Equal(t, types.EntityRef(guidTarget), rs.PerTarget[0].Root)
	assert.Equal(t, "Assets/Player.prefab", rs.PerTarget[0].RootPath)

	require.Len(t, rs.PerTarget[0].Found, 2)
	assert.Equal(t, "Assets/Levels/A.unity", rs.PerTarget[0].Found[0].Path)
	assert.Equal(t, "Assets/Levels/B.unity", rs.PerTarget[0].Found[1].Path)
	assert.Equal(t, "Scene", rs.PerTarget[0].Found[0].TypeTag)

	requireSymmetric(t, rs)
	assert.Equal(t, cfg, rs.Config)
	assert.False(t, rs.CreatedAt.IsZero())
}

func TestBuildExcludesSelfMatch(t *testing.T) {
	t.Run("own_file_is_skipped", func(t *testing.T) {
		r := testProject()
		cfg := entityConfig(guidTarget)
		raw := scan.RawMatches{
			TokenCount: 1,
			ByPath: map[string][]int{
				// A prefab's serialized text contains its own ids.
				"Assets/Player.prefab":  {0},
				"Assets/Levels/A.unity": {0},
			},
		}

		rs := Build(raw, cfg, r)

		require.Len(t, rs.PerTarget[0].Found, 1)
		assert.Equal(t, "Assets/Levels/A.unity", rs.PerTarget[0].Found[0].Path)
		requireSymmetric(t, rs)
	})

	t.Run("sub_entity_keeps_its_container_file", func(t *testing.T) {
		// A sub-entity ref differs from its owner's main ref, so the
		// owning file counts as a real reference to the sub-entity.
		r := testProject()
		cfg := types.SearchConfig{
			Meta: types.MetaWithAsset,
			Tokens: []types.ReferenceToken{{
				GUID:      guidTarget,
				LocalID:   "400000",
				SubEntity: true,
				OwnerPath: "Assets/Player.prefab",
			}},
		}
		raw := scan.RawMatches{
			TokenCount: 1,
			ByPath:     map[string][]int{"Assets/Player.prefab": {0}},
		}

		rs := Build(raw, cfg, r)

		require.Len(t, rs.PerTarget[0].Found, 1)
		assert.Equal(t, types.EntityRef(guidTarget), rs.PerTarget[0].Found[0].Ref)
		requireSymmetric(t, rs)
	})
}

func TestBuildDropsUnresolvedPaths(t *testing.T) {
	r := testProject()
	cfg := entityConfig(guidTarget)
	raw := scan.RawMatches{
		TokenCount: 1,
		ByPath: map[string][]int{
			"Assets/Levels/A.unity":  {0},
			"Assets/Deleted.prefab":  {0},
			"Library/not-indexed.go": {0},
		},
	}

	rs := Build(raw, cfg, r)

	require.Len(t, rs.PerTarget[0].Found, 1)
	assert.Equal(t, "Assets/Levels/A.unity", rs.PerTarget[0].Found[0].Path)
	requireSymmetric(t, rs)
}

func TestBuildTextTarget(t *testing.T) {
	r := testProject()
	cfg := types.SearchConfig{
		Meta:   types.MetaWithAsset,
		Tokens: []types.ReferenceToken{{TargetText: "m_MotionVectors"}},
	}
	raw := scan.RawMatches{
		TokenCount: 1,
		ByPath: map[string][]int{
			"Assets/Levels/A.unity": {0},
			"Assets/Player.prefab":  {0},
		},
	}

	rs := Build(raw, cfg, r)

	require.Len(t, rs.PerTarget, 1)
	assert.Empty(t, rs.PerTarget[0].Root)
	assert.Equal(t, "m_MotionVectors", rs.PerTarget[0].RootPath,
		"text targets display the searched text")
	assert.Len(t, rs.PerTarget[0].Found, 2,
		"text searches have no self-match to exclude")

	// The inverted view lists the text target as a ref-less source.
	require.Len(t, rs.Inverted, 2)
	for _, inv := range rs.Inverted {
		require.Len(t, inv.Found, 1)
		assert.Empty(t, inv.Found[0].Ref)
		assert.Equal(t, "m_MotionVectors", inv.Found[0].Name)
	}
}

func TestBuildMultipleTokens(t *testing.T) {
	r := testProject()
	cfg := entityConfig(guidTarget, guidSceneB)
	raw := scan.RawMatches{
		TokenCount: 2,
		ByPath: map[string][]int{
			"Assets/Levels/A.unity": {0, 1},
			"Assets/Levels/B.unity": {0},
		},
	}

	rs := Build(raw, cfg, r)

	require.Len(t, rs.PerTarget, 2)
	assert.Len(t, rs.PerTarget[0].Found, 2)
	require.Len(t, rs.PerTarget[1].Found, 1)
	assert.Equal(t, "Assets/Levels/A.unity", rs.PerTarget[1].Found[0].Path)

	// A.unity references both targets; its single inverted entry
	// carries both sources.
	var sceneA *MatchResult
	for i := range rs.Inverted {
		if rs.Inverted[i].RootPath == "Assets/Levels/A.unity" {
			sceneA = &rs.Inverted[i]
		}
	}
	require.NotNil(t, sceneA)
	assert.Len(t, sceneA.Found, 2)
	requireSymmetric(t, rs)
}

func TestBuildUnresolvableTarget(t *testing.T) {
	// The target asset was deleted between token capture and
	// aggregation: the skeleton keeps the ref with no path, and the
	// references to it still report.
	r := testProject()
	gone := "dddd0000dddd0000dddd0000dddd0000"
	cfg := entityConfig(gone)
	raw := scan.RawMatches{
		TokenCount: 1,
		ByPath:     map[string][]int{"Assets/Levels/A.unity": {0}},
	}

	rs := Build(raw, cfg, r)

	require.Len(t, rs.PerTarget, 1)
	assert.Equal(t, types.EntityRef(gone), rs.PerTarget[0].Root)
	assert.Empty(t, rs.PerTarget[0].RootPath)
	assert.Len(t, rs.PerTarget[0].Found, 1)

	// The inverted source entry degrades to a bare ref.
	require.Len(t, rs.Inverted, 1)
	require.Len(t, rs.Inverted[0].Found, 1)
	assert.Equal(t, types.EntityRef(gone), rs.Inverted[0].Found[0].Ref)
	assert.Empty(t, rs.Inverted[0].Found[0].Path)
}

func TestBuildDeterministicOrder(t *testing.T) {
	r := testProject()
	cfg := entityConfig(guidTarget)
	raw := scan.RawMatches{
		TokenCount: 1,
		ByPath: map[string][]int{
			"Assets/Levels/B.unity": {0},
			"Assets/Levels/A.unity": {0},
		},
	}

	first := Build(raw, cfg, r)
	second := Build(raw, cfg, r)

	assert.Equal(t, first.PerTarget[0].Found, second.PerTarget[0].Found)
	require.Len(t, first.Inverted, 2)
	assert.Equal(t, "Assets/Levels/A.unity", first.Inverted[0].RootPath)
	assert.Equal(t, "Assets/Levels/B.unity", first.Inverted[1].RootPath)
}

func TestBuildCollectsTypeTags(t *testing.T) {
	t.Run("distinct_sorted", func(t *testing.T) {
		r := testProject()
		cfg := entityConfig(guidSceneA)
		raw := scan.RawMatches{
			TokenCount: 1,
			ByPath: map[string][]int{
				"Assets/Player.prefab":  {0},
				"Assets/Levels/B.unity": {0},
			},
		}

		rs := Build(raw, cfg, r)
		assert.Equal(t, []string{"Prefab", "Scene"}, rs.TypeTags)
	})

	t.Run("nil_when_nothing_found", func(t *testing.T) {
		rs := Build(scan.RawMatches{TokenCount: 1}, entityConfig(guidTarget), testProject())
		assert.Nil(t, rs.TypeTags)
		assert.Zero(t, rs.FoundCount())
	})
}

func TestBuildIgnoresOutOfRangeTokenIndex(t *testing.T) {
	r := testProject()
	cfg := entityConfig(guidTarget)
	raw := scan.RawMatches{
		TokenCount: 1,
		ByPath:     map[string][]int{"Assets/Levels/A.unity": {0, 7, -1}},
	}

	rs := Build(raw, cfg, r)
	assert.Len(t, rs.PerTarget[0].Found, 1)
	requireSymmetric(t, rs)
}
