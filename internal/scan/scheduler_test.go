package scan

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/refscan/internal/corpus"
	"github.com/standardbeagle/refscan/internal/types"
)

const testGUID = "0447259152e2d2f47af3d0bd82cdffc9"

func TestScanFindsReferences(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Assets/Player.prefab",
		[]byte("  m_Mesh: {fileID: 4300002, guid: "+testGUID+", type: 3}\n"))
	writeFile(t, root, "Assets/Empty.prefab", []byte("nothing referenced here\n"))
	c := corpus.New([]string{"Assets/Empty.prefab", "Assets/Player.prefab"})

	tokens := []types.ReferenceToken{{GUID: testGUID, LocalID: "4300002"}}
	raw, err := Scan(context.Background(), tokens, c, Options{Root: root, Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, raw.TokenCount)
	assert.Equal(t, map[string][]int{"Assets/Player.prefab": {0}}, raw.ByPath)
}

func TestScanMultipleTokens(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Assets/Both.unity",
		[]byte("{fileID: 100, guid: aaaa1111}\n{fileID: 200, guid: bbbb2222}\n"))
	writeFile(t, root, "Assets/Second.unity",
		[]byte("{fileID: 200, guid: bbbb2222}\n"))
	c := corpus.New([]string{"Assets/Both.unity", "Assets/Second.unity"})

	tokens := []types.ReferenceToken{
		{GUID: "aaaa1111", LocalID: "100"},
		{GUID: "bbbb2222", LocalID: "200"},
	}
	raw, err := Scan(context.Background(), tokens, c, Options{Root: root, Workers: 2})
	require.NoError(t, err)

	assert.Equal(t, map[string][]int{
		"Assets/Both.unity":   {0, 1},
		"Assets/Second.unity": {1},
	}, raw.ByPath)
}

func TestScanIdempotent(t *testing.T) {
	root := t.TempDir()
	paths := make([]string, 0, 9)
	for i := 0; i < 9; i++ {
		rel := fmt.Sprintf("Assets/File%d.asset", i)
		body := "filler\n"
		if i%3 == 0 {
			body = "guid: " + testGUID + "\n"
		}
		writeFile(t, root, rel, []byte(body))
		paths = append(paths, rel)
	}
	c := corpus.New(paths)
	tokens := []types.ReferenceToken{{GUID: testGUID}}

	first, err := Scan(context.Background(), tokens, c, Options{Root: root, Workers: 4})
	require.NoError(t, err)
	second, err := Scan(context.Background(), tokens, c, Options{Root: root, Workers: 4})
	require.NoError(t, err)

	assert.Equal(t, first.ByPath, second.ByPath)
	assert.Len(t, first.ByPath, 3)
}

func TestScanWorkerClamping(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Assets/Only.asset", []byte("guid: "+testGUID+"\n"))
	c := corpus.New([]string{"Assets/Only.asset"})
	tokens := []types.ReferenceToken{{GUID: testGUID}}

	// Far more workers than files must still produce the same result.
	raw, err := Scan(context.Background(), tokens, c, Options{Root: root, Workers: 16})
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"Assets/Only.asset": {0}}, raw.ByPath)
}

func TestScanCanceled(t *testing.T) {
	root := t.TempDir()
	paths := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		rel := fmt.Sprintf("Assets/File%d.asset", i)
		writeFile(t, root, rel, []byte("guid: "+testGUID+"\n"))
		paths = append(paths, rel)
	}
	c := corpus.New(paths)
	tokens := []types.ReferenceToken{{GUID: testGUID}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	raw, err := Scan(ctx, tokens, c, Options{Root: root, Workers: 4})
	require.ErrorIs(t, err, ErrCanceled)
	assert.Empty(t, raw.ByPath, "a canceled scan must publish no partial matches")
	assert.Equal(t, 1, raw.TokenCount)
}

func TestScanUnreadableFileIsNonMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Assets/Real.asset", []byte("guid: "+testGUID+"\n"))
	c := corpus.New([]string{"Assets/Missing.asset", "Assets/Real.asset"})
	tokens := []types.ReferenceToken{{GUID: testGUID}}

	raw, err := Scan(context.Background(), tokens, c, Options{Root: root, Workers: 2})
	require.NoError(t, err, "an unreadable file must not fail the whole scan")
	assert.Equal(t, map[string][]int{"Assets/Real.asset": {0}}, raw.ByPath)
	assert.Equal(t, 1, raw.Unreadable)
}

func TestScanEmptyInputs(t *testing.T) {
	root := t.TempDir()

	t.Run("empty_corpus", func(t *testing.T) {
		raw, err := Scan(context.Background(), []types.ReferenceToken{{GUID: "x"}},
			corpus.New(nil), Options{Root: root})
		require.NoError(t, err)
		assert.Empty(t, raw.ByPath)
	})

	t.Run("no_tokens", func(t *testing.T) {
		writeFile(t, root, "Assets/A.asset", []byte("content"))
		raw, err := Scan(context.Background(), nil,
			corpus.New([]string{"Assets/A.asset"}), Options{Root: root})
		require.NoError(t, err)
		assert.Empty(t, raw.ByPath)
		assert.Zero(t, raw.TokenCount)
	})
}

func TestScanGUIDOnlyMode(t *testing.T) {
	root := t.TempDir()
	// GUID and local id on different lines: precision misses, guidOnly hits.
	writeFile(t, root, "Assets/Split.asset",
		[]byte("guid: "+testGUID+"\nfileID: 4300002\n"))
	c := corpus.New([]string{"Assets/Split.asset"})
	tokens := []types.ReferenceToken{{GUID: testGUID, LocalID: "4300002"}}

	precise, err := Scan(context.Background(), tokens, c, Options{Root: root})
	require.NoError(t, err)
	assert.Empty(t, precise.ByPath)

	loose, err := Scan(context.Background(), tokens, c, Options{Root: root, GUIDOnly: true})
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"Assets/Split.asset": {0}}, loose.ByPath)
}

func TestScanMetaWithAsset(t *testing.T) {
	root := t.TempDir()
	// The primary is binary-denied; only the sidecar can carry the hit.
	writeFile(t, root, "Assets/Tex.png", []byte{0x89, 0x50, 0x4E, 0x47})
	writeFile(t, root, "Assets/Tex.png.meta", []byte("guid: "+testGUID+"\n"))
	c := corpus.New([]string{"Assets/Tex.png"})
	tokens := []types.ReferenceToken{{GUID: testGUID}}

	without, err := Scan(context.Background(), tokens, c, Options{Root: root})
	require.NoError(t, err)
	assert.Empty(t, without.ByPath)

	with, err := Scan(context.Background(), tokens, c,
		Options{Root: root, Meta: types.MetaWithAsset})
	require.NoError(t, err)
	assert.Equal(t, map[string][]int{"Assets/Tex.png": {0}}, with.ByPath)
}

func TestScanFinalProgress(t *testing.T) {
	root := t.TempDir()
	paths := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		rel := fmt.Sprintf("Assets/File%d.asset", i)
		writeFile(t, root, rel, []byte("guid: "+testGUID+"\n"))
		paths = append(paths, rel)
	}
	c := corpus.New(paths)
	tokens := []types.ReferenceToken{{GUID: testGUID}}

	var snapshots []Progress
	raw, err := Scan(context.Background(), tokens, c, Options{
		Root:    root,
		Workers: 2,
		OnProgress: func(p Progress) {
			snapshots = append(snapshots, p)
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, snapshots, "a completed scan reports progress at least once")

	last := snapshots[len(snapshots)-1]
	assert.Equal(t, 1.0, last.Fraction)
	assert.Equal(t, 5, last.FilesDone)
	assert.Equal(t, 5, last.FilesTotal)
	assert.Len(t, raw.ByPath, 5)
}

func TestSearchFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Assets/Scene.unity",
		[]byte("{fileID: 100, guid: aaaa1111}\nguid: cccc3333\n"))

	tokens := []types.ReferenceToken{
		{GUID: "aaaa1111", LocalID: "100"},
		{GUID: "bbbb2222"},
		{GUID: "cccc3333"},
	}

	t.Run("reports_matching_token_indexes", func(t *testing.T) {
		hit, err := SearchFile(root, "Assets/Scene.unity", tokens, types.MetaNone, false)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2}, hit)
	})

	t.Run("surfaces_load_errors", func(t *testing.T) {
		_, err := SearchFile(root, "Assets/Nope.unity", tokens, types.MetaNone, false)
		require.Error(t, err)
	})
}
