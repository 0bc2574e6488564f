package archive

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/persistence/snapshot"
)

func writeDummy(t *testing.T, dir string, height int64) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, snapshot.FileName(height))
	require.NoError(t, os.WriteFile(p, []byte{byte(height)}, 0o644))
	return p
}

func TestArchiveEpochSnapshot(t *testing.T) {
	dataDir := t.TempDir()
	src := writeDummy(t, filepath.Join(dataDir, "snapshots"), 200)

	path, ok, err := ArchiveEpochSnapshot(dataDir, src, snapshot.Header{Height: 200, StateRoot: "ab"}, 100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dataDir, "archives", "epoch_000002", snapshot.FileName(200)), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{200}, got)

	raw, err := os.ReadFile(filepath.Join(filepath.Dir(path), "meta.json"))
	require.NoError(t, err)
	var meta EpochMeta
	require.NoError(t, json.Unmarshal(raw, &meta))
	assert.EqualValues(t, 2, meta.Epoch)
	assert.Equal(t, "ab", meta.StateRoot)
}

func TestArchiveSkipsOtherHeights(t *testing.T) {
	dataDir := t.TempDir()
	src := writeDummy(t, filepath.Join(dataDir, "snapshots"), 150)
	for _, every := range []int64{0, 100} {
		_, ok, err := ArchiveEpochSnapshot(dataDir, src, snapshot.Header{Height: 150}, every)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	_, err := os.Stat(filepath.Join(dataDir, "archives"))
	assert.True(t, os.IsNotExist(err))
}

func TestPruneKeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for _, h := range []int64{100, 200, 900, 1000, 1100} {
		writeDummy(t, dir, h)
	}

	removed, err := Prune(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, snapshot.FileName(100)),
		filepath.Join(dir, snapshot.FileName(200)),
		filepath.Join(dir, snapshot.FileName(900)),
	}, removed)

	latest, err := snapshot.Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, snapshot.FileName(1100)), latest)

	removed, err = Prune(dir, 0)
	require.NoError(t, err)
	assert.Empty(t, removed)
}
