package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/simtest"
)

func encodeBody(t *testing.T, snap Snapshot) []byte {
	t.Helper()
	b, err := encoding.Encode(snap.World.Encode())
	require.NoError(t, err)
	return b
}

func TestWriteReadSnapshot(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	h.CreateAvatar(simtest.Alice, 0, "Alice")
	h.MustStep(simtest.Bob, &action.Stake{Amount: 500})

	dir := t.TempDir()
	path := filepath.Join(dir, FileName(42))
	hdr, err := WriteSnapshot(path, 42, h.Cats.Digest, h.World)
	require.NoError(t, err)
	assert.Equal(t, h.World.StateRootHex(), hdr.StateRoot)

	onlyHdr, err := ReadHeader(path)
	require.NoError(t, err)
	assert.Equal(t, hdr, onlyHdr)

	snap, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, hdr, snap.Header)
	assert.EqualValues(t, 42, snap.Header.Height)
	assert.True(t, h.World.Equal(snap.World))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestReadSnapshotRejectsRootMismatch(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	path := filepath.Join(t.TempDir(), FileName(1))
	hdr, err := WriteSnapshot(path, 1, "", h.World)
	require.NoError(t, err)

	// Rewrite the file with a forged header over the same body.
	snap, err := ReadSnapshot(path)
	require.NoError(t, err)
	hdr.StateRoot = "00"
	f, err := os.Create(path)
	require.NoError(t, err)
	body := encodeBody(t, snap)
	require.NoError(t, writeTo(f, hdr, body))
	require.NoError(t, f.Close())

	_, err = ReadSnapshot(path)
	assert.ErrorContains(t, err, "does not match header")
}

func TestReadSnapshotRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.snap.zst")
	f, err := os.Create(path)
	require.NoError(t, err)
	enc, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = enc.Write([]byte(`{"version":7}` + "\n"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	_, err = ReadSnapshot(path)
	assert.ErrorContains(t, err, "unsupported snapshot version 7")
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	latest, err := Latest(dir)
	require.NoError(t, err)
	assert.Empty(t, latest)

	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	for _, height := range []int64{9, 100, 20} {
		_, err := WriteSnapshot(filepath.Join(dir, FileName(height)), height, "", h.World)
		require.NoError(t, err)
	}
	latest, err = Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FileName(100)), latest)
}
