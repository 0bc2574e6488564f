package indexdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/persistence/snapshot"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/engine"
	"chronicles.ai/internal/sim/simtest"
	"chronicles.ai/internal/sim/tuning"
)

func openTemp(t *testing.T) (*SQLiteIndex, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx, path
}

func TestSQLiteIndex_EvaluationsAndBlocks(t *testing.T) {
	ctx := context.Background()
	idx, _ := openTemp(t)

	evs := []engine.Evaluation{
		{TypeID: "stake", Signer: "0xaa", BlockHeight: 5, TxID: "tx-1", Seed: 9, PreviousRoot: "r0", OutputRoot: "r1", GasUsed: 1, RandomDraws: 0},
		{TypeID: "raid", Signer: "0xbb", BlockHeight: 5, TxID: "tx-2", PreviousRoot: "r1", OutputRoot: "r1", ErrorKind: "ValidationError", ErrorDetail: "no season"},
		{TypeID: "grinding", Signer: "0xaa", BlockHeight: 6, TxID: "tx-3", PreviousRoot: "r1", OutputRoot: "r2", GasUsed: 1, RandomDraws: 3},
	}
	require.NoError(t, idx.WriteEvaluation(0, evs[0]))
	require.NoError(t, idx.WriteEvaluation(1, evs[1]))
	require.NoError(t, idx.WriteEvaluation(0, evs[2]))
	idx.RecordBlock(5, "r1", 2, 1)
	idx.RecordBlock(6, "r2", 1, 0)
	idx.RecordSnapshot("/data/snapshot-6.snap.zst", snapshot.Header{Height: 6, StateRoot: "r2", BodyBytes: 99})
	require.NoError(t, idx.Flush(ctx))

	got, found, err := idx.Evaluation(ctx, "tx-2")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "raid", got.TypeID)
	assert.Equal(t, "ValidationError", got.ErrorKind)
	assert.Equal(t, 1, got.Seq)

	_, found, err = idx.Evaluation(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	block, err := idx.EvaluationsAt(ctx, 5)
	require.NoError(t, err)
	require.Len(t, block, 2)
	assert.Equal(t, "tx-1", block[0].TxID)
	assert.Equal(t, "tx-2", block[1].TxID)

	mine, err := idx.EvaluationsBySigner(ctx, "0xaa", 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "tx-3", mine[0].TxID)
	assert.EqualValues(t, 3, mine[0].RandomDraws)

	kinds, err := idx.ErrorKindCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []KindCount{{ErrorKind: "", Count: 2}, {ErrorKind: "ValidationError", Count: 1}}, kinds)

	blocks, err := idx.Blocks(ctx, 1)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.EqualValues(t, 6, blocks[0].Height)
	assert.Equal(t, "r2", blocks[0].StateRoot)

	snaps, err := idx.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 99, snaps[0].BodyBytes)
}

func TestSQLiteIndex_CloseCommitsQueuedWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, idx.WriteEvaluation(0, engine.Evaluation{TxID: "tx-9", BlockHeight: 1, TypeID: "stake"}))
	require.NoError(t, idx.Close())
	require.NoError(t, idx.Close())

	// Writes after Close are ignored.
	require.NoError(t, idx.WriteEvaluation(1, engine.Evaluation{TxID: "late"}))

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	_, found, err := reopened.Evaluation(context.Background(), "tx-9")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	ctx := context.Background()
	idx, _ := openTemp(t)
	dir := simtest.ConfigDir(t)
	cats, err := catalogs.Load(dir)
	require.NoError(t, err)

	require.NoError(t, idx.UpsertCatalogs(dir, cats, tuning.Default()))

	v, err := idx.Meta(ctx, "schema_version")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, v)
	v, err = idx.Meta(ctx, "catalog_digest")
	require.NoError(t, err)
	assert.Equal(t, cats.Digest, v)

	rows, err := idx.Catalogs(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, len(cats.Digests)+1)
	for _, r := range rows {
		if r.Name == "tuning" {
			continue
		}
		assert.Equal(t, cats.Digests[r.Name], r.Digest, r.Name)
	}
}
