package log

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/sim/engine"
)

func TestEvaluationLogRoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewEvaluationLogger(dir)
	want := []engine.Evaluation{
		{TypeID: "stake", Signer: "0x01", BlockHeight: 1, TxID: "a", Seed: 7, Action: []byte{0x82, 0x01}, PreviousRoot: "r0", OutputRoot: "r1", GasUsed: 1},
		{TypeID: "raid", Signer: "0x02", BlockHeight: 2, TxID: "b", PreviousRoot: "r1", OutputRoot: "r1", ErrorKind: "ValidationError", ErrorDetail: "no season"},
	}
	for _, ev := range want {
		require.NoError(t, l.WriteEvaluation(ev))
	}

	require.NoError(t, l.Close())

	var got []engine.Evaluation
	require.NoError(t, ReadEvaluations(dir, func(ev engine.Evaluation) error {
		got = append(got, ev)
		return nil
	}))
	assert.Equal(t, want, got)

	files, err := EvaluationFiles(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, files)
}

func TestReadEvaluationsStopsOnCallbackError(t *testing.T) {
	dir := t.TempDir()
	l := NewEvaluationLogger(dir)
	for i := 0; i < 3; i++ {
		require.NoError(t, l.WriteEvaluation(engine.Evaluation{BlockHeight: int64(i)}))
	}
	require.NoError(t, l.Close())

	stop := errors.New("stop")
	seen := 0
	err := ReadEvaluations(dir, func(engine.Evaluation) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen)
}

func TestReadEvaluationsEmptyDir(t *testing.T) {
	called := false
	require.NoError(t, ReadEvaluations(t.TempDir(), func(engine.Evaluation) error {
		called = true
		return nil
	}))
	assert.False(t, called)
}

func TestSegmentsRotateAndNeverReopen(t *testing.T) {
	dir := t.TempDir()
	l := NewEvaluationLoggerSize(dir, 2)
	for h := int64(1); h <= 3; h++ {
		require.NoError(t, l.WriteEvaluation(engine.Evaluation{BlockHeight: h, TxID: "first"}))
	}
	require.NoError(t, l.Close())

	// A restarted process starts its own segment.
	l = NewEvaluationLoggerSize(dir, 2)
	require.NoError(t, l.WriteEvaluation(engine.Evaluation{BlockHeight: 4, TxID: "second"}))
	require.NoError(t, l.Close())

	files, err := EvaluationFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "evaluations-000000000001-0001.jsonl.zst", filepath.Base(files[0]))
	assert.Equal(t, "evaluations-000000000003-0002.jsonl.zst", filepath.Base(files[1]))
	assert.Equal(t, "evaluations-000000000004-0001.jsonl.zst", filepath.Base(files[2]))

	var heights []int64
	require.NoError(t, ReadEvaluations(dir, func(ev engine.Evaluation) error {
		heights = append(heights, ev.BlockHeight)
		return nil
	}))
	assert.Equal(t, []int64{1, 2, 3, 4}, heights)
}

func TestCloseWithoutWrites(t *testing.T) {
	l := NewEvaluationLogger(t.TempDir())
	assert.NoError(t, l.Close())
	assert.Empty(t, l.w.Path())
}
