package replay

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/node"
	persistlog "chronicles.ai/internal/persistence/log"
	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/simtest"
	"chronicles.ai/internal/sim/state"
	"chronicles.ai/internal/sim/tuning"
	"chronicles.ai/internal/stage"
)

type chain struct {
	h       *simtest.Harness
	node    *node.Node
	dir     string
	genesis *state.World
	// tips[i] is the world after block i+1.
	tips []*state.World
}

// produce runs three blocks with a mix of committed and failed actions and
// closes the evaluation log.
func produce(t *testing.T) chain {
	t.Helper()
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	adm := tuning.Default().Admission
	adm.SignerRatePerSec = 0
	pool := stage.NewPool(h.Engine.Registry(), adm, nil, zerolog.Nop())
	n := node.New(h.Engine, pool, h.World, 0, node.Config{}, zerolog.Nop())
	dir := t.TempDir()
	evLog := persistlog.NewEvaluationLogger(dir)
	n.SetEvaluationLogger(evLog)

	c := chain{h: h, node: n, dir: dir, genesis: h.World}
	blocks := [][]struct {
		signer address.Address
		a      action.Action
	}{
		{{simtest.Alice, &action.Stake{Amount: 500}}, {simtest.Bob, &action.TransferAsset{Sender: simtest.Bob, Recipient: simtest.Carol, Amount: simtest.Gold.Major(10)}}},
		{{simtest.Carol, &action.TransferAsset{Sender: simtest.Carol, Recipient: simtest.Alice, Amount: simtest.Gold.Major(simtest.StartingGold * 10)}}},
		{{simtest.Bob, &action.TransferAsset{Sender: simtest.Bob, Recipient: simtest.Alice, Amount: simtest.Gold.Major(1)}}},
	}
	nonces := map[address.Address]uint64{}
	for _, txs := range blocks {
		for _, tx := range txs {
			raw, err := h.Engine.Registry().Encode(tx.a)
			require.NoError(t, err)
			_, err = n.Submit(stage.Tx{Signer: tx.signer, Nonce: nonces[tx.signer], Action: raw})
			require.NoError(t, err)
			nonces[tx.signer]++
		}
		_, err := n.ProduceBlock(context.Background())
		require.NoError(t, err)
		tip, _ := n.Tip()
		c.tips = append(c.tips, tip)
	}
	require.NoError(t, evLog.Close())
	return c
}

func TestReplayFromGenesis(t *testing.T) {
	c := produce(t)
	world, rep, err := Run(context.Background(), c.h.Engine, c.genesis, 0, c.dir, Options{})
	require.NoError(t, err)

	tip, height := c.node.Tip()
	assert.Equal(t, tip.StateRootHex(), world.StateRootHex())
	assert.Equal(t, tip.StateRootHex(), rep.FinalRoot)
	assert.Equal(t, height, rep.EndHeight)
	assert.Equal(t, 4, rep.Replayed)
	assert.Equal(t, 1, rep.Failed)
	assert.Zero(t, rep.Skipped)
}

func TestReplayFromSnapshotHeight(t *testing.T) {
	c := produce(t)
	world, rep, err := Run(context.Background(), c.h.Engine, c.tips[0], 1, c.dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, c.tips[2].StateRootHex(), world.StateRootHex())
	assert.Equal(t, 2, rep.Skipped)
	assert.Equal(t, 2, rep.Replayed)
}

func TestReplayToHeight(t *testing.T) {
	c := produce(t)
	world, rep, err := Run(context.Background(), c.h.Engine, c.genesis, 0, c.dir, Options{ToHeight: 2})
	require.NoError(t, err)
	assert.Equal(t, c.tips[1].StateRootHex(), world.StateRootHex())
	assert.EqualValues(t, 2, rep.EndHeight)
}

func TestReplayDetectsWrongBase(t *testing.T) {
	c := produce(t)
	_, _, err := Run(context.Background(), c.h.Engine, c.tips[2], 0, c.dir, Options{})
	var m *MismatchError
	require.ErrorAs(t, err, &m)
	assert.Equal(t, "previous_root", m.Field)
	assert.EqualValues(t, 1, m.Height)
}

func TestReplayEmptyLog(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	world, rep, err := Run(context.Background(), h.Engine, h.World, 7, t.TempDir(), Options{})
	require.NoError(t, err)
	assert.Same(t, h.World, world)
	assert.EqualValues(t, 7, rep.EndHeight)
	assert.Zero(t, rep.Replayed)
}
