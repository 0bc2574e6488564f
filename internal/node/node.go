// Package node produces blocks: on every interval it drains the staging
// pool, executes the transactions one by one against the tip world and
// publishes the results.
package node

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chronicles.ai/internal/protocol"
	"chronicles.ai/internal/sim/engine"
	"chronicles.ai/internal/sim/state"
	"chronicles.ai/internal/stage"
)

type EvaluationLogger interface {
	WriteEvaluation(ev engine.Evaluation) error
}

type BlockIndex interface {
	WriteEvaluation(seq int, ev engine.Evaluation) error
	RecordBlock(height int64, stateRoot string, txCount, failed int)
}

// SnapshotRequest asks the snapshot writer to persist World as of Height.
// Worlds are immutable, so the writer may take its time.
type SnapshotRequest struct {
	Height int64
	World  *state.World
}

// Result is the outcome of one staged transaction.
type Result struct {
	TxID       uuid.UUID
	Height     int64
	Code       string
	OutputRoot string
	Evaluation engine.Evaluation
}

type Block struct {
	Height    int64
	StateRoot string
	Results   []Result
}

func (b Block) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Code != "" {
			n++
		}
	}
	return n
}

type Config struct {
	BlockInterval time.Duration
	MaxTxPerBlock int
	SnapshotEvery int64
}

type Node struct {
	eng  *engine.Engine
	pool *stage.Pool
	cfg  Config
	log  zerolog.Logger

	evLog        EvaluationLogger
	index        BlockIndex
	snapshotSink chan<- SnapshotRequest

	// mu guards the tip; only produce writes it.
	mu     sync.RWMutex
	tip    *state.World
	height int64

	subMu  sync.Mutex
	subs   map[int]func(Result)
	nextID int

	producing atomic.Bool
	stop      chan struct{}
	stopOnce  sync.Once
}

// New starts from tip, the state after the block at height.
func New(eng *engine.Engine, pool *stage.Pool, tip *state.World, height int64, cfg Config, log zerolog.Logger) *Node {
	if cfg.BlockInterval <= 0 {
		cfg.BlockInterval = time.Duration(eng.Tuning().BlockIntervalMs) * time.Millisecond
	}
	if cfg.MaxTxPerBlock <= 0 {
		cfg.MaxTxPerBlock = eng.Tuning().MaxTxPerBlock
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = int64(eng.Tuning().SnapshotEveryBlocks)
	}
	return &Node{
		eng:    eng,
		pool:   pool,
		cfg:    cfg,
		log:    log.With().Str("component", "node").Logger(),
		tip:    tip,
		height: height,
		subs:   make(map[int]func(Result)),
		stop:   make(chan struct{}),
	}
}

func (n *Node) SetEvaluationLogger(l EvaluationLogger)    { n.evLog = l }
func (n *Node) SetIndex(idx BlockIndex)                   { n.index = idx }
func (n *Node) SetSnapshotSink(ch chan<- SnapshotRequest) { n.snapshotSink = ch }
func (n *Node) Engine() *engine.Engine                    { return n.eng }

// Tip returns the current world and the height of the block that produced it.
func (n *Node) Tip() (*state.World, int64) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.tip, n.height
}

func (n *Node) NextHeight() int64 {
	_, h := n.Tip()
	return h + 1
}

// Submit stages tx for the next block.
func (n *Node) Submit(tx stage.Tx) (stage.Tx, error) {
	return n.pool.Stage(tx, n.NextHeight())
}

// Subscribe registers fn for every Result. fn runs on the block loop and
// must not block.
func (n *Node) Subscribe(fn func(Result)) (cancel func()) {
	n.subMu.Lock()
	defer n.subMu.Unlock()
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.subMu.Lock()
		defer n.subMu.Unlock()
		delete(n.subs, id)
	}
}

func (n *Node) publish(r Result) {
	n.subMu.Lock()
	fns := make([]func(Result), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.subMu.Unlock()
	for _, fn := range fns {
		fn(r)
	}
}

func (n *Node) Stop() { n.stopOnce.Do(func() { close(n.stop) }) }

func (n *Node) Run(ctx context.Context) error {
	ticker := time.NewTicker(n.cfg.BlockInterval)
	defer ticker.Stop()
	n.log.Info().Int64("height", n.NextHeight()-1).Dur("interval", n.cfg.BlockInterval).Msg("block loop started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-n.stop:
			return nil
		case <-ticker.C:
			if _, err := n.ProduceBlock(ctx); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				n.log.Error().Err(err).Msg("produce block")
			}
		}
	}
}

// Seed derives the RNG seed of a transaction from the root it executes
// against: the first 8 bytes, big-endian, of SHA-256(previous root || tx id).
func Seed(previousRoot [32]byte, txID uuid.UUID) int64 {
	h := sha256.New()
	h.Write(previousRoot[:])
	h.Write(txID[:])
	sum := h.Sum(nil)
	return int64(binary.BigEndian.Uint64(sum[:8]))
}

// ProduceBlock executes the staged transactions as the next block. Empty
// blocks still advance the height.
func (n *Node) ProduceBlock(ctx context.Context) (Block, error) {
	if !n.producing.CompareAndSwap(false, true) {
		return Block{}, errors.New("node: block production already running")
	}
	defer n.producing.Store(false)

	tip, height := n.Tip()
	height++
	txs := n.pool.Take(n.cfg.MaxTxPerBlock)
	start := time.Now()

	block := Block{Height: height, Results: make([]Result, 0, len(txs))}
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return block, err
		}
		in := engine.Input{
			PreviousState: tip,
			Action:        tx.Action,
			Signer:        tx.Signer,
			BlockHeight:   height,
			TxID:          tx.ID,
			Seed:          Seed(tip.StateRoot(), tx.ID),
		}
		out, ev, err := n.eng.Execute(ctx, in)
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return block, err
		}
		tip = out

		r := Result{TxID: tx.ID, Height: height, Code: protocol.CodeForError(err), OutputRoot: ev.OutputRoot, Evaluation: ev}
		block.Results = append(block.Results, r)
	}
	block.StateRoot = tip.StateRootHex()

	// Nothing of an aborted block reaches the log, so a restart cannot
	// replay part of it.
	for seq, r := range block.Results {
		if n.evLog != nil {
			if werr := n.evLog.WriteEvaluation(r.Evaluation); werr != nil {
				n.log.Error().Err(werr).Str("tx_id", r.Evaluation.TxID).Msg("evaluation log write")
			}
		}
		if n.index != nil {
			_ = n.index.WriteEvaluation(seq, r.Evaluation)
		}
	}

	n.mu.Lock()
	n.tip = tip
	n.height = height
	n.mu.Unlock()

	if n.index != nil {
		n.index.RecordBlock(height, block.StateRoot, len(block.Results), block.Failed())
	}
	for _, r := range block.Results {
		n.publish(r)
	}
	if n.snapshotSink != nil && n.cfg.SnapshotEvery > 0 && height%n.cfg.SnapshotEvery == 0 {
		select {
		case n.snapshotSink <- SnapshotRequest{Height: height, World: tip}:
		default:
			// Drop snapshot if sink is backed up.
			n.log.Warn().Int64("height", height).Msg("snapshot sink full, skipped")
		}
	}

	ev := n.log.Debug()
	if len(txs) > 0 {
		ev = n.log.Info()
	}
	ev.Int64("height", height).
		Int("txs", len(block.Results)).
		Int("failed", block.Failed()).
		Str("root", block.StateRoot).
		Dur("took", time.Since(start)).
		Msg("block")
	return block, nil
}
