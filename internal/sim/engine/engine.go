// Package engine runs one action against a world snapshot:
// decode, obsolescence, validation, gas, execution, commit.
//
// Execute is a pure function of its Input. Failures return the previous
// snapshot pointer unchanged together with the typed error.
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/rng"
	"chronicles.ai/internal/sim/state"
	"chronicles.ai/internal/sim/tuning"
)

type Input struct {
	PreviousState *state.World
	// Action is the canonical encoding of {type_id, values}.
	Action      []byte
	Signer      address.Address
	BlockHeight int64
	TxID        uuid.UUID
	Seed        int64
	// GasLimit of zero means tuning.DefaultGasLimit.
	GasLimit uint64
}

// Evaluation records what one execution did. It is written to the
// evaluation log and is enough to replay the execution from the previous
// state.
type Evaluation struct {
	TypeID       string `json:"type_id,omitempty"`
	Signer       string `json:"signer"`
	BlockHeight  int64  `json:"block_height"`
	TxID         string `json:"tx_id"`
	Seed         int64  `json:"seed"`
	Action       []byte `json:"action"`
	PreviousRoot string `json:"previous_root"`
	OutputRoot   string `json:"output_root"`
	GasUsed      uint64 `json:"gas_used"`
	RandomDraws  uint64 `json:"random_draws"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorDetail  string `json:"error_detail,omitempty"`
}

// InternalErrorKind is recorded for failures that carry no errs.Kind, such
// as a recovered panic or an action returning no state.
const InternalErrorKind = "InternalError"

func (ev Evaluation) Succeeded() bool { return ev.ErrorKind == "" }

type Engine struct {
	registry *action.Registry
	cats     *catalogs.Catalogs
	tuning   tuning.Tuning
	log      zerolog.Logger
}

func New(reg *action.Registry, cats *catalogs.Catalogs, tun tuning.Tuning, log zerolog.Logger) *Engine {
	if reg == nil {
		reg = action.DefaultRegistry()
	}
	return &Engine{
		registry: reg,
		cats:     cats,
		tuning:   tun,
		log:      log.With().Str("component", "engine").Logger(),
	}
}

func (e *Engine) Registry() *action.Registry { return e.registry }
func (e *Engine) Catalogs() *catalogs.Catalogs { return e.cats }
func (e *Engine) Tuning() tuning.Tuning        { return e.tuning }

// Execute evaluates in. The returned world is the new snapshot on success
// and in.PreviousState on any failure. Only context cancellation produces
// an error that is not an *errs.Error; it is checked before anything runs.
func (e *Engine) Execute(ctx context.Context, in Input) (*state.World, Evaluation, error) {
	prevRoot := in.PreviousState.StateRootHex()
	ev := Evaluation{
		Signer:       in.Signer.Hex(),
		BlockHeight:  in.BlockHeight,
		TxID:         in.TxID.String(),
		Seed:         in.Seed,
		Action:       in.Action,
		PreviousRoot: prevRoot,
		OutputRoot:   prevRoot,
	}
	if err := ctx.Err(); err != nil {
		return in.PreviousState, ev, err
	}

	limit := in.GasLimit
	if limit == 0 {
		limit = e.tuning.DefaultGasLimit
	}
	actx := &action.Context{
		PreviousState: in.PreviousState,
		Signer:        in.Signer,
		BlockHeight:   in.BlockHeight,
		TxID:          in.TxID,
		Random:        rng.New(in.Seed),
		Gas:           action.NewGasMeter(limit),
		Catalogs:      e.cats,
		Tuning:        e.tuning,
	}

	out, err := e.run(actx, in.Action, &ev)
	ev.GasUsed = actx.Gas.Used()
	ev.RandomDraws = actx.Random.Draws()
	if err != nil {
		ev.ErrorKind = InternalErrorKind
		if kind, ok := errs.KindOf(err); ok {
			ev.ErrorKind = string(kind)
		}
		ev.ErrorDetail = err.Error()
		e.log.Debug().
			Str("type_id", ev.TypeID).
			Str("tx_id", ev.TxID).
			Int64("height", in.BlockHeight).
			Str("kind", ev.ErrorKind).
			Msg(ev.ErrorDetail)
		return in.PreviousState, ev, err
	}
	ev.OutputRoot = out.StateRootHex()
	e.log.Debug().
		Str("type_id", ev.TypeID).
		Str("tx_id", ev.TxID).
		Int64("height", in.BlockHeight).
		Uint64("gas", ev.GasUsed).
		Uint64("draws", ev.RandomDraws).
		Str("root", ev.OutputRoot).
		Msg("action committed")
	return out, ev, nil
}

func (e *Engine) run(actx *action.Context, raw []byte, ev *Evaluation) (out *state.World, err error) {
	a, err := e.registry.Decode(raw)
	if err != nil {
		return nil, err
	}
	ev.TypeID = a.TypeID()

	obsoleteAt, _ := e.registry.ObsoleteAt(a.TypeID())
	if actx.BlockHeight >= obsoleteAt {
		return nil, errs.Obsoletef("action type is obsolete").
			With("type_id", a.TypeID()).
			With("obsoleteAt", obsoleteAt).
			With("height", actx.BlockHeight)
	}
	if err := a.Validate(actx); err != nil {
		return nil, err
	}
	if err := actx.Gas.Use(e.tuning.GasPerAction); err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("engine: %s panicked: %v", a.TypeID(), r)
		}
	}()
	out, err = a.Execute(actx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("engine: %s returned no state", a.TypeID())
	}
	return out, nil
}
