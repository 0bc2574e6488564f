// Package replay re-executes an evaluation log on top of a snapshot and
// checks that every execution reproduces the logged outcome.
package replay

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/oops"

	persistlog "chronicles.ai/internal/persistence/log"
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/engine"
	"chronicles.ai/internal/sim/state"
)

// MismatchError reports the first evaluation that did not reproduce.
type MismatchError struct {
	TxID   string
	Height int64
	Field  string
	Want   string
	Got    string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("tx %s at height %d: %s mismatch: want %s got %s", e.TxID, e.Height, e.Field, e.Want, e.Got)
}

var errStop = errors.New("replay: reached ToHeight")

type Options struct {
	// ToHeight stops after the last evaluation at this height; zero means
	// the whole log.
	ToHeight int64
}

type Report struct {
	StartHeight int64
	// EndHeight is the height of the last replayed evaluation, or
	// StartHeight if none was replayed.
	EndHeight int64
	Replayed  int
	Failed    int
	// Skipped counts evaluations at or below StartHeight.
	Skipped   int
	FinalRoot string
}

// Run replays the evaluations in dataDir with a height above startHeight
// against world, in log order, and returns the resulting world.
func Run(ctx context.Context, eng *engine.Engine, world *state.World, startHeight int64, dataDir string, opts Options) (*state.World, Report, error) {
	rep := Report{StartHeight: startHeight, EndHeight: startHeight}
	err := persistlog.ReadEvaluations(dataDir, func(logged engine.Evaluation) error {
		if logged.BlockHeight <= startHeight {
			rep.Skipped++
			return nil
		}
		if opts.ToHeight > 0 && logged.BlockHeight > opts.ToHeight {
			return errStop
		}
		if logged.BlockHeight < rep.EndHeight {
			return &MismatchError{TxID: logged.TxID, Height: logged.BlockHeight, Field: "block_height",
				Want: fmt.Sprintf(">= %d", rep.EndHeight), Got: fmt.Sprint(logged.BlockHeight)}
		}
		if root := world.StateRootHex(); root != logged.PreviousRoot {
			return &MismatchError{TxID: logged.TxID, Height: logged.BlockHeight, Field: "previous_root", Want: logged.PreviousRoot, Got: root}
		}

		in, err := input(world, logged)
		if err != nil {
			return err
		}
		out, got, err := eng.Execute(ctx, in)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rep.Failed++
		}
		if m := compare(logged, got); m != nil {
			return m
		}
		world = out
		rep.Replayed++
		rep.EndHeight = logged.BlockHeight
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return world, rep, err
	}
	rep.FinalRoot = world.StateRootHex()
	return world, rep, nil
}

func input(world *state.World, ev engine.Evaluation) (engine.Input, error) {
	signer, err := address.Parse(ev.Signer)
	if err != nil {
		return engine.Input{}, oops.Wrapf(err, "tx %s signer", ev.TxID)
	}
	txID, err := uuid.Parse(ev.TxID)
	if err != nil {
		return engine.Input{}, oops.Wrapf(err, "tx id %q", ev.TxID)
	}
	return engine.Input{
		PreviousState: world,
		Action:        ev.Action,
		Signer:        signer,
		BlockHeight:   ev.BlockHeight,
		TxID:          txID,
		Seed:          ev.Seed,
	}, nil
}

func compare(want, got engine.Evaluation) *MismatchError {
	check := []struct{ field, want, got string }{
		{"output_root", want.OutputRoot, got.OutputRoot},
		{"error_kind", want.ErrorKind, got.ErrorKind},
		{"error_detail", want.ErrorDetail, got.ErrorDetail},
		{"gas_used", fmt.Sprint(want.GasUsed), fmt.Sprint(got.GasUsed)},
		{"random_draws", fmt.Sprint(want.RandomDraws), fmt.Sprint(got.RandomDraws)},
	}
	for _, c := range check {
		if c.want != c.got {
			return &MismatchError{TxID: want.TxID, Height: want.BlockHeight, Field: c.field, Want: c.want, Got: c.got}
		}
	}
	return nil
}
