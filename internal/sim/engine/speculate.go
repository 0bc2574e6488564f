package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"chronicles.ai/internal/sim/state"
)

// Result is one speculative evaluation.
type Result struct {
	World      *state.World
	Evaluation Evaluation
	Err        error
}

// EvaluateMany runs independent inputs concurrently and returns their
// results in input order. Each input keeps its own snapshot and random
// source, so results equal those of calling Execute one by one.
//
// Domain failures are reported per result. The returned error is only set
// when ctx is cancelled.
func (e *Engine) EvaluateMany(ctx context.Context, inputs []Input, workers int) ([]Result, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make([]Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			w, ev, err := e.Execute(gctx, inputs[i])
			out[i] = Result{World: w, Evaluation: ev, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
