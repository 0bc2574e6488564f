// Package action defines the command contract and every concrete action type.
//
// An action is decoded from {type_id, values}, validated, then executed
// against an immutable world snapshot. Actions never mutate the snapshot
// they are given; they return a new one or an *errs.Error.
package action

import (
	"github.com/google/uuid"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/rng"
	"chronicles.ai/internal/sim/state"
	"chronicles.ai/internal/sim/tuning"
)

type Action interface {
	TypeID() string
	// PlainValue returns the typed fields; LoadPlainValue is its inverse.
	PlainValue() encoding.Map
	LoadPlainValue(m encoding.Map) error
	// Validate runs permission and field checks. It may read state but
	// never writes.
	Validate(ctx *Context) error
	Execute(ctx *Context) (*state.World, error)
}

// Context is built once per execution and owned by it.
type Context struct {
	PreviousState *state.World
	Signer        address.Address
	BlockHeight   int64
	TxID          uuid.UUID
	Random        *rng.Random
	Gas           *GasMeter
	Catalogs      *catalogs.Catalogs
	Tuning        tuning.Tuning
}

// GasMeter counts units against a per-execution limit.
type GasMeter struct {
	limit uint64
	used  uint64
}

func NewGasMeter(limit uint64) *GasMeter { return &GasMeter{limit: limit} }

func (g *GasMeter) Use(n uint64) error {
	if g.used+n > g.limit || g.used+n < g.used {
		return errs.Exhaustedf("gas limit exceeded").With("limit", g.limit).With("used", g.used).With("requested", n)
	}
	g.used += n
	return nil
}

func (g *GasMeter) Used() uint64  { return g.used }
func (g *GasMeter) Limit() uint64 { return g.limit }

// ToValue is the encoded form of an action: {type_id, values}.
func ToValue(a Action) encoding.Map {
	return encoding.NewMap(
		encoding.Entry{Key: "type_id", Value: encoding.Text(a.TypeID())},
		encoding.Entry{Key: "values", Value: a.PlainValue()},
	)
}
