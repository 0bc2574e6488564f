package model

import (
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

// DefaultRefillMead is the mead a patron pledges per refill.
const DefaultRefillMead = 4

func PledgeAddress(agent address.Address) address.Address {
	return address.Derive(agent, address.LabelPledge)
}

// PledgeContract is stored as [patron, approved, mead].
type PledgeContract struct {
	Patron   address.Address
	Approved bool
	Mead     int64
}

func (p PledgeContract) ToValue() encoding.List {
	return encoding.List{address.ToValue(p.Patron), encoding.Bool(p.Approved), i64(p.Mead)}
}

func PledgeFromValue(v encoding.Value) (PledgeContract, error) {
	var p PledgeContract
	l, err := encoding.AsList(v)
	if err != nil {
		return p, err
	}
	if len(l) != 3 {
		return p, errs.Validationf("pledge contract must have 3 fields, got %d", len(l))
	}
	if p.Patron, err = address.FromValue(l[0]); err != nil {
		return p, err
	}
	if p.Approved, err = encoding.AsBool(l[1]); err != nil {
		return p, err
	}
	if p.Mead, err = encoding.AsInt64(l[2]); err != nil {
		return p, err
	}
	return p, nil
}

// LoadPledge reports false when agent has no contract.
func LoadPledge(w *state.World, agent address.Address) (PledgeContract, bool, error) {
	v, ok := w.Get(PledgeAddress(agent))
	if !ok {
		return PledgeContract{}, false, nil
	}
	p, err := PledgeFromValue(v)
	return p, err == nil, err
}
