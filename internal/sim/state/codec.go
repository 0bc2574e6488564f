package state

import (
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
)

// Encode returns the persisted layout of the world:
//
//	{"states": {hex address: value}, "balances": [[address, asset value], ...]}
func (w *World) Encode() encoding.Map {
	flat := w.flatten()
	states := make(map[string]encoding.Value, len(flat.states))
	for a, v := range flat.states {
		states[a.Hex()] = v
	}
	bals := w.Balances()
	bl := make(encoding.List, len(bals))
	for i, b := range bals {
		bl[i] = encoding.List{address.ToValue(b.Address), b.Amount.ToValue()}
	}
	return encoding.NewMap(
		encoding.Entry{Key: "states", Value: encoding.MapOf(states)},
		encoding.Entry{Key: "balances", Value: bl},
	)
}

func DecodeWorld(v encoding.Value) (*World, error) {
	m, err := encoding.AsMap(v)
	if err != nil {
		return nil, err
	}
	sm, err := m.Map("states")
	if err != nil {
		return nil, err
	}
	bl, err := m.List("balances")
	if err != nil {
		return nil, err
	}
	w := New()
	for _, e := range sm.Entries() {
		a, err := address.Parse(e.Key)
		if err != nil {
			return nil, err
		}
		w.states[a] = e.Value
	}
	for _, item := range bl {
		pair, err := encoding.AsList(item)
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, errs.Validationf("balance entry must have 2 elements")
		}
		a, err := address.FromValue(pair[0])
		if err != nil {
			return nil, err
		}
		f, err := FAVFromValue(pair[1])
		if err != nil {
			return nil, err
		}
		id := f.Currency.ID()
		w.currencies[id] = f.Currency
		w.balances[balanceKey{addr: a, cur: id}] = f.Raw()
	}
	return w, nil
}
