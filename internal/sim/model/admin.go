package model

import (
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

// AdminState names the administrator and the height its authority ends.
type AdminState struct {
	Admin      address.Address
	ValidUntil int64
}

func (a AdminState) ToValue() encoding.Map {
	return encoding.NewMap(
		kv("admin", address.ToValue(a.Admin)),
		kv("validUntil", i64(a.ValidUntil)),
	)
}

func LoadAdminState(w *state.World) (AdminState, error) {
	var a AdminState
	m, err := loadMap(w, address.Admin, "admin state")
	if err != nil {
		return a, err
	}
	if a.Admin, err = addrAt(m, "admin"); err != nil {
		return a, err
	}
	if a.ValidUntil, err = m.Int64("validUntil"); err != nil {
		return a, err
	}
	return a, nil
}

// LoadGoldCurrency reads the gold currency installed at genesis.
func LoadGoldCurrency(w *state.World) (state.Currency, error) {
	v, ok := w.Get(address.GoldCurrency)
	if !ok {
		return state.Currency{}, errs.NotFoundf("gold currency not installed")
	}
	return state.CurrencyFromValue(v)
}
