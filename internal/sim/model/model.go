// Package model holds the entities stored in world state. Each entity lives
// at an address derived from its owner and serializes itself to a Map.
package model

import (
	"github.com/google/uuid"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

func kv(k string, v encoding.Value) encoding.Entry {
	return encoding.Entry{Key: k, Value: v}
}

func i64(n int64) encoding.Integer { return encoding.Int(n) }

func loadMap(w *state.World, a address.Address, what string) (encoding.Map, error) {
	v, ok := w.Get(a)
	if !ok {
		return encoding.Map{}, errs.NotFoundf("%s not found", what).With("address", a.Hex())
	}
	m, err := encoding.AsMap(v)
	if err != nil {
		return encoding.Map{}, errs.Validationf("%s at %s: %v", what, a.Hex(), err)
	}
	return m, nil
}

func UUIDValue(u uuid.UUID) encoding.Binary {
	return encoding.Binary(u[:])
}

func UUIDFromValue(v encoding.Value) (uuid.UUID, error) {
	b, err := encoding.AsBinary(v)
	if err != nil {
		return uuid.Nil, err
	}
	u, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.Nil, errs.Validationf("invalid uuid: %v", err)
	}
	return u, nil
}

func addrAt(m encoding.Map, key string) (address.Address, error) {
	v, err := m.Value(key)
	if err != nil {
		return address.Zero, err
	}
	return address.FromValue(v)
}
