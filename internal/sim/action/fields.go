package action

import (
	"github.com/google/uuid"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
)

func kv(k string, v encoding.Value) encoding.Entry { return encoding.Entry{Key: k, Value: v} }

func addrField(m encoding.Map, key string) (address.Address, error) {
	v, err := m.Value(key)
	if err != nil {
		return address.Zero, err
	}
	a, err := address.FromValue(v)
	if err != nil {
		return address.Zero, errs.Validationf("key %q: %v", key, err)
	}
	return a, nil
}

func addrsField(m encoding.Map, key string) ([]address.Address, error) {
	v, err := m.Value(key)
	if err != nil {
		return nil, err
	}
	l, err := encoding.AsList(v)
	if err != nil {
		return nil, errs.Validationf("key %q: %v", key, err)
	}
	out := make([]address.Address, len(l))
	for i, e := range l {
		if out[i], err = address.FromValue(e); err != nil {
			return nil, errs.Validationf("key %q[%d]: %v", key, i, err)
		}
	}
	return out, nil
}

func addrsValue(as []address.Address) encoding.List {
	out := make(encoding.List, len(as))
	for i, a := range as {
		out[i] = address.ToValue(a)
	}
	return out
}

func uuidField(m encoding.Map, key string) (uuid.UUID, error) {
	v, err := m.Value(key)
	if err != nil {
		return uuid.Nil, err
	}
	return model.UUIDFromValue(v)
}

func uuidsField(m encoding.Map, key string) ([]uuid.UUID, error) {
	l, err := m.List(key)
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, len(l))
	for i, e := range l {
		if out[i], err = model.UUIDFromValue(e); err != nil {
			return nil, errs.Validationf("key %q[%d]: %v", key, i, err)
		}
	}
	return out, nil
}

func uuidsValue(ids []uuid.UUID) encoding.List {
	out := make(encoding.List, len(ids))
	for i, id := range ids {
		out[i] = model.UUIDValue(id)
	}
	return out
}

func favField(m encoding.Map, key string) (state.FAV, error) {
	v, err := m.Value(key)
	if err != nil {
		return state.FAV{}, err
	}
	f, err := state.FAVFromValue(v)
	if err != nil {
		return state.FAV{}, errs.Validationf("key %q: %v", key, err)
	}
	return f, nil
}

// RuneSlot places an owned rune in a battle rune slot.
type RuneSlot struct {
	SlotIndex int
	RuneID    int
}

func runesValue(rs []RuneSlot) encoding.List {
	out := make(encoding.List, len(rs))
	for i, r := range rs {
		out[i] = encoding.List{encoding.Int(int64(r.SlotIndex)), encoding.Int(int64(r.RuneID))}
	}
	return out
}

func runesField(m encoding.Map, key string) ([]RuneSlot, error) {
	l, err := m.List(key)
	if err != nil {
		return nil, err
	}
	out := make([]RuneSlot, len(l))
	for i, e := range l {
		pair, err := encoding.AsList(e)
		if err != nil || len(pair) != 2 {
			return nil, errs.Validationf("key %q[%d]: expected [slot, rune]", key, i)
		}
		if out[i].SlotIndex, err = encoding.AsInt(pair[0]); err != nil {
			return nil, err
		}
		if out[i].RuneID, err = encoding.AsInt(pair[1]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func runeIDs(rs []RuneSlot) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.RuneID
	}
	return out
}
