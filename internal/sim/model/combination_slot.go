package model

import (
	"github.com/google/uuid"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/state"
)

type EnhancementTier string

const (
	TierGreatSuccess EnhancementTier = "GreatSuccess"
	TierSuccess      EnhancementTier = "Success"
	TierFail         EnhancementTier = "Fail"
)

type EnhancementResult struct {
	EquipmentID uuid.UUID
	PreLevel    int
	Level       int
	Tier        EnhancementTier
	Cost        int64
}

// CombinationSlot holds the latest crafting result until the slot's unlock
// block passes.
type CombinationSlot struct {
	Address          address.Address
	Index            int
	UnlockBlockIndex int64
	StartBlockIndex  int64
	Result           *EnhancementResult
}

func CombinationSlotAddress(avatar address.Address, index int) address.Address {
	return address.Derive(avatar, address.Label(address.LabelCombinationSlot, int64(index)))
}

func NewCombinationSlot(avatar address.Address, index int) *CombinationSlot {
	return &CombinationSlot{Address: CombinationSlotAddress(avatar, index), Index: index}
}

func (s *CombinationSlot) Available(height int64) bool {
	return height >= s.UnlockBlockIndex
}

func (s *CombinationSlot) ToValue() encoding.Map {
	m := encoding.NewMap(
		kv("index", i64(int64(s.Index))),
		kv("unlockBlockIndex", i64(s.UnlockBlockIndex)),
		kv("startBlockIndex", i64(s.StartBlockIndex)),
	)
	if s.Result != nil {
		r := s.Result
		m = m.Set("result", encoding.NewMap(
			kv("id", UUIDValue(r.EquipmentID)),
			kv("preLevel", i64(int64(r.PreLevel))),
			kv("level", i64(int64(r.Level))),
			kv("tier", encoding.Text(r.Tier)),
			kv("cost", i64(r.Cost)),
		))
	}
	return m
}

func CombinationSlotFromValue(a address.Address, m encoding.Map) (*CombinationSlot, error) {
	s := &CombinationSlot{Address: a}
	var err error
	if s.Index, err = m.Int("index"); err != nil {
		return nil, err
	}
	if s.UnlockBlockIndex, err = m.Int64("unlockBlockIndex"); err != nil {
		return nil, err
	}
	if s.StartBlockIndex, err = m.Int64("startBlockIndex"); err != nil {
		return nil, err
	}
	if !m.Has("result") {
		return s, nil
	}
	rm, err := m.Map("result")
	if err != nil {
		return nil, err
	}
	var r EnhancementResult
	idv, err := rm.Value("id")
	if err != nil {
		return nil, err
	}
	if r.EquipmentID, err = UUIDFromValue(idv); err != nil {
		return nil, err
	}
	if r.PreLevel, err = rm.Int("preLevel"); err != nil {
		return nil, err
	}
	if r.Level, err = rm.Int("level"); err != nil {
		return nil, err
	}
	tier, err := rm.Text("tier")
	if err != nil {
		return nil, err
	}
	r.Tier = EnhancementTier(tier)
	if r.Cost, err = rm.Int64("cost"); err != nil {
		return nil, err
	}
	s.Result = &r
	return s, nil
}

// LoadCombinationSlot returns an empty slot when none is stored yet.
func LoadCombinationSlot(w *state.World, avatar address.Address, index int) (*CombinationSlot, error) {
	a := CombinationSlotAddress(avatar, index)
	if _, ok := w.Get(a); !ok {
		return NewCombinationSlot(avatar, index), nil
	}
	m, err := loadMap(w, a, "combination slot")
	if err != nil {
		return nil, err
	}
	return CombinationSlotFromValue(a, m)
}

func (s *CombinationSlot) Save(w *state.World) *state.World {
	return w.Set(s.Address, s.ToValue())
}
