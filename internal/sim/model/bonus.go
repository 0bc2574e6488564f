package model

import (
	"sort"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/state"
)

func CollectionAddress(avatar address.Address) address.Address {
	return address.Derive(avatar, address.LabelCollection)
}

func RuneAddress(avatar address.Address, runeID int) address.Address {
	return address.Derive(avatar, address.Label(address.LabelRune, int64(runeID)))
}

func RandomSkillAddress(avatar address.Address) address.Address {
	return address.Derive(avatar, address.LabelRandomSkill)
}

// LoadCollection returns the completed collection ids of avatar, empty when
// none are stored.
func LoadCollection(w *state.World, avatar address.Address) ([]int, error) {
	v, ok := w.Get(CollectionAddress(avatar))
	if !ok {
		return nil, nil
	}
	ids, err := encoding.AsInts(v)
	if err != nil {
		return nil, err
	}
	sort.Ints(ids)
	return ids, nil
}

type RuneState struct {
	RuneID int
	Level  int
}

func (r RuneState) ToValue() encoding.List {
	return encoding.List{i64(int64(r.RuneID)), i64(int64(r.Level))}
}

// LoadRunes returns the runes of avatar among ids that exist, in id order.
func LoadRunes(w *state.World, avatar address.Address, ids []int) ([]RuneState, error) {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	var out []RuneState
	for _, id := range sorted {
		v, ok := w.Get(RuneAddress(avatar, id))
		if !ok {
			continue
		}
		pair, err := encoding.AsInts(v)
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			continue
		}
		out = append(out, RuneState{RuneID: pair[0], Level: pair[1]})
	}
	return out, nil
}

func SaveRune(w *state.World, avatar address.Address, r RuneState) *state.World {
	return w.Set(RuneAddress(avatar, r.RuneID), r.ToValue())
}

// CrystalRandomSkillState accumulates stars on a stage and holds the buff
// ids rolled by the gacha.
type CrystalRandomSkillState struct {
	Address address.Address
	StageID int
	Star    int
	BuffIDs []int
}

func NewCrystalRandomSkillState(avatar address.Address, stage int) *CrystalRandomSkillState {
	return &CrystalRandomSkillState{Address: RandomSkillAddress(avatar), StageID: stage}
}

func (s *CrystalRandomSkillState) ToValue() encoding.Map {
	return encoding.NewMap(
		kv("stageId", i64(int64(s.StageID))),
		kv("star", i64(int64(s.Star))),
		kv("buffIds", encoding.Ints(s.BuffIDs)),
	)
}

// LoadCrystalRandomSkillState reports false when nothing is stored.
func LoadCrystalRandomSkillState(w *state.World, avatar address.Address) (*CrystalRandomSkillState, bool, error) {
	a := RandomSkillAddress(avatar)
	if _, ok := w.Get(a); !ok {
		return nil, false, nil
	}
	m, err := loadMap(w, a, "random skill state")
	if err != nil {
		return nil, false, err
	}
	s := &CrystalRandomSkillState{Address: a}
	if s.StageID, err = m.Int("stageId"); err != nil {
		return nil, false, err
	}
	if s.Star, err = m.Int("star"); err != nil {
		return nil, false, err
	}
	if s.BuffIDs, err = m.Ints("buffIds"); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (s *CrystalRandomSkillState) Save(w *state.World) *state.World {
	return w.Set(s.Address, s.ToValue())
}
