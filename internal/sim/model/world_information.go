package model

import (
	"sort"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

// WorldProgress is an avatar's progress through one world.
type WorldProgress struct {
	ID                int
	StageBegin        int
	StageEnd          int
	Unlocked          bool
	UnlockedBlock     int64
	StageClearedID    int
	StageClearedBlock int64
}

type WorldInformation struct {
	Address address.Address
	Worlds  map[int]*WorldProgress
}

// NewWorldInformation starts with every world of the sheet locked except
// the first one.
func NewWorldInformation(a address.Address, worlds []catalogs.WorldRow, height int64) *WorldInformation {
	wi := &WorldInformation{Address: a, Worlds: map[int]*WorldProgress{}}
	for _, r := range worlds {
		wi.Worlds[r.ID] = &WorldProgress{ID: r.ID, StageBegin: r.StageBegin, StageEnd: r.StageEnd}
	}
	if w, ok := wi.Worlds[1]; ok {
		w.Unlocked = true
		w.UnlockedBlock = height
	}
	return wi
}

func (wi *WorldInformation) IsWorldUnlocked(id int) bool {
	w, ok := wi.Worlds[id]
	return ok && w.Unlocked
}

func (wi *WorldInformation) UnlockWorld(id int, height int64) error {
	w, ok := wi.Worlds[id]
	if !ok {
		return errs.NotFoundf("world %d not found", id)
	}
	if !w.Unlocked {
		w.Unlocked = true
		w.UnlockedBlock = height
	}
	return nil
}

// IsStageCleared reports whether stage is at or below the last cleared
// stage of the world that contains it.
func (wi *WorldInformation) IsStageCleared(stage int) bool {
	for _, w := range wi.Worlds {
		if w.StageBegin <= stage && stage <= w.StageEnd {
			return w.StageClearedID >= stage
		}
	}
	return false
}

func (wi *WorldInformation) ClearStage(stage int, height int64) error {
	for _, w := range wi.Worlds {
		if w.StageBegin <= stage && stage <= w.StageEnd {
			if !w.Unlocked {
				return errs.Validationf("world %d is locked", w.ID)
			}
			if stage > w.StageClearedID {
				w.StageClearedID = stage
				w.StageClearedBlock = height
			}
			return nil
		}
	}
	return errs.NotFoundf("no world contains stage %d", stage)
}

// LastClearedStage returns the highest cleared stage outside event worlds.
func (wi *WorldInformation) LastClearedStage(eventWorld int) (int, bool) {
	best := 0
	for id, w := range wi.Worlds {
		if id == eventWorld {
			continue
		}
		if w.StageClearedID > best {
			best = w.StageClearedID
		}
	}
	return best, best > 0
}

func (wi *WorldInformation) ids() []int {
	out := make([]int, 0, len(wi.Worlds))
	for id := range wi.Worlds {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func (wi *WorldInformation) ToValue() encoding.Map {
	list := make(encoding.List, 0, len(wi.Worlds))
	for _, id := range wi.ids() {
		w := wi.Worlds[id]
		list = append(list, encoding.List{
			i64(int64(w.ID)),
			i64(int64(w.StageBegin)),
			i64(int64(w.StageEnd)),
			encoding.Bool(w.Unlocked),
			i64(w.UnlockedBlock),
			i64(int64(w.StageClearedID)),
			i64(w.StageClearedBlock),
		})
	}
	return encoding.NewMap(kv("w", list))
}

func WorldInformationFromValue(a address.Address, m encoding.Map) (*WorldInformation, error) {
	list, err := m.List("w")
	if err != nil {
		return nil, err
	}
	wi := &WorldInformation{Address: a, Worlds: map[int]*WorldProgress{}}
	for _, item := range list {
		f, err := encoding.AsList(item)
		if err != nil || len(f) != 7 {
			return nil, errs.Validationf("malformed world entry")
		}
		var w WorldProgress
		ints := []*int{&w.ID, &w.StageBegin, &w.StageEnd}
		for i, p := range ints {
			if *p, err = encoding.AsInt(f[i]); err != nil {
				return nil, err
			}
		}
		if w.Unlocked, err = encoding.AsBool(f[3]); err != nil {
			return nil, err
		}
		if w.UnlockedBlock, err = encoding.AsInt64(f[4]); err != nil {
			return nil, err
		}
		if w.StageClearedID, err = encoding.AsInt(f[5]); err != nil {
			return nil, err
		}
		if w.StageClearedBlock, err = encoding.AsInt64(f[6]); err != nil {
			return nil, err
		}
		wi.Worlds[w.ID] = &w
	}
	return wi, nil
}

func LoadWorldInformation(w *state.World, a address.Address) (*WorldInformation, error) {
	m, err := loadMap(w, a, "world information")
	if err != nil {
		return nil, err
	}
	return WorldInformationFromValue(a, m)
}

func (wi *WorldInformation) Save(w *state.World) *state.World {
	return w.Set(wi.Address, wi.ToValue())
}
