package model

import (
	"sort"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

type Quest struct {
	ID       int
	Type     catalogs.QuestType
	Goal     int64
	Progress int64
	Complete bool
}

// QuestList tracks progress on every quest of the sheet. Version grows each
// time new sheet rows are synced in.
type QuestList struct {
	Address   address.Address
	Version   int
	Quests    []*Quest
	Completed []int
}

func NewQuestList(a address.Address, rows []catalogs.QuestRow) *QuestList {
	ql := &QuestList{Address: a, Version: 1}
	for _, r := range rows {
		ql.Quests = append(ql.Quests, &Quest{ID: r.ID, Type: r.Type, Goal: r.Goal})
	}
	ql.sort()
	return ql
}

func (ql *QuestList) sort() {
	sort.Slice(ql.Quests, func(i, j int) bool { return ql.Quests[i].ID < ql.Quests[j].ID })
	sort.Ints(ql.Completed)
}

// Sync adds quests present in rows but missing from the list and bumps the
// version. It fails when the sheet has no new rows.
func (ql *QuestList) Sync(rows []catalogs.QuestRow) error {
	if len(rows) <= len(ql.Quests) {
		return errs.Validationf("quest sheet has no new quests").
			With("have", len(ql.Quests)).With("sheet", len(rows))
	}
	have := make(map[int]bool, len(ql.Quests))
	for _, q := range ql.Quests {
		have[q.ID] = true
	}
	for _, r := range rows {
		if !have[r.ID] {
			ql.Quests = append(ql.Quests, &Quest{ID: r.ID, Type: r.Type, Goal: r.Goal})
		}
	}
	ql.Version++
	ql.sort()
	return nil
}

// Update advances every incomplete quest of type t by amount and returns
// the ids that completed.
func (ql *QuestList) Update(t catalogs.QuestType, amount int64) []int {
	var done []int
	for _, q := range ql.Quests {
		if q.Type != t || q.Complete {
			continue
		}
		q.Progress += amount
		if q.Progress >= q.Goal {
			q.Progress = q.Goal
			q.Complete = true
			ql.Completed = append(ql.Completed, q.ID)
			done = append(done, q.ID)
		}
	}
	ql.sort()
	return done
}

func (ql *QuestList) Get(id int) (*Quest, bool) {
	for _, q := range ql.Quests {
		if q.ID == id {
			return q, true
		}
	}
	return nil, false
}

func (ql *QuestList) ToValue() encoding.Map {
	ql.sort()
	quests := make(encoding.List, 0, len(ql.Quests))
	for _, q := range ql.Quests {
		quests = append(quests, encoding.List{
			i64(int64(q.ID)),
			encoding.Text(q.Type),
			i64(q.Goal),
			i64(q.Progress),
			encoding.Bool(q.Complete),
		})
	}
	return encoding.NewMap(
		kv("v", i64(int64(ql.Version))),
		kv("q", quests),
		kv("c", encoding.Ints(ql.Completed)),
	)
}

func QuestListFromValue(a address.Address, m encoding.Map) (*QuestList, error) {
	ql := &QuestList{Address: a}
	var err error
	if ql.Version, err = m.Int("v"); err != nil {
		return nil, err
	}
	list, err := m.List("q")
	if err != nil {
		return nil, err
	}
	for _, item := range list {
		f, err := encoding.AsList(item)
		if err != nil || len(f) != 5 {
			return nil, errs.Validationf("malformed quest entry")
		}
		var q Quest
		if q.ID, err = encoding.AsInt(f[0]); err != nil {
			return nil, err
		}
		t, err := encoding.AsText(f[1])
		if err != nil {
			return nil, err
		}
		q.Type = catalogs.QuestType(t)
		if q.Goal, err = encoding.AsInt64(f[2]); err != nil {
			return nil, err
		}
		if q.Progress, err = encoding.AsInt64(f[3]); err != nil {
			return nil, err
		}
		if q.Complete, err = encoding.AsBool(f[4]); err != nil {
			return nil, err
		}
		ql.Quests = append(ql.Quests, &q)
	}
	if ql.Completed, err = m.Ints("c"); err != nil {
		return nil, err
	}
	ql.sort()
	return ql, nil
}

func LoadQuestList(w *state.World, a address.Address) (*QuestList, error) {
	m, err := loadMap(w, a, "quest list")
	if err != nil {
		return nil, err
	}
	return QuestListFromValue(a, m)
}

func (ql *QuestList) Save(w *state.World) *state.World {
	return w.Set(ql.Address, ql.ToValue())
}
