package model

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

// Equipment is a non-fungible item identified by a UUID drawn from the
// execution's random source.
type Equipment struct {
	ID                 uuid.UUID
	ItemID             int
	SubType            catalogs.ItemSubType
	Grade              int
	Level              int
	Stat               catalogs.StatType
	StatValue          int64
	SkillID            int
	RequiredBlockIndex int64
	Equipped           bool
}

// NewEquipment instantiates an equipment row at level 0.
func NewEquipment(id uuid.UUID, row catalogs.EquipmentItemRow, requiredBlock int64) Equipment {
	return Equipment{
		ID:                 id,
		ItemID:             row.ID,
		SubType:            row.ItemSubType,
		Grade:              row.Grade,
		Stat:               row.Stat.Stat,
		StatValue:          row.Stat.Value,
		SkillID:            row.SkillID,
		RequiredBlockIndex: requiredBlock,
	}
}

func (e Equipment) ToValue() encoding.Map {
	return encoding.NewMap(
		kv("id", UUIDValue(e.ID)),
		kv("itemId", i64(int64(e.ItemID))),
		kv("subType", encoding.Text(e.SubType)),
		kv("grade", i64(int64(e.Grade))),
		kv("level", i64(int64(e.Level))),
		kv("stat", encoding.Text(e.Stat)),
		kv("statValue", i64(e.StatValue)),
		kv("skillId", i64(int64(e.SkillID))),
		kv("requiredBlockIndex", i64(e.RequiredBlockIndex)),
		kv("equipped", encoding.Bool(e.Equipped)),
	)
}

func EquipmentFromValue(v encoding.Value) (Equipment, error) {
	var e Equipment
	m, err := encoding.AsMap(v)
	if err != nil {
		return e, err
	}
	idv, err := m.Value("id")
	if err != nil {
		return e, err
	}
	if e.ID, err = UUIDFromValue(idv); err != nil {
		return e, err
	}
	if e.ItemID, err = m.Int("itemId"); err != nil {
		return e, err
	}
	st, err := m.Text("subType")
	if err != nil {
		return e, err
	}
	e.SubType = catalogs.ItemSubType(st)
	if e.Grade, err = m.Int("grade"); err != nil {
		return e, err
	}
	if e.Level, err = m.Int("level"); err != nil {
		return e, err
	}
	stat, err := m.Text("stat")
	if err != nil {
		return e, err
	}
	e.Stat = catalogs.StatType(stat)
	if e.StatValue, err = m.Int64("statValue"); err != nil {
		return e, err
	}
	if e.SkillID, err = m.Int("skillId"); err != nil {
		return e, err
	}
	if e.RequiredBlockIndex, err = m.Int64("requiredBlockIndex"); err != nil {
		return e, err
	}
	if e.Equipped, err = m.Bool("equipped"); err != nil {
		return e, err
	}
	return e, nil
}

// Inventory holds fungible materials by item id and equipment by UUID.
type Inventory struct {
	Address   address.Address
	Materials map[int]int64
	Equipment []Equipment
}

func NewInventory(a address.Address) *Inventory {
	return &Inventory{Address: a, Materials: map[int]int64{}}
}

func (inv *Inventory) Count(itemID int) int64 { return inv.Materials[itemID] }

func (inv *Inventory) AddMaterial(itemID int, n int64) {
	if n <= 0 {
		return
	}
	inv.Materials[itemID] += n
}

// RemoveMaterial fails with StateNotFoundError when fewer than n are held.
func (inv *Inventory) RemoveMaterial(itemID int, n int64) error {
	have := inv.Materials[itemID]
	if have < n {
		return errs.NotFoundf("not enough material %d", itemID).
			With("have", have).With("need", n)
	}
	if have == n {
		delete(inv.Materials, itemID)
	} else {
		inv.Materials[itemID] = have - n
	}
	return nil
}

func (inv *Inventory) AddEquipment(e Equipment) {
	inv.Equipment = append(inv.Equipment, e)
	sortEquipment(inv.Equipment)
}

func (inv *Inventory) FindEquipment(id uuid.UUID) (Equipment, bool) {
	for _, e := range inv.Equipment {
		if e.ID == id {
			return e, true
		}
	}
	return Equipment{}, false
}

// ReplaceEquipment overwrites the equipment with the same id.
func (inv *Inventory) ReplaceEquipment(e Equipment) bool {
	for i := range inv.Equipment {
		if inv.Equipment[i].ID == e.ID {
			inv.Equipment[i] = e
			return true
		}
	}
	return false
}

func (inv *Inventory) RemoveEquipment(id uuid.UUID) (Equipment, error) {
	for i, e := range inv.Equipment {
		if e.ID == id {
			inv.Equipment = append(inv.Equipment[:i:i], inv.Equipment[i+1:]...)
			return e, nil
		}
	}
	return Equipment{}, errs.NotFoundf("equipment %s not in inventory", id)
}

// Equipped returns the equipped items in inventory order.
func (inv *Inventory) Equipped() []Equipment {
	var out []Equipment
	for _, e := range inv.Equipment {
		if e.Equipped {
			out = append(out, e)
		}
	}
	return out
}

func sortEquipment(es []Equipment) {
	sort.Slice(es, func(i, j int) bool { return bytes.Compare(es[i].ID[:], es[j].ID[:]) < 0 })
}

func (inv *Inventory) ToValue() encoding.Map {
	ids := make([]int, 0, len(inv.Materials))
	for id := range inv.Materials {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	mats := make(encoding.List, 0, len(ids))
	for _, id := range ids {
		mats = append(mats, encoding.List{i64(int64(id)), i64(inv.Materials[id])})
	}
	sortEquipment(inv.Equipment)
	eqs := make(encoding.List, 0, len(inv.Equipment))
	for _, e := range inv.Equipment {
		eqs = append(eqs, e.ToValue())
	}
	return encoding.NewMap(kv("m", mats), kv("e", eqs))
}

func InventoryFromValue(a address.Address, m encoding.Map) (*Inventory, error) {
	inv := NewInventory(a)
	mats, err := m.List("m")
	if err != nil {
		return nil, err
	}
	for _, item := range mats {
		pair, err := encoding.AsList(item)
		if err != nil || len(pair) != 2 {
			return nil, errs.Validationf("malformed material entry")
		}
		id, err := encoding.AsInt(pair[0])
		if err != nil {
			return nil, err
		}
		n, err := encoding.AsInt64(pair[1])
		if err != nil {
			return nil, err
		}
		inv.Materials[id] = n
	}
	eqs, err := m.List("e")
	if err != nil {
		return nil, err
	}
	for _, item := range eqs {
		e, err := EquipmentFromValue(item)
		if err != nil {
			return nil, err
		}
		inv.Equipment = append(inv.Equipment, e)
	}
	sortEquipment(inv.Equipment)
	return inv, nil
}

func LoadInventory(w *state.World, a address.Address) (*Inventory, error) {
	m, err := loadMap(w, a, "inventory")
	if err != nil {
		return nil, err
	}
	return InventoryFromValue(a, m)
}

func (inv *Inventory) Save(w *state.World) *state.World {
	return w.Set(inv.Address, inv.ToValue())
}
