package model

import (
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/state"
)

// Avatar is a playable character. Its inventory, world progress and quest
// list live at addresses derived from the avatar address.
type Avatar struct {
	Address     address.Address
	Agent       address.Address
	Name        string
	CharacterID int
	Level       int
	Exp         int64
	ActionPoint int
	BlockIndex  int64
	UpdatedAt   int64
}

func (a *Avatar) InventoryAddress() address.Address {
	return address.Derive(a.Address, address.LabelInventory)
}

func (a *Avatar) WorldInformationAddress() address.Address {
	return address.Derive(a.Address, address.LabelWorldInformation)
}

func (a *Avatar) QuestListAddress() address.Address {
	return address.Derive(a.Address, address.LabelQuestList)
}

// Touch records that the avatar was modified at height.
func (a *Avatar) Touch(height int64) {
	a.BlockIndex = height
	a.UpdatedAt = height
}

func (a *Avatar) ToValue() encoding.Map {
	return encoding.NewMap(
		kv("address", address.ToValue(a.Address)),
		kv("agentAddress", address.ToValue(a.Agent)),
		kv("name", encoding.Text(a.Name)),
		kv("characterId", i64(int64(a.CharacterID))),
		kv("level", i64(int64(a.Level))),
		kv("exp", i64(a.Exp)),
		kv("actionPoint", i64(int64(a.ActionPoint))),
		kv("blockIndex", i64(a.BlockIndex)),
		kv("updatedAt", i64(a.UpdatedAt)),
	)
}

func AvatarFromValue(m encoding.Map) (*Avatar, error) {
	var (
		a   Avatar
		err error
	)
	if a.Address, err = addrAt(m, "address"); err != nil {
		return nil, err
	}
	if a.Agent, err = addrAt(m, "agentAddress"); err != nil {
		return nil, err
	}
	if a.Name, err = m.Text("name"); err != nil {
		return nil, err
	}
	if a.CharacterID, err = m.Int("characterId"); err != nil {
		return nil, err
	}
	if a.Level, err = m.Int("level"); err != nil {
		return nil, err
	}
	if a.Exp, err = m.Int64("exp"); err != nil {
		return nil, err
	}
	if a.ActionPoint, err = m.Int("actionPoint"); err != nil {
		return nil, err
	}
	if a.BlockIndex, err = m.Int64("blockIndex"); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = m.Int64("updatedAt"); err != nil {
		return nil, err
	}
	return &a, nil
}

func LoadAvatar(w *state.World, a address.Address) (*Avatar, error) {
	m, err := loadMap(w, a, "avatar")
	if err != nil {
		return nil, err
	}
	return AvatarFromValue(m)
}

func (a *Avatar) Save(w *state.World) *state.World {
	return w.Set(a.Address, a.ToValue())
}
