package action

import (
	"github.com/google/uuid"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/battle"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
)

// checkLoadout returns the equipment named by ids after checking it can be
// worn at height: held, unlocked, and at most one item per slot.
func checkLoadout(inv *model.Inventory, ids []uuid.UUID, height int64) ([]model.Equipment, error) {
	if err := checkDistinct("equipment id", ids); err != nil {
		return nil, err
	}
	if err := checkCount("equipment", len(ids), len(catalogs.EquipmentSubTypes)); err != nil {
		return nil, err
	}
	slots := map[catalogs.ItemSubType]bool{}
	out := make([]model.Equipment, 0, len(ids))
	for _, id := range ids {
		e, ok := inv.FindEquipment(id)
		if !ok {
			return nil, errs.NotFoundf("equipment not in inventory").With("id", id)
		}
		if e.RequiredBlockIndex > height {
			return nil, errs.Validationf("equipment is locked").With("id", id).With("requiredBlockIndex", e.RequiredBlockIndex)
		}
		if slots[e.SubType] {
			return nil, errs.Validationf("duplicate equipment slot").With("slot", e.SubType)
		}
		slots[e.SubType] = true
		out = append(out, e)
	}
	return out, nil
}

// checkRunes requires distinct slots and rune ids, each rune owned.
func checkRunes(w *state.World, avatar address.Address, runes []RuneSlot) error {
	slots := make([]int, len(runes))
	for i, r := range runes {
		slots[i] = r.SlotIndex
	}
	if err := checkDistinct("rune slot", slots); err != nil {
		return err
	}
	ids := runeIDs(runes)
	if err := checkDistinct("rune id", ids); err != nil {
		return err
	}
	owned, err := model.LoadRunes(w, avatar, ids)
	if err != nil {
		return err
	}
	if len(owned) != len(ids) {
		return errs.NotFoundf("rune not owned").With("avatar", avatar.Hex())
	}
	return nil
}

// digestOf builds the battle digest of an avatar wearing the listed
// equipment. Items no longer in the inventory are skipped.
func digestOf(ctx *Context, w *state.World, av *model.Avatar, equipment []uuid.UUID, runeSet []int) (battle.CharacterDigest, error) {
	inv, err := loadInventory(w, av)
	if err != nil {
		return battle.CharacterDigest{}, err
	}
	worn := make([]model.Equipment, 0, len(equipment))
	for _, id := range equipment {
		if e, ok := inv.FindEquipment(id); ok {
			worn = append(worn, e)
		}
	}
	runes, err := model.LoadRunes(w, av.Address, runeSet)
	if err != nil {
		return battle.CharacterDigest{}, err
	}
	collections, err := model.LoadCollection(w, av.Address)
	if err != nil {
		return battle.CharacterDigest{}, err
	}
	return battle.AvatarDigest(ctx.Catalogs, av, worn, runes, collections)
}
