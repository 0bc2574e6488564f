package action

import (
	"github.com/google/uuid"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/calc"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
)

const TypeItemEnhancement = "item_enhancement"

// ItemEnhancement consumes a copy of an equipment item to raise its level.
// The outcome tier is rolled once; a failed roll refunds the material as
// crystal. The result occupies a combination slot until the tier's lock
// expires.
type ItemEnhancement struct {
	Avatar     address.Address
	ItemID     uuid.UUID
	MaterialID uuid.UUID
	SlotIndex  int
}

func (a *ItemEnhancement) TypeID() string { return TypeItemEnhancement }

func (a *ItemEnhancement) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar_address", address.ToValue(a.Avatar)),
		kv("item_id", model.UUIDValue(a.ItemID)),
		kv("material_id", model.UUIDValue(a.MaterialID)),
		kv("slot_index", encoding.Int(int64(a.SlotIndex))),
	)
}

func (a *ItemEnhancement) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Avatar, err = addrField(m, "avatar_address"); err != nil {
		return err
	}
	if a.ItemID, err = uuidField(m, "item_id"); err != nil {
		return err
	}
	if a.MaterialID, err = uuidField(m, "material_id"); err != nil {
		return err
	}
	a.SlotIndex, err = m.Int("slot_index")
	return err
}

func (a *ItemEnhancement) Validate(ctx *Context) error {
	if a.ItemID == a.MaterialID {
		return errs.Validationf("item and material are the same").With("id", a.ItemID)
	}
	if a.SlotIndex < 0 || a.SlotIndex >= ctx.Catalogs.Game.CombinationSlotCount {
		return errs.Validationf("combination slot out of range").With("slot", a.SlotIndex)
	}
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *ItemEnhancement) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	c := ctx.Catalogs
	h := ctx.BlockHeight
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	slot, err := model.LoadCombinationSlot(w, av.Address, a.SlotIndex)
	if err != nil {
		return nil, err
	}
	if !slot.Available(h) {
		return nil, errs.Validationf("combination slot is busy").With("slot", a.SlotIndex).With("unlockBlockIndex", slot.UnlockBlockIndex)
	}
	inv, err := loadInventory(w, av)
	if err != nil {
		return nil, err
	}
	item, ok := inv.FindEquipment(a.ItemID)
	if !ok {
		return nil, errs.NotFoundf("equipment not in inventory").With("id", a.ItemID)
	}
	if item.RequiredBlockIndex > h {
		return nil, errs.Validationf("equipment is locked").With("id", a.ItemID).With("requiredBlockIndex", item.RequiredBlockIndex)
	}
	material, err := removeUsableEquipment(inv, a.MaterialID, h)
	if err != nil {
		return nil, err
	}
	if material.ItemID != item.ItemID || material.Level != item.Level {
		return nil, errs.Validationf("material does not match item").
			With("item", item.ItemID).With("material", material.ItemID).
			With("itemLevel", item.Level).With("materialLevel", material.Level)
	}
	row, ok := c.EnhancementCost(item.SubType, item.Grade, item.Level+1)
	if !ok {
		return nil, errs.Validationf("equipment is at max level").With("id", a.ItemID).With("level", item.Level)
	}

	gold, err := model.LoadGoldCurrency(w)
	if err != nil {
		return nil, err
	}
	if w, err = pay(w, ctx.Signer, address.EnhancementFees, gold.Major(row.Cost)); err != nil {
		return nil, err
	}

	tier := calc.EnhancementTier(ctx.Random, row)
	growth, blocks := calc.TierGrowth(row, tier)
	pre := item.Level
	if tier == model.TierFail {
		staked := w.GetBalance(model.StakeAddress(ctx.Signer), gold)
		refund, err := calc.GrindingCrystal([]calc.GrindEntry{{ItemID: material.ItemID, Level: material.Level}}, staked, true, c)
		if err != nil {
			return nil, err
		}
		if w, err = mintReward(w, ctx.Signer, refund); err != nil {
			return nil, err
		}
	} else {
		item.Level++
		item.StatValue = calc.GrowStat(item.StatValue, growth)
	}
	item.RequiredBlockIndex = h + blocks
	inv.ReplaceEquipment(item)

	slot.StartBlockIndex = h
	slot.UnlockBlockIndex = h + blocks
	slot.Result = &model.EnhancementResult{
		EquipmentID: item.ID,
		PreLevel:    pre,
		Level:       item.Level,
		Tier:        tier,
		Cost:        row.Cost,
	}

	av.Touch(h)
	w = inv.Save(w)
	w = slot.Save(w)
	w = av.Save(w)
	if tier == model.TierFail {
		return w, nil
	}
	return progressQuest(w, av, catalogs.QuestEnhancement, 1)
}
