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

const (
	TypeGrinding = "grinding"

	MaxGrindingItems = 10
)

// Grinding destroys unequipped equipment for crystal. It costs action
// points; ChargeAP lets an AP stone cover a shortfall.
type Grinding struct {
	Avatar       address.Address
	EquipmentIDs []uuid.UUID
	ChargeAP     bool
}

func (a *Grinding) TypeID() string { return TypeGrinding }

func (a *Grinding) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar_address", address.ToValue(a.Avatar)),
		kv("equipment_ids", uuidsValue(a.EquipmentIDs)),
		kv("charge_ap", encoding.Bool(a.ChargeAP)),
	)
}

func (a *Grinding) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Avatar, err = addrField(m, "avatar_address"); err != nil {
		return err
	}
	if a.EquipmentIDs, err = uuidsField(m, "equipment_ids"); err != nil {
		return err
	}
	a.ChargeAP, err = m.Bool("charge_ap")
	return err
}

func (a *Grinding) Validate(ctx *Context) error {
	if err := checkNonEmpty("equipment ids", len(a.EquipmentIDs)); err != nil {
		return err
	}
	if err := checkCount("equipment ids", len(a.EquipmentIDs), MaxGrindingItems); err != nil {
		return err
	}
	if err := checkDistinct("equipment id", a.EquipmentIDs); err != nil {
		return err
	}
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *Grinding) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	c := ctx.Catalogs
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	inv, err := loadInventory(w, av)
	if err != nil {
		return nil, err
	}

	cost := c.Game.GrindingActionPoint
	if av.ActionPoint < cost {
		if !a.ChargeAP {
			return nil, errs.Validationf("not enough action point").With("have", av.ActionPoint).With("need", cost)
		}
		if err := chargeWithStone(ctx, av, inv); err != nil {
			return nil, err
		}
	}
	av.ActionPoint -= cost

	entries := make([]calc.GrindEntry, 0, len(a.EquipmentIDs))
	for _, id := range a.EquipmentIDs {
		e, err := removeUsableEquipment(inv, id, ctx.BlockHeight)
		if err != nil {
			return nil, err
		}
		entries = append(entries, calc.GrindEntry{ItemID: e.ItemID, Level: e.Level})
	}

	gold, err := model.LoadGoldCurrency(w)
	if err != nil {
		return nil, err
	}
	staked := w.GetBalance(model.StakeAddress(ctx.Signer), gold)
	crystal, err := calc.GrindingCrystal(entries, staked, false, c)
	if err != nil {
		return nil, err
	}
	if w, err = mintReward(w, ctx.Signer, crystal); err != nil {
		return nil, err
	}

	av.Touch(ctx.BlockHeight)
	w = inv.Save(w)
	w = av.Save(w)
	return progressQuest(w, av, catalogs.QuestGrinding, 1)
}

// removeUsableEquipment takes an unequipped, unlocked item out of inv.
func removeUsableEquipment(inv *model.Inventory, id uuid.UUID, height int64) (model.Equipment, error) {
	e, ok := inv.FindEquipment(id)
	if !ok {
		return e, errs.NotFoundf("equipment not in inventory").With("id", id)
	}
	if e.Equipped {
		return e, errs.Validationf("equipment is equipped").With("id", id)
	}
	if e.RequiredBlockIndex > height {
		return e, errs.Validationf("equipment is locked").With("id", id).With("requiredBlockIndex", e.RequiredBlockIndex)
	}
	return inv.RemoveEquipment(id)
}
