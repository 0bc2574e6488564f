package action

import (
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
)

const TypeChargeActionPoint = "charge_action_point"

// ChargeActionPoint burns one AP stone to refill the avatar's action points.
type ChargeActionPoint struct {
	Avatar address.Address
}

func (a *ChargeActionPoint) TypeID() string { return TypeChargeActionPoint }

func (a *ChargeActionPoint) PlainValue() encoding.Map {
	return encoding.NewMap(kv("avatar_address", address.ToValue(a.Avatar)))
}

func (a *ChargeActionPoint) LoadPlainValue(m encoding.Map) error {
	var err error
	a.Avatar, err = addrField(m, "avatar_address")
	return err
}

func (a *ChargeActionPoint) Validate(ctx *Context) error {
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *ChargeActionPoint) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	apMax := ctx.Catalogs.Game.ActionPointMax
	if av.ActionPoint >= apMax {
		return nil, errs.Validationf("action point already full").With("actionPoint", av.ActionPoint)
	}
	inv, err := loadInventory(w, av)
	if err != nil {
		return nil, err
	}
	if err := chargeWithStone(ctx, av, inv); err != nil {
		return nil, err
	}
	av.Touch(ctx.BlockHeight)
	w = inv.Save(w)
	return av.Save(w), nil
}

// chargeWithStone removes one AP stone and refills action points to max.
func chargeWithStone(ctx *Context, av *model.Avatar, inv *model.Inventory) error {
	if err := inv.RemoveMaterial(ctx.Catalogs.Game.ApStoneItemID, 1); err != nil {
		return err
	}
	av.ActionPoint = ctx.Catalogs.Game.ActionPointMax
	return nil
}
