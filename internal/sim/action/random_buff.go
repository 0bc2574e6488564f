package action

import (
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/calc"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/reward"
	"chronicles.ai/internal/sim/state"
)

const TypeRandomBuff = "hack_and_slash_random_buff"

// HackAndSlashRandomBuff spends the stars gathered on a stage and crystal
// to roll a set of battle buffs for that stage.
type HackAndSlashRandomBuff struct {
	Avatar   address.Address
	Advanced bool
}

func (a *HackAndSlashRandomBuff) TypeID() string { return TypeRandomBuff }

func (a *HackAndSlashRandomBuff) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar_address", address.ToValue(a.Avatar)),
		kv("advanced", encoding.Bool(a.Advanced)),
	)
}

func (a *HackAndSlashRandomBuff) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Avatar, err = addrField(m, "avatar_address"); err != nil {
		return err
	}
	a.Advanced, err = m.Bool("advanced")
	return err
}

func (a *HackAndSlashRandomBuff) Validate(ctx *Context) error {
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *HackAndSlashRandomBuff) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	c := ctx.Catalogs
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	st, found, err := model.LoadCrystalRandomSkillState(w, av.Address)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.NotFoundf("no stage stars gathered").With("avatar", av.Address.Hex())
	}
	row, ok := c.BuffGacha.Get(st.StageID)
	if !ok {
		return nil, errs.NotFoundf("no buff gacha row for stage %d", st.StageID)
	}
	if st.Star < row.MaxStar {
		return nil, errs.Validationf("not enough stars").With("have", st.Star).With("need", row.MaxStar)
	}
	cost, err := calc.BuffGachaCost(st.StageID, a.Advanced, c)
	if err != nil {
		return nil, err
	}
	if w, err = pay(w, ctx.Signer, address.BuffGachaFees, cost); err != nil {
		return nil, err
	}
	st.BuffIDs = reward.RandomBuffs(ctx.Random, c, a.Advanced)
	st.Star = 0
	return st.Save(w), nil
}
