package action

import (
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/calc"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
)

const (
	TypeStake            = "stake"
	TypeClaimStakeReward = "claim_stake_reward"
)

// Stake sets the signer's staked gold to Amount. The gold sits at the stake
// address. Lowering a stake, or withdrawing it with a zero amount, is only
// allowed once the lockup is over, and pending rewards must be claimed
// before the stake changes.
type Stake struct {
	Amount int64
}

func (a *Stake) TypeID() string { return TypeStake }

func (a *Stake) PlainValue() encoding.Map {
	return encoding.NewMap(kv("amount", encoding.Int(a.Amount)))
}

func (a *Stake) LoadPlainValue(m encoding.Map) error {
	var err error
	a.Amount, err = m.Int64("amount")
	return err
}

func (a *Stake) Validate(ctx *Context) error {
	if a.Amount < 0 {
		return errs.Validationf("stake amount must not be negative").With("amount", a.Amount)
	}
	if a.Amount == 0 {
		return nil
	}
	if ctx.Catalogs.StakingLevel(a.Amount) == 0 {
		return errs.Validationf("stake amount below the first staking level").With("amount", a.Amount)
	}
	return nil
}

func (a *Stake) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	h := ctx.BlockHeight
	gold, err := model.LoadGoldCurrency(w)
	if err != nil {
		return nil, err
	}
	stakeAddr := model.StakeAddress(ctx.Signer)
	current := w.GetBalance(stakeAddr, gold)
	target := gold.Major(a.Amount)

	st, found, err := model.LoadStakeState(w, ctx.Signer)
	if err != nil {
		return nil, err
	}
	if found {
		if steps := st.RewardSteps(h, ctx.Catalogs.Game.StakeRewardInterval); steps > 0 {
			return nil, errs.Validationf("claim stake rewards first").With("steps", steps)
		}
		if target.Cmp(current) < 0 && h < st.CancellableBlockIndex {
			return nil, errs.Validationf("stake is locked").
				With("cancellableBlockIndex", st.CancellableBlockIndex).
				With("height", h)
		}
	} else if a.Amount == 0 {
		return nil, errs.NotFoundf("no stake to withdraw").With("agent", ctx.Signer.Hex())
	}

	switch target.Cmp(current) {
	case 1:
		w, err = w.TransferAsset(ctx.Signer, stakeAddr, target.Sub(current))
	case -1:
		w, err = w.TransferAsset(stakeAddr, ctx.Signer, current.Sub(target))
	}
	if err != nil {
		return nil, err
	}
	if a.Amount == 0 {
		return w.Remove(stakeAddr), nil
	}
	return model.NewStakeState(ctx.Signer, h).Save(w), nil
}

// ClaimStakeReward pays out every full reward interval since the last
// claim. Items go to the avatar's inventory; currencies are minted to the
// signer.
type ClaimStakeReward struct {
	Avatar address.Address
}

func (a *ClaimStakeReward) TypeID() string { return TypeClaimStakeReward }

func (a *ClaimStakeReward) PlainValue() encoding.Map {
	return encoding.NewMap(kv("avatar_address", address.ToValue(a.Avatar)))
}

func (a *ClaimStakeReward) LoadPlainValue(m encoding.Map) error {
	var err error
	a.Avatar, err = addrField(m, "avatar_address")
	return err
}

func (a *ClaimStakeReward) Validate(ctx *Context) error {
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *ClaimStakeReward) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	c := ctx.Catalogs
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	st, found, err := model.LoadStakeState(w, ctx.Signer)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.NotFoundf("no stake").With("agent", ctx.Signer.Hex())
	}
	interval := c.Game.StakeRewardInterval
	steps := st.RewardSteps(ctx.BlockHeight, interval)
	if steps == 0 {
		return nil, errs.Validationf("no stake reward to claim").With("height", ctx.BlockHeight)
	}
	gold, err := model.LoadGoldCurrency(w)
	if err != nil {
		return nil, err
	}
	rewards, err := calc.StakeRewardsFor(w.GetBalance(st.Address, gold), steps, c)
	if err != nil {
		return nil, err
	}
	inv, err := loadInventory(w, av)
	if err != nil {
		return nil, err
	}
	for _, it := range rewards.Items {
		inv.AddMaterial(it.ItemID, it.Quantity)
	}
	for _, cur := range rewards.Currencies {
		if w, err = mintReward(w, ctx.Signer, cur); err != nil {
			return nil, err
		}
	}
	st.Claim(steps, interval)
	w = st.Save(w)
	return inv.Save(w), nil
}
