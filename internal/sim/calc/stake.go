package calc

import (
	"math/big"

	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

// StakeRewardQuantity is floor(staked / rate) × steps. Truncation is always
// toward negative infinity.
func StakeRewardQuantity(staked *big.Int, rate int64, steps int64) *big.Int {
	if rate <= 0 || steps <= 0 || staked.Sign() <= 0 {
		return new(big.Int)
	}
	q := floorDiv(staked, big.NewInt(rate))
	return q.Mul(q, big.NewInt(steps))
}

// StakeItemReward is a quantity of a material item.
type StakeItemReward struct {
	ItemID   int
	Quantity int64
}

type StakeRewards struct {
	Items      []StakeItemReward
	Currencies []state.FAV
}

// StakeRewardsFor computes the rewards for steps intervals at the staking
// level of staked gold. Items with the same id are summed and kept in
// sheet order.
func StakeRewardsFor(staked state.FAV, steps int64, c *catalogs.Catalogs) (StakeRewards, error) {
	var out StakeRewards
	level := c.StakingLevel(staked.MajorUnits().Int64())
	if level == 0 || steps <= 0 {
		return out, nil
	}
	row, ok := c.StakeRewards.Get(level)
	if !ok {
		return out, errs.NotFoundf("no stake reward row for level %d", level)
	}
	major := staked.MajorUnits()
	at := map[int]int{}
	for _, r := range row.Rewards {
		q := StakeRewardQuantity(major, r.Rate, steps)
		if q.Sign() == 0 {
			continue
		}
		switch r.Type {
		case catalogs.StakeRewardCurrency:
			out.Currencies = append(out.Currencies, RewardCurrency(r.Ticker, r.Decimals).MajorBig(q))
		default:
			if !q.IsInt64() {
				return out, errs.Validationf("stake reward for item %d overflows", r.ItemID)
			}
			if i, ok := at[r.ItemID]; ok {
				out.Items[i].Quantity += q.Int64()
				continue
			}
			at[r.ItemID] = len(out.Items)
			out.Items = append(out.Items, StakeItemReward{ItemID: r.ItemID, Quantity: q.Int64()})
		}
	}
	return out, nil
}
