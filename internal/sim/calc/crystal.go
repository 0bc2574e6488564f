package calc

import (
	"math/big"

	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

// EntranceFee is baseFee crystal per avatar level.
func EntranceFee(level int, baseFee int64) state.FAV {
	return Crystal.Major(baseFee).Mul(int64(level))
}

// WorldUnlockCost sums the crystal needed to unlock every world in ids.
func WorldUnlockCost(ids []int, c *catalogs.Catalogs) (state.FAV, error) {
	total := Crystal.Zero()
	for _, id := range ids {
		row, ok := c.WorldUnlockFor(id)
		if !ok {
			return total, errs.NotFoundf("no unlock row for world %d", id)
		}
		total = total.Add(Crystal.Major(row.RequiredCrystal))
	}
	return total, nil
}

// RecipeUnlockCost sums recipe costs walking the sheet order, so the
// result does not depend on the order of ids.
func RecipeUnlockCost(ids []int, c *catalogs.Catalogs) (state.FAV, error) {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	total := Crystal.Zero()
	for _, r := range c.Recipes.Rows {
		if want[r.ID] {
			total = total.Add(Crystal.Major(r.RequiredCrystal))
			delete(want, r.ID)
		}
	}
	for _, id := range ids {
		if want[id] {
			return total, errs.NotFoundf("recipe %d not found", id)
		}
	}
	return total, nil
}

// GrindEntry is the part of an equipment item grinding looks at.
type GrindEntry struct {
	ItemID int
	Level  int
}

// GrindingCrystal is the crystal yielded by grinding items: each row's
// crystal doubled per enhancement level, halved when enhancement failed,
// then raised by the staking level's multiplier percentage.
func GrindingCrystal(items []GrindEntry, staked state.FAV, enhancementFailed bool, c *catalogs.Catalogs) (state.FAV, error) {
	sum := new(big.Int)
	for _, it := range items {
		row, ok := c.Grinding.Get(it.ItemID)
		if !ok {
			return Crystal.Zero(), errs.NotFoundf("no grinding row for item %d", it.ItemID)
		}
		v := big.NewInt(row.Crystal)
		v.Lsh(v, uint(it.Level))
		sum.Add(sum, v)
	}
	if enhancementFailed {
		sum.Rsh(sum, 1)
	}
	level := c.StakingLevel(staked.MajorUnits().Int64())
	var mult int64
	if row, ok := c.CrystalMultipliers.Get(level); ok {
		mult = row.Multiplier
	}
	sum.Mul(sum, big.NewInt(100+mult))
	sum = floorDiv(sum, big.NewInt(100))
	return Crystal.MajorBig(sum), nil
}

// BuffGachaCost is the crystal price of one roll on stage.
func BuffGachaCost(stage int, advanced bool, c *catalogs.Catalogs) (state.FAV, error) {
	row, ok := c.BuffGacha.Get(stage)
	if !ok {
		return Crystal.Zero(), errs.NotFoundf("no buff gacha row for stage %d", stage)
	}
	if advanced {
		return Crystal.Major(row.AdvancedCost), nil
	}
	return Crystal.Major(row.NormalCost), nil
}
