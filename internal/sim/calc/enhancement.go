package calc

import (
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/rng"
)

// EnhancementTier rolls one draw in [1, 10000] against the row's ratios.
func EnhancementTier(r *rng.Random, row catalogs.EnhancementCostRow) model.EnhancementTier {
	roll := r.Next(1, 10001)
	switch {
	case roll <= row.GreatSuccessRatio:
		return model.TierGreatSuccess
	case roll <= row.GreatSuccessRatio+row.SuccessRatio:
		return model.TierSuccess
	default:
		return model.TierFail
	}
}

// GrowStat raises base by growth ten-thousandths, rounding down.
func GrowStat(base, growth int64) int64 {
	return base * (10000 + growth) / 10000
}

// TierGrowth returns the stat growth and the lock duration of a tier.
func TierGrowth(row catalogs.EnhancementCostRow, t model.EnhancementTier) (growth, blocks int64) {
	switch t {
	case model.TierGreatSuccess:
		return row.GreatSuccessGrowth, row.GreatSuccessBlocks
	case model.TierSuccess:
		return row.SuccessGrowth, row.SuccessBlocks
	default:
		return 0, row.FailBlocks
	}
}
