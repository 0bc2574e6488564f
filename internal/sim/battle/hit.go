package battle

import "chronicles.ai/internal/sim/calc"

const (
	HitStep1LevelDiffMin   = -14
	HitStep1LevelDiffMax   = 10
	HitStep1CorrectionMin  = -5
	HitStep1CorrectionMax  = 50
	HitStep2CorrectionMin  = 0
	HitStep2CorrectionMax  = 50
	HitStep3CorrectionMin  = 10
	HitStep3CorrectionMax  = 90
	baseCorrectionNoLevels = 40
)

// step1Table holds the correction for level differences -13..9.
var step1Table = [...]int64{
	-4, -3, -2, -1, 0, 1, 2, 4, 6, 8, 13, 20, 28,
	40,
	41, 42, 43, 44, 45, 46, 47, 48, 49,
}

// HitStep1 corrects the hit chance by the level difference.
func HitStep1(attackerLevel, defenderLevel int64) int64 {
	diff := attackerLevel - defenderLevel
	if diff <= HitStep1LevelDiffMin {
		return HitStep1CorrectionMin
	}
	if diff >= HitStep1LevelDiffMax {
		return HitStep1CorrectionMax
	}
	return step1Table[diff-(HitStep1LevelDiffMin+1)]
}

// HitStep2 corrects by the ratio of HIT stats. Both are floored at 1.
func HitStep2(attackerHit, defenderHit int64) int64 {
	attackerHit = calc.Max(1, attackerHit)
	defenderHit = calc.Max(1, defenderHit)
	c := (attackerHit*10000 - defenderHit*10000/3) / defenderHit / 100
	return calc.Clamp(c, HitStep2CorrectionMin, HitStep2CorrectionMax)
}

func HitStep3(correction int64) int64 {
	return calc.Clamp(correction, HitStep3CorrectionMin, HitStep3CorrectionMax)
}

func HitStep4(lowLimitChance, correction int64) bool {
	return correction >= lowLimitChance
}

// IsHit reports whether an attack lands; lowLimitChance is a draw in [0, 100).
func IsHit(attackerLevel, attackerHit, defenderLevel, defenderHit, lowLimitChance int64) bool {
	c := HitStep1(attackerLevel, defenderLevel) + HitStep2(attackerHit, defenderHit)
	return HitStep4(lowLimitChance, HitStep3(c))
}

// IsHitWithoutLevelCorrection replaces step 1 with a fixed base of 40.
func IsHitWithoutLevelCorrection(attackerHit, defenderHit, lowLimitChance int64) bool {
	c := baseCorrectionNoLevels + HitStep2(attackerHit, defenderHit)
	return HitStep4(lowLimitChance, HitStep3(c))
}
