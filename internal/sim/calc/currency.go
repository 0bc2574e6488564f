// Package calc holds the pure economic formulas: fees, unlock costs, stake
// rewards, grinding yields, enhancement tiers and arena/raid scoring.
// Nothing here reads or writes world state.
package calc

import (
	"math/big"

	"golang.org/x/exp/constraints"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/state"
)

var (
	// Crystal is minted only by the reward minter.
	Crystal = state.NewCurrency("CRYSTAL", 18, address.RewardMinter)
	// Mead has no minters; it exists only through genesis balances.
	Mead = state.NewCurrency("Mead", 18)
)

// RewardCurrency is the currency a stake reward row pays out in.
func RewardCurrency(ticker string, decimals int) state.Currency {
	return state.NewCurrency(ticker, uint8(decimals), address.RewardMinter)
}

func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Min[T constraints.Integer](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Integer](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// floorDiv divides big integers rounding toward negative infinity.
func floorDiv(a, b *big.Int) *big.Int {
	q, m := new(big.Int), new(big.Int)
	q.DivMod(a, b, m)
	if b.Sign() < 0 && m.Sign() != 0 {
		q.Sub(q, big.NewInt(1))
	}
	return q
}
