package calc

import (
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/state"
)

// CanRefillChallenges reports whether a new daily interval started since
// the last refill. A raider that never refilled always can.
func CanRefillChallenges(height, refilled, started, interval int64) bool {
	if refilled == 0 || interval <= 0 {
		return true
	}
	return (height-started)/interval > (refilled-started)/interval
}

// RaidTicketPrice is the gold price of one extra challenge.
func RaidTicketPrice(row catalogs.WorldBossRow, purchased int, gold state.Currency) state.FAV {
	return gold.Major(row.TicketPrice + row.AdditionalTicketPrice*int64(purchased))
}

// RaidRank maps a score to the reward rank of bossID; -1 when no rank is
// reached.
func RaidRank(bossID int, score int64, c *catalogs.Catalogs) int {
	row, ok := c.BossReward(bossID, score)
	if !ok {
		return -1
	}
	return row.Rank
}
