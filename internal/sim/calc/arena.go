package calc

import (
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/state"
)

// ScoreDifferenceLimit bounds enemy score minus own score outside the
// off-season.
const ScoreDifferenceLimit = 100

const arenaDefeatScore = -8

// ArenaScores returns the score change for a win, for a defeat, and the
// change applied to the enemy when it loses. Beating a stronger enemy is
// worth more.
func ArenaScores(myScore, enemyScore int64) (win, defeat, enemyLoss int64) {
	diff := enemyScore - myScore
	switch {
	case diff <= -100:
		win = 8
	case diff < 0:
		win = 16
	case diff < 100:
		win = 20
	default:
		win = 24
	}
	return win, arenaDefeatScore, -win / 2
}

// ArenaRewardCount is how many rewards one battle draws for a score.
func ArenaRewardCount(score int64) int {
	switch {
	case score >= 1800:
		return 6
	case score >= 1400:
		return 5
	case score >= 1200:
		return 4
	case score >= 1100:
		return 3
	case score >= 1001:
		return 2
	default:
		return 1
	}
}

// ValidateScoreDifference reports whether my avatar may challenge enemy.
func ValidateScoreDifference(t catalogs.ArenaType, myScore, enemyScore int64) bool {
	if t == catalogs.ArenaOffSeason {
		return true
	}
	diff := enemyScore - myScore
	return -ScoreDifferenceLimit <= diff && diff <= ScoreDifferenceLimit
}

// TicketPrice grows by additional for every ticket already purchased.
func TicketPrice(base, additional int64, purchased int, gold state.Currency) state.FAV {
	return gold.Major(base + additional*int64(purchased))
}

// TicketResetCount is the number of whole daily intervals since start.
func TicketResetCount(height, start, interval int64) int {
	if interval <= 0 || height < start {
		return 0
	}
	return int((height - start) / interval)
}
