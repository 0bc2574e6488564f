package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/calc"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/simtest"
)

const raidID = 1

func TestRaidFirstChallenge(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	addr := h.CreateAvatar(simtest.Alice, 0, "Alice")
	before := crystalOf(h, simtest.Alice)

	h.MustStep(simtest.Alice, &action.Raid{Avatar: addr})

	raider, found, err := model.LoadRaiderState(h.World, addr, raidID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, raider.TotalChallengeCount)
	assert.Equal(t, h.Cats.Game.WorldBossChallengeCount-1, raider.RemainChallengeCount)
	assert.Equal(t, "Alice", raider.AvatarName)
	assert.Equal(t, raider.TotalScore, raider.HighScore)

	boss, found, err := model.LoadWorldBossState(h.World, raidID)
	require.NoError(t, err)
	require.True(t, found)
	if boss.Level == 1 {
		assert.Equal(t, 20000-raider.TotalScore, boss.CurrentHP)
	}

	// The 300 crystal entrance fee goes to the raid store; the reward rank
	// pays 100, 300 or 1000 back.
	assertFAV(t, calc.Crystal.Major(300), crystalOf(h, address.RaidFees))
	row, ok := h.Cats.BossReward(900001, raider.TotalScore)
	require.True(t, ok)
	assert.Equal(t, row.Rank, raider.LatestRewardRank)
	assertFAV(t, before.Sub(calc.Crystal.Major(300)).Add(calc.Crystal.Major(row.Crystal)), crystalOf(h, simtest.Alice))

	raiders, err := model.RaiderList(h.World, raidID)
	require.NoError(t, err)
	assert.Equal(t, []address.Address{model.RaiderAddress(addr, raidID)}, raiders)
}

func TestRaidChallengeLimits(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	addr := h.CreateAvatar(simtest.Alice, 0, "Alice")
	gap := h.Cats.Game.WorldBossRequiredInterval

	h.MustStep(simtest.Alice, &action.Raid{Avatar: addr})
	_, err := h.Step(simtest.Alice, &action.Raid{Avatar: addr})
	assert.True(t, errs.IsKind(err, errs.Validation), "cooldown: %v", err)

	for i := 1; i < h.Cats.Game.WorldBossChallengeCount; i++ {
		h.Advance(gap)
		h.MustStep(simtest.Alice, &action.Raid{Avatar: addr})
	}
	h.Advance(gap)
	_, err = h.Step(simtest.Alice, &action.Raid{Avatar: addr})
	assert.True(t, errs.IsKind(err, errs.Validation), "out of challenges: %v", err)

	gold := h.Balance(simtest.Alice, simtest.Gold)
	h.MustStep(simtest.Alice, &action.Raid{Avatar: addr, PayNcg: true})
	assertFAV(t, gold.Sub(simtest.Gold.Major(40)), h.Balance(simtest.Alice, simtest.Gold))

	h.Advance(gap)
	gold = h.Balance(simtest.Alice, simtest.Gold)
	h.MustStep(simtest.Alice, &action.Raid{Avatar: addr, PayNcg: true})
	assertFAV(t, gold.Sub(simtest.Gold.Major(50)), h.Balance(simtest.Alice, simtest.Gold))

	raider, _, err := model.LoadRaiderState(h.World, addr, raidID)
	require.NoError(t, err)
	assert.Equal(t, 2, raider.PurchaseCount)
	assert.Equal(t, h.Cats.Game.WorldBossChallengeCount+2, raider.TotalChallengeCount)

	ql, err := model.LoadQuestList(h.World, h.Avatar(addr).QuestListAddress())
	require.NoError(t, err)
	q, ok := ql.Get(6)
	require.True(t, ok)
	assert.True(t, q.Complete)

	// A new daily interval refills the free challenges.
	h.Height = 1 + h.Cats.Game.DailyWorldBossInterval
	gold = h.Balance(simtest.Alice, simtest.Gold)
	h.MustStep(simtest.Alice, &action.Raid{Avatar: addr})
	assertFAV(t, gold, h.Balance(simtest.Alice, simtest.Gold))
}

func TestRaidOutsideSeason(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	addr := h.CreateAvatar(simtest.Alice, 0, "Alice")
	h.Height = 200_001
	_, err := h.Step(simtest.Alice, &action.Raid{Avatar: addr})
	assert.True(t, errs.IsKind(err, errs.Validation), "%v", err)
}
