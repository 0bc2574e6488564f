package calc

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/rng"
	"chronicles.ai/internal/sim/state"
)

var gold = state.NewCurrency("NCG", 2, address.Admin)

func loadCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	c, err := catalogs.Load("../../../configs")
	require.NoError(t, err)
	return c
}

func TestEntranceFeeScalesWithLevel(t *testing.T) {
	assert.Equal(t, "15 CRYSTAL", EntranceFee(3, 5).String())
	assert.True(t, EntranceFee(10, 0).IsZero())
}

func TestUnlockCosts(t *testing.T) {
	c := loadCatalogs(t)
	cost, err := WorldUnlockCost([]int{2, 3}, c)
	require.NoError(t, err)
	assert.Equal(t, "3000 CRYSTAL", cost.String())

	_, err = WorldUnlockCost([]int{99}, c)
	assert.Error(t, err)

	a, err := RecipeUnlockCost([]int{3, 2}, c)
	require.NoError(t, err)
	b, err := RecipeUnlockCost([]int{2, 3}, c)
	require.NoError(t, err)
	assert.Equal(t, "700 CRYSTAL", a.String())
	assert.Equal(t, 0, a.Cmp(b))
}

func TestGrindingCrystal(t *testing.T) {
	c := loadCatalogs(t)
	items := []GrindEntry{{ItemID: 10100000}, {ItemID: 10110000, Level: 2}}

	got, err := GrindingCrystal(items, gold.Zero(), false, c)
	require.NoError(t, err)
	assert.Equal(t, "410 CRYSTAL", got.String())

	got, err = GrindingCrystal(items, gold.Major(500), false, c)
	require.NoError(t, err)
	assert.Equal(t, "615 CRYSTAL", got.String())

	got, err = GrindingCrystal(items, gold.Major(500), true, c)
	require.NoError(t, err)
	assert.Equal(t, "307 CRYSTAL", got.String(), "halved then multiplied, floored")
}

func TestStakeRewardQuantityFloors(t *testing.T) {
	assert.Equal(t, int64(18), StakeRewardQuantity(big.NewInt(999), 100, 2).Int64())
	assert.Zero(t, StakeRewardQuantity(big.NewInt(99), 100, 5).Sign())
	assert.Zero(t, StakeRewardQuantity(big.NewInt(999), 0, 5).Sign())
}

func TestStakeRewardsFor(t *testing.T) {
	c := loadCatalogs(t)
	r, err := StakeRewardsFor(gold.Major(500), 1, c)
	require.NoError(t, err)
	assert.Equal(t, []StakeItemReward{{ItemID: 303000, Quantity: 12}, {ItemID: 306040, Quantity: 2}}, r.Items)
	require.Len(t, r.Currencies, 1)
	assert.Equal(t, "5 CRYSTAL", r.Currencies[0].String())
	assert.True(t, r.Currencies[0].Currency.Equal(Crystal))

	none, err := StakeRewardsFor(gold.Major(10), 3, c)
	require.NoError(t, err)
	assert.Empty(t, none.Items)
}

func TestEnhancementTier(t *testing.T) {
	always := catalogs.EnhancementCostRow{GreatSuccessRatio: 10000}
	never := catalogs.EnhancementCostRow{FailRatio: 10000}
	r := rng.New(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, model.TierGreatSuccess, EnhancementTier(r, always))
		assert.Equal(t, model.TierFail, EnhancementTier(r, never))
	}
	assert.EqualValues(t, 40, r.Draws())

	assert.EqualValues(t, 14, GrowStat(11, 3000))
	g, b := TierGrowth(catalogs.EnhancementCostRow{FailBlocks: 5, SuccessGrowth: 2000}, model.TierFail)
	assert.Zero(t, g)
	assert.EqualValues(t, 5, b)
}

func TestArenaRewardCountThresholds(t *testing.T) {
	cases := map[int64]int{999: 1, 1000: 1, 1001: 2, 1100: 3, 1199: 3, 1200: 4, 1400: 5, 1799: 5, 1800: 6, 5000: 6}
	for score, want := range cases {
		assert.Equal(t, want, ArenaRewardCount(score), "score %d", score)
	}
}

func TestArenaScores(t *testing.T) {
	win, defeat, loss := ArenaScores(1000, 1000)
	assert.EqualValues(t, 20, win)
	assert.EqualValues(t, -8, defeat)
	assert.EqualValues(t, -10, loss)

	win, _, _ = ArenaScores(1200, 1000)
	assert.EqualValues(t, 8, win)
	win, _, _ = ArenaScores(1000, 1150)
	assert.EqualValues(t, 24, win)

	assert.True(t, ValidateScoreDifference(catalogs.ArenaOffSeason, 1000, 3000))
	assert.True(t, ValidateScoreDifference(catalogs.ArenaSeason, 1000, 1100))
	assert.False(t, ValidateScoreDifference(catalogs.ArenaSeason, 1000, 1101))
	assert.False(t, ValidateScoreDifference(catalogs.ArenaChampionship, 1200, 1000))
}

func TestTicketsAndRefills(t *testing.T) {
	assert.Equal(t, "8 NCG", TicketPrice(5, 1, 3, gold).String())
	assert.Equal(t, 0, TicketResetCount(999, 1000, 50))
	assert.Equal(t, 2, TicketResetCount(1100, 1000, 50))

	assert.True(t, CanRefillChallenges(10, 0, 1, 100))
	assert.False(t, CanRefillChallenges(150, 120, 1, 100))
	assert.True(t, CanRefillChallenges(210, 120, 1, 100))
}

func TestRaidRank(t *testing.T) {
	c := loadCatalogs(t)
	assert.Equal(t, 0, RaidRank(900001, 0, c))
	assert.Equal(t, 1, RaidRank(900001, 4999, c))
	assert.Equal(t, 2, RaidRank(900001, 5000, c))
	assert.Equal(t, -1, RaidRank(1, 5000, c))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, -14, Clamp(-20, -14, 9))
	assert.Equal(t, int64(9), Clamp(int64(12), -14, 9))
	assert.Equal(t, 3, Clamp(3, 0, 5))
}
