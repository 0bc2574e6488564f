package action_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/calc"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/simtest"
)

type arenaFixture struct {
	h           *simtest.Harness
	alice, bob  address.Address
	aliceWeapon uuid.UUID
	bobWeapon   uuid.UUID
}

func newArenaFixture(t *testing.T) *arenaFixture {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	f := &arenaFixture{h: h}
	f.alice = h.CreateAvatar(simtest.Alice, 0, "Alice")
	f.bob = h.CreateAvatar(simtest.Bob, 0, "Bob")
	f.aliceWeapon = h.GiveEquipment(f.alice, weaponG1)
	f.bobWeapon = h.GiveEquipment(f.bob, weaponG1)
	return f
}

func (f *arenaFixture) joinOffSeason() {
	f.h.MustStep(simtest.Alice, &action.JoinArena{Avatar: f.alice, Championship: 1, Round: 1, Equipment: []uuid.UUID{f.aliceWeapon}})
	f.h.MustStep(simtest.Bob, &action.JoinArena{Avatar: f.bob, Championship: 1, Round: 1, Equipment: []uuid.UUID{f.bobWeapon}})
}

func (f *arenaFixture) battle(tickets int) (*action.BattleArena, error) {
	a := &action.BattleArena{Avatar: f.alice, Enemy: f.bob, Championship: 1, Round: 1, Ticket: tickets,
		Equipment: []uuid.UUID{f.aliceWeapon}}
	_, err := f.h.Step(simtest.Alice, a)
	return a, err
}

func TestJoinArena(t *testing.T) {
	f := newArenaFixture(t)
	h := f.h

	_, err := h.Step(simtest.Alice, &action.JoinArena{Avatar: f.alice, Championship: 1, Round: 9})
	assert.True(t, errs.IsKind(err, errs.StateNotFound), "%v", err)
	_, err = h.Step(simtest.Alice, &action.JoinArena{Avatar: f.alice, Championship: 1, Round: 2})
	assert.True(t, errs.IsKind(err, errs.Validation), "season not open yet: %v", err)

	second := h.GiveEquipment(f.alice, weaponG1)
	_, err = h.Step(simtest.Alice, &action.JoinArena{Avatar: f.alice, Championship: 1, Round: 1,
		Equipment: []uuid.UUID{f.aliceWeapon, second}})
	assert.True(t, errs.IsKind(err, errs.Validation), "two weapons: %v", err)

	_, err = h.Step(simtest.Alice, &action.JoinArena{Avatar: f.alice, Championship: 1, Round: 1,
		Runes: []action.RuneSlot{{SlotIndex: 0, RuneID: 10001}}})
	assert.True(t, errs.IsKind(err, errs.StateNotFound), "rune not owned: %v", err)

	h.MustStep(simtest.Alice, &action.JoinArena{Avatar: f.alice, Championship: 1, Round: 1, Equipment: []uuid.UUID{f.aliceWeapon}})
	_, err = h.Step(simtest.Alice, &action.JoinArena{Avatar: f.alice, Championship: 1, Round: 1})
	assert.True(t, errs.IsKind(err, errs.Conflict), "%v", err)

	score, err := model.LoadArenaScore(h.World, model.ArenaScoreAddress(f.alice, 1, 1))
	require.NoError(t, err)
	assert.EqualValues(t, model.ArenaScoreDefault, score.Score)
	info, err := model.LoadArenaInformation(h.World, model.ArenaInformationAddress(f.alice, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, h.Cats.Game.ArenaTicketsPerInterval, info.Ticket)
	loadout, err := model.LoadArenaAvatarState(h.World, f.alice)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{f.aliceWeapon}, loadout.Equipment)

	// The season round charges an entrance fee in crystal per avatar level.
	h.Height = 1001
	before := crystalOf(h, simtest.Alice)
	h.MustStep(simtest.Alice, &action.JoinArena{Avatar: f.alice, Championship: 1, Round: 2})
	assertFAV(t, before.Sub(calc.Crystal.Major(5)), crystalOf(h, simtest.Alice))
	assertFAV(t, calc.Crystal.Major(5), crystalOf(h, address.ArenaPool))

	// Championship rounds need medals from earlier rounds.
	h.Height = 2001
	_, err = h.Step(simtest.Alice, &action.JoinArena{Avatar: f.alice, Championship: 1, Round: 3})
	assert.True(t, errs.IsKind(err, errs.Validation), "%v", err)
	h.GiveMaterial(f.alice, 700001, 2)
	h.MustStep(simtest.Alice, &action.JoinArena{Avatar: f.alice, Championship: 1, Round: 3})
}

func TestBattleArenaScoresAndRecords(t *testing.T) {
	f := newArenaFixture(t)
	h := f.h
	f.joinOffSeason()

	_, err := f.battle(3)
	require.NoError(t, err)

	info, err := model.LoadArenaInformation(h.World, model.ArenaInformationAddress(f.alice, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 3, info.Win+info.Lose)
	assert.Equal(t, h.Cats.Game.ArenaTicketsPerInterval-3, info.Ticket)

	mine, err := model.LoadArenaScore(h.World, model.ArenaScoreAddress(f.alice, 1, 1))
	require.NoError(t, err)
	theirs, err := model.LoadArenaScore(h.World, model.ArenaScoreAddress(f.bob, 1, 1))
	require.NoError(t, err)
	// Equal scores: +20 per win, -8 per loss, the enemy loses 10 per win.
	assert.EqualValues(t, 1000+20*info.Win-8*info.Lose, mine.Score)
	assert.EqualValues(t, 1000-10*info.Win, theirs.Score)

	ql, err := model.LoadQuestList(h.World, h.Avatar(f.alice).QuestListAddress())
	require.NoError(t, err)
	q, ok := ql.Get(5)
	require.True(t, ok)
	assert.EqualValues(t, 3, q.Progress)

	_, err = f.battle(1)
	assert.True(t, errs.IsKind(err, errs.Validation), "cooldown: %v", err)
}

func TestBattleArenaChecks(t *testing.T) {
	f := newArenaFixture(t)
	h := f.h
	f.joinOffSeason()
	carol := h.CreateAvatar(simtest.Carol, 0, "Carol")

	_, err := h.Step(simtest.Alice, &action.BattleArena{Avatar: f.alice, Enemy: f.alice, Championship: 1, Round: 1, Ticket: 1})
	assert.True(t, errs.IsKind(err, errs.Validation), "%v", err)
	_, err = h.Step(simtest.Alice, &action.BattleArena{Avatar: f.alice, Enemy: f.bob, Championship: 1, Round: 1})
	assert.True(t, errs.IsKind(err, errs.Validation), "zero tickets: %v", err)
	_, err = h.Step(simtest.Alice, &action.BattleArena{Avatar: f.alice, Enemy: carol, Championship: 1, Round: 1, Ticket: 1})
	assert.True(t, errs.IsKind(err, errs.StateNotFound), "enemy not joined: %v", err)
	_, err = f.battle(h.Cats.Game.ArenaTicketsPerInterval + 1)
	assert.True(t, errs.IsKind(err, errs.Validation), "more tickets than held: %v", err)
}

func TestBattleArenaBuysTicketWhenOut(t *testing.T) {
	f := newArenaFixture(t)
	h := f.h
	f.joinOffSeason()

	_, err := f.battle(h.Cats.Game.ArenaTicketsPerInterval)
	require.NoError(t, err)
	h.Advance(h.Cats.Game.BattleArenaInterval)

	before := h.Balance(simtest.Alice, simtest.Gold)
	_, err = f.battle(1)
	require.NoError(t, err)
	assertFAV(t, before.Sub(simtest.Gold.Major(5)), h.Balance(simtest.Alice, simtest.Gold))
	assertFAV(t, simtest.Gold.Major(5), h.Balance(address.ArenaPool, simtest.Gold))

	info, err := model.LoadArenaInformation(h.World, model.ArenaInformationAddress(f.alice, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, info.Ticket)
	assert.Equal(t, 1, info.PurchasedTicketCount)
}

func TestBattleArenaSeasonAllowsOneTicket(t *testing.T) {
	f := newArenaFixture(t)
	h := f.h
	h.Height = 1001
	h.MustStep(simtest.Alice, &action.JoinArena{Avatar: f.alice, Championship: 1, Round: 2})
	h.MustStep(simtest.Bob, &action.JoinArena{Avatar: f.bob, Championship: 1, Round: 2})

	_, err := h.Step(simtest.Alice, &action.BattleArena{Avatar: f.alice, Enemy: f.bob, Championship: 1, Round: 2, Ticket: 2})
	assert.True(t, errs.IsKind(err, errs.Validation), "%v", err)

	h.MustStep(simtest.Alice, &action.BattleArena{Avatar: f.alice, Enemy: f.bob, Championship: 1, Round: 2, Ticket: 1})
	info, err := model.LoadArenaInformation(h.World, model.ArenaInformationAddress(f.alice, 1, 2))
	require.NoError(t, err)
	// A season win pays one medal.
	assert.EqualValues(t, info.Win, h.Inventory(f.alice).Count(700001))
}

func TestBattleArenaIsDeterministic(t *testing.T) {
	run := func() string {
		f := newArenaFixture(t)
		f.joinOffSeason()
		_, err := f.battle(5)
		require.NoError(t, err)
		return f.h.World.StateRootHex()
	}
	assert.Equal(t, run(), run())
}
