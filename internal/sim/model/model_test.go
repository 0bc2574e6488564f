package model

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

var (
	agentAddr  = address.Derive(address.Admin, "test_agent")
	avatarAddr = AvatarAddress(agentAddr, 0)
)

func TestAvatarSaveLoad(t *testing.T) {
	av := &Avatar{Address: avatarAddr, Agent: agentAddr, Name: "hero", CharacterID: 100010, Level: 3, ActionPoint: 120}
	av.Touch(7)
	w := av.Save(state.New())

	got, err := LoadAvatar(w, avatarAddr)
	require.NoError(t, err)
	assert.Equal(t, av, got)

	_, err = LoadAvatar(w, agentAddr)
	assert.True(t, errs.IsKind(err, errs.StateNotFound))
}

func TestAgentOwnsAvatar(t *testing.T) {
	ag := NewAgent(agentAddr)
	ag.Avatars[0] = avatarAddr
	got, err := LoadAgent(ag.Save(state.New()), agentAddr)
	require.NoError(t, err)
	assert.True(t, got.Owns(avatarAddr))
	assert.False(t, got.Owns(AvatarAddress(agentAddr, 1)))
}

func TestInventoryMaterials(t *testing.T) {
	inv := NewInventory(address.Derive(avatarAddr, address.LabelInventory))
	inv.AddMaterial(500000, 2)
	require.NoError(t, inv.RemoveMaterial(500000, 1))
	assert.EqualValues(t, 1, inv.Count(500000))

	err := inv.RemoveMaterial(500000, 2)
	assert.True(t, errs.IsKind(err, errs.StateNotFound))
	assert.EqualValues(t, 1, inv.Count(500000))

	require.NoError(t, inv.RemoveMaterial(500000, 1))
	_, held := inv.Materials[500000]
	assert.False(t, held)
}

func TestInventoryEquipmentOrderIsStable(t *testing.T) {
	row := catalogs.EquipmentItemRow{ID: 10100000, ItemSubType: catalogs.SubTypeWeapon, Grade: 1,
		Stat: catalogs.StatModifierDef{Stat: catalogs.StatATK, Op: catalogs.OpAdd, Value: 11}}
	a := NewInventory(address.Zero)
	b := NewInventory(address.Zero)
	ids := []uuid.UUID{uuid.MustParse("ffffffff-0000-4000-8000-000000000000"), uuid.MustParse("00000000-0000-4000-8000-000000000000")}
	for _, id := range ids {
		a.AddEquipment(NewEquipment(id, row, 0))
	}
	for i := len(ids) - 1; i >= 0; i-- {
		b.AddEquipment(NewEquipment(ids[i], row, 0))
	}
	assert.True(t, encoding.Equal(a.ToValue(), b.ToValue()))

	got, err := InventoryFromValue(address.Zero, a.ToValue())
	require.NoError(t, err)
	assert.Equal(t, a.Equipment, got.Equipment)

	_, err = got.RemoveEquipment(uuid.Nil)
	assert.True(t, errs.IsKind(err, errs.StateNotFound))
}

func TestWorldInformation(t *testing.T) {
	rows := []catalogs.WorldRow{{ID: 1, StageBegin: 1, StageEnd: 50}, {ID: 2, StageBegin: 51, StageEnd: 100}}
	wi := NewWorldInformation(address.Zero, rows, 0)
	assert.True(t, wi.IsWorldUnlocked(1))
	assert.False(t, wi.IsWorldUnlocked(2))

	require.NoError(t, wi.ClearStage(50, 3))
	assert.True(t, wi.IsStageCleared(49))
	assert.False(t, wi.IsStageCleared(51))
	assert.True(t, errs.IsKind(wi.ClearStage(51, 4), errs.Validation))

	require.NoError(t, wi.UnlockWorld(2, 5))
	require.NoError(t, wi.ClearStage(51, 6))
	last, ok := wi.LastClearedStage(10001)
	assert.True(t, ok)
	assert.Equal(t, 51, last)

	got, err := WorldInformationFromValue(address.Zero, wi.ToValue())
	require.NoError(t, err)
	assert.Equal(t, wi.Worlds, got.Worlds)
}

func TestQuestListUpdateAndSync(t *testing.T) {
	rows := []catalogs.QuestRow{
		{ID: 2, Type: catalogs.QuestEnhancement, Goal: 2},
		{ID: 1, Type: catalogs.QuestGrinding, Goal: 1},
	}
	ql := NewQuestList(address.Zero, rows)
	assert.Equal(t, []int{1}, ql.Update(catalogs.QuestGrinding, 3))
	assert.Empty(t, ql.Update(catalogs.QuestGrinding, 1))
	assert.Empty(t, ql.Update(catalogs.QuestEnhancement, 1))
	assert.Equal(t, []int{2}, ql.Update(catalogs.QuestEnhancement, 1))
	assert.Equal(t, []int{1, 2}, ql.Completed)

	assert.True(t, errs.IsKind(ql.Sync(rows), errs.Validation))
	require.NoError(t, ql.Sync(append(rows, catalogs.QuestRow{ID: 3, Type: catalogs.QuestRaid, Goal: 1})))
	assert.Equal(t, 2, ql.Version)
	q, ok := ql.Get(3)
	require.True(t, ok)
	assert.False(t, q.Complete)

	got, err := QuestListFromValue(address.Zero, ql.ToValue())
	require.NoError(t, err)
	assert.Equal(t, ql.Quests, got.Quests)
	assert.Equal(t, ql.Completed, got.Completed)
}

func TestStakeRewardSteps(t *testing.T) {
	s := NewStakeState(agentAddr, 100)
	assert.EqualValues(t, 0, s.RewardSteps(149, 50))
	assert.EqualValues(t, 1, s.RewardSteps(150, 50))
	// 160 blocks since the start: three whole intervals, 10 blocks carried.
	assert.EqualValues(t, 3, s.RewardSteps(260, 50))
	s.Claim(3, 50)
	assert.EqualValues(t, 250, s.ReceivedBlockIndex)
	assert.EqualValues(t, 0, s.RewardSteps(260, 50))
	assert.EqualValues(t, 1, s.RewardSteps(300, 50))
	assert.EqualValues(t, 0, s.RewardSteps(260, 0))
}

func TestPledgeLayout(t *testing.T) {
	p := PledgeContract{Patron: address.Admin, Approved: true, Mead: DefaultRefillMead}
	w := state.New().Set(PledgeAddress(agentAddr), p.ToValue())
	got, ok, err := LoadPledge(w, agentAddr)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p, got)

	_, ok, err = LoadPledge(w, address.Admin)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPendingActivationVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	pub := crypto.FromECDSAPub(&key.PublicKey)
	addr, err := PendingActivationAddress(pub)
	require.NoError(t, err)

	p := PendingActivation{Address: addr, Nonce: []byte("nonce"), PublicKey: pub}
	sig, err := crypto.Sign(crypto.Keccak256(p.Nonce), key)
	require.NoError(t, err)
	assert.True(t, p.Verify(sig))
	assert.True(t, p.Verify(sig[:64]))

	sig[0] ^= 0xff
	assert.False(t, p.Verify(sig))
	assert.False(t, p.Verify(nil))
}

func TestOrderIDsSet(t *testing.T) {
	a := uuid.MustParse("00000000-0000-4000-8000-000000000002")
	b := uuid.MustParse("00000000-0000-4000-8000-000000000001")
	ids := OrderIDs(nil).Add(a).Add(b).Add(a)
	assert.Equal(t, OrderIDs{b, a}, ids)

	w := ids.Save(state.New(), ShopAddress(catalogs.SubTypeWeapon))
	got, err := LoadOrderIDs(w, ShopAddress(catalogs.SubTypeWeapon))
	require.NoError(t, err)
	assert.Equal(t, ids, got)

	rest, err := got.Remove(b)
	require.NoError(t, err)
	assert.Equal(t, OrderIDs{a}, rest)
	_, err = rest.Remove(b)
	assert.True(t, errs.IsKind(err, errs.StateNotFound))
}

func TestArenaInformationTickets(t *testing.T) {
	ai := NewArenaInformation(avatarAddr, 1, 2, 8)
	require.NoError(t, ai.UseTicket(8))
	assert.True(t, errs.IsKind(ai.UseTicket(1), errs.Validation))
	require.NoError(t, ai.BuyTicket(1))
	assert.Error(t, ai.BuyTicket(1))
	ai.ResetTicket(3, 8)
	assert.Equal(t, 8, ai.Ticket)

	w := ai.Save(state.New())
	got, err := LoadArenaInformation(w, ai.Address)
	require.NoError(t, err)
	assert.Equal(t, ai, got)
}
