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

func TestItemEnhancementFirstLevelAlwaysSucceeds(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	addr := h.CreateAvatar(simtest.Alice, 0, "Alice")
	item := h.GiveEquipment(addr, weaponG1)
	material := h.GiveEquipment(addr, weaponG1)

	h.MustStep(simtest.Alice, &action.ItemEnhancement{Avatar: addr, ItemID: item, MaterialID: material, SlotIndex: 0})

	inv := h.Inventory(addr)
	_, held := inv.FindEquipment(material)
	assert.False(t, held, "material is consumed")
	e, ok := inv.FindEquipment(item)
	require.True(t, ok)
	assert.Equal(t, 1, e.Level)
	assert.Contains(t, []int64{13, 14}, e.StatValue)

	slot, err := model.LoadCombinationSlot(h.World, addr, 0)
	require.NoError(t, err)
	require.NotNil(t, slot.Result)
	assert.NotEqual(t, model.TierFail, slot.Result.Tier)
	assert.Equal(t, 0, slot.Result.PreLevel)
	assert.Equal(t, 1, slot.Result.Level)
	assert.Equal(t, e.RequiredBlockIndex, slot.UnlockBlockIndex)
	assert.Greater(t, slot.UnlockBlockIndex, h.Height)

	assertFAV(t, simtest.Gold.Major(10), h.Balance(address.EnhancementFees, simtest.Gold))
	assertFAV(t, simtest.Gold.Major(simtest.StartingGold-10), h.Balance(simtest.Alice, simtest.Gold))

	ql, err := model.LoadQuestList(h.World, h.Avatar(addr).QuestListAddress())
	require.NoError(t, err)
	q, ok := ql.Get(2)
	require.True(t, ok)
	assert.True(t, q.Complete)
}

func TestItemEnhancementChecks(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	addr := h.CreateAvatar(simtest.Alice, 0, "Alice")
	item := h.GiveEquipment(addr, weaponG1)
	material := h.GiveEquipment(addr, weaponG1)
	armor := h.GiveEquipment(addr, 10200000)
	stranger := uuid.NewSHA1(uuid.NameSpaceOID, []byte("not held"))

	cases := []struct {
		name string
		act  *action.ItemEnhancement
		kind errs.Kind
	}{
		{"same item", &action.ItemEnhancement{Avatar: addr, ItemID: item, MaterialID: item}, errs.Validation},
		{"slot out of range", &action.ItemEnhancement{Avatar: addr, ItemID: item, MaterialID: material, SlotIndex: 4}, errs.Validation},
		{"item missing", &action.ItemEnhancement{Avatar: addr, ItemID: stranger, MaterialID: material}, errs.StateNotFound},
		{"material missing", &action.ItemEnhancement{Avatar: addr, ItemID: item, MaterialID: stranger}, errs.StateNotFound},
		{"material mismatch", &action.ItemEnhancement{Avatar: addr, ItemID: item, MaterialID: armor}, errs.Validation},
	}
	for _, tc := range cases {
		_, err := h.Step(simtest.Alice, tc.act)
		assert.Truef(t, errs.IsKind(err, tc.kind), "%s: %v", tc.name, err)
	}

	// Bob has no agent at all; naming Alice's avatar is still a permission failure.
	_, err := h.Step(simtest.Bob, &action.ItemEnhancement{Avatar: addr, ItemID: item, MaterialID: material})
	assert.True(t, errs.IsKind(err, errs.Permission), "%v", err)
	assert.Contains(t, err.Error(), "required="+simtest.Alice.Hex())
	assert.Contains(t, err.Error(), "actual="+simtest.Bob.Hex())

	_, err = h.Step(simtest.Bob, &action.ItemEnhancement{Avatar: address.Derive(simtest.Bob, "no-avatar"), ItemID: item, MaterialID: material})
	assert.True(t, errs.IsKind(err, errs.StateNotFound), "unknown avatar: %v", err)

	h.UpdateEquipment(addr, material, func(e *model.Equipment) { e.Level = 1 })
	_, err = h.Step(simtest.Alice, &action.ItemEnhancement{Avatar: addr, ItemID: item, MaterialID: material})
	assert.True(t, errs.IsKind(err, errs.Validation), "level mismatch: %v", err)

	h.UpdateEquipment(addr, item, func(e *model.Equipment) { e.Level = 3 })
	h.UpdateEquipment(addr, material, func(e *model.Equipment) { e.Level = 3 })
	_, err = h.Step(simtest.Alice, &action.ItemEnhancement{Avatar: addr, ItemID: item, MaterialID: material})
	assert.True(t, errs.IsKind(err, errs.Validation), "max level: %v", err)
}

func TestItemEnhancementSlotIsBusyUntilUnlock(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	addr := h.CreateAvatar(simtest.Alice, 0, "Alice")
	first := h.GiveEquipment(addr, weaponG1)
	h.MustStep(simtest.Alice, &action.ItemEnhancement{Avatar: addr, ItemID: first, MaterialID: h.GiveEquipment(addr, weaponG1)})

	second := h.GiveEquipment(addr, weaponG1)
	material := h.GiveEquipment(addr, weaponG1)
	_, err := h.Step(simtest.Alice, &action.ItemEnhancement{Avatar: addr, ItemID: second, MaterialID: material})
	assert.True(t, errs.IsKind(err, errs.Validation), "%v", err)

	h.MustStep(simtest.Alice, &action.ItemEnhancement{Avatar: addr, ItemID: second, MaterialID: material, SlotIndex: 1})

	slot, err := model.LoadCombinationSlot(h.World, addr, 0)
	require.NoError(t, err)
	h.Height = slot.UnlockBlockIndex
	third := h.GiveEquipment(addr, weaponG1)
	h.MustStep(simtest.Alice, &action.ItemEnhancement{Avatar: addr, ItemID: third, MaterialID: h.GiveEquipment(addr, weaponG1)})
}

func TestItemEnhancementFailureRefundsCrystal(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	addr := h.CreateAvatar(simtest.Alice, 0, "Alice")

	// Level 2 to 3 fails half the time.
	var fails, successes int
	for i := 0; i < 24; i++ {
		item := h.GiveEquipment(addr, weaponG1)
		material := h.GiveEquipment(addr, weaponG1)
		for _, id := range []uuid.UUID{item, material} {
			h.UpdateEquipment(addr, id, func(e *model.Equipment) { e.Level = 2 })
		}
		before := crystalOf(h, simtest.Alice)

		h.MustStep(simtest.Alice, &action.ItemEnhancement{Avatar: addr, ItemID: item, MaterialID: material})

		slot, err := model.LoadCombinationSlot(h.World, addr, 0)
		require.NoError(t, err)
		e, ok := h.Inventory(addr).FindEquipment(item)
		require.True(t, ok)
		if slot.Result.Tier == model.TierFail {
			fails++
			assert.Equal(t, 2, e.Level)
			// 10 crystal doubled twice, halved for the failure.
			assertFAV(t, before.Add(calc.Crystal.Major(20)), crystalOf(h, simtest.Alice))
		} else {
			successes++
			assert.Equal(t, 3, e.Level)
			assertFAV(t, before, crystalOf(h, simtest.Alice))
		}
		h.Height = slot.UnlockBlockIndex
	}
	assert.Positive(t, fails)
	assert.Positive(t, successes)
}
