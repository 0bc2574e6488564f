package action_test

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/calc"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/simtest"
)

func TestTransferConservesSupply(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	before := h.World.Supply(simtest.Gold)

	h.MustStep(simtest.Alice, &action.TransferAsset{
		Sender:    simtest.Alice,
		Recipient: simtest.Bob,
		Amount:    simtest.Gold.Major(250),
		Memo:      "for the sword",
	})

	assert.Equal(t, 0, h.Balance(simtest.Alice, simtest.Gold).Cmp(simtest.Gold.Major(simtest.StartingGold-250)))
	assert.Equal(t, 0, h.Balance(simtest.Bob, simtest.Gold).Cmp(simtest.Gold.Major(simtest.StartingGold+250)))
	assert.Equal(t, 0, h.World.Supply(simtest.Gold).Cmp(before))
}

func TestTransferInsufficientBalanceLeavesStateEqual(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	before := h.World
	root := h.World.StateRootHex()

	ev, err := h.Step(simtest.Alice, &action.TransferAsset{
		Sender:    simtest.Alice,
		Recipient: simtest.Bob,
		Amount:    simtest.Gold.Major(simtest.StartingGold + 1),
	})
	require.True(t, errs.IsKind(err, errs.InsufficientBalance), "%v", err)
	assert.Same(t, before, h.World)
	assert.Equal(t, root, ev.OutputRoot)
	assert.Equal(t, string(errs.InsufficientBalance), ev.ErrorKind)
}

func TestTransferChecks(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	cases := []struct {
		name   string
		signer address.Address
		a      action.Action
		kind   errs.Kind
	}{
		{"signer is not sender", simtest.Bob,
			&action.TransferAsset{Sender: simtest.Alice, Recipient: simtest.Bob, Amount: simtest.Gold.Major(1)}, errs.Permission},
		{"self transfer", simtest.Alice,
			&action.TransferAsset{Sender: simtest.Alice, Recipient: simtest.Alice, Amount: simtest.Gold.Major(1)}, errs.Validation},
		{"zero amount", simtest.Alice,
			&action.TransferAsset{Sender: simtest.Alice, Recipient: simtest.Bob, Amount: simtest.Gold.Zero()}, errs.Validation},
		{"memo too long", simtest.Alice,
			&action.TransferAsset{Sender: simtest.Alice, Recipient: simtest.Bob, Amount: simtest.Gold.Major(1),
				Memo: strings.Repeat("m", action.MaxMemoLength+1)}, errs.Validation},
		{"recipient is minter", simtest.Alice,
			&action.TransferAsset{Sender: simtest.Alice, Recipient: simtest.GoldMinter, Amount: simtest.Gold.Major(1)}, errs.Validation},
		{"no recipients", simtest.Alice,
			&action.TransferAssets{Sender: simtest.Alice}, errs.Validation},
	}
	for _, tc := range cases {
		_, err := h.Step(tc.signer, tc.a)
		assert.Truef(t, errs.IsKind(err, tc.kind), "%s: %v", tc.name, err)
	}
}

func TestTransferAssetsIsAllOrNothing(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	before := h.World

	_, err := h.Step(simtest.Alice, &action.TransferAssets{
		Sender: simtest.Alice,
		Recipients: []action.Recipient{
			{Address: simtest.Bob, Amount: simtest.Gold.Major(10)},
			{Address: simtest.Carol, Amount: calc.Mead.Major(simtest.StartingMead + 1)},
		},
	})
	require.True(t, errs.IsKind(err, errs.InsufficientBalance), "%v", err)
	assert.Contains(t, err.Error(), "leg=1")
	assert.Same(t, before, h.World)

	h.MustStep(simtest.Alice, &action.TransferAssets{
		Sender: simtest.Alice,
		Recipients: []action.Recipient{
			{Address: simtest.Bob, Amount: simtest.Gold.Major(10)},
			{Address: simtest.Carol, Amount: calc.Mead.Major(3)},
		},
	})
	assert.Equal(t, 0, h.Balance(simtest.Bob, simtest.Gold).Cmp(simtest.Gold.Major(simtest.StartingGold+10)))
	assert.Equal(t, 0, h.Balance(simtest.Carol, calc.Mead).Cmp(calc.Mead.Major(simtest.StartingMead+3)))
}

func TestTransferAssetsRecipientLimit(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	legs := make([]action.Recipient, action.MaxTransferRecipients+1)
	for i := range legs {
		legs[i] = action.Recipient{
			Address: address.Derive(simtest.Bob, address.Label("leg", int64(i))),
			Amount:  simtest.Gold.Major(1),
		}
	}
	_, err := h.Step(simtest.Alice, &action.TransferAssets{Sender: simtest.Alice, Recipients: legs})
	assert.True(t, errs.IsKind(err, errs.CapacityExceeded), "%v", err)
}

func TestCreateAvatar(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	addr := h.CreateAvatar(simtest.Alice, 1, "Alice1")

	av := h.Avatar(addr)
	assert.Equal(t, simtest.Alice, av.Agent)
	assert.Equal(t, 1, av.Level)
	assert.Equal(t, h.Cats.Game.ActionPointMax, av.ActionPoint)

	agent, err := model.LoadAgent(h.World, simtest.Alice)
	require.NoError(t, err)
	assert.True(t, agent.Owns(addr))

	for i := 0; i < h.Cats.Game.CombinationSlotCount; i++ {
		slot, err := model.LoadCombinationSlot(h.World, addr, i)
		require.NoError(t, err)
		assert.True(t, slot.Available(h.Height))
	}

	_, err = h.Step(simtest.Alice, &action.CreateAvatar{Index: 1, Name: "Again"})
	assert.True(t, errs.IsKind(err, errs.Conflict), "%v", err)

	_, err = h.Step(simtest.Alice, &action.CreateAvatar{Index: model.AvatarSlots, Name: "Nope"})
	assert.True(t, errs.IsKind(err, errs.Validation), "%v", err)

	_, err = h.Step(simtest.Alice, &action.CreateAvatar{Index: 2, Name: "bad name!"})
	assert.True(t, errs.IsKind(err, errs.Validation), "%v", err)

	second := h.CreateAvatar(simtest.Alice, 2, "Alice2")
	agent, err = model.LoadAgent(h.World, simtest.Alice)
	require.NoError(t, err)
	assert.True(t, agent.Owns(addr))
	assert.True(t, agent.Owns(second))
}

func TestAvatarActionsRequireOwnership(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	addr := h.CreateAvatar(simtest.Alice, 0, "Alice")
	h.CreateAvatar(simtest.Bob, 0, "Bob")

	_, err := h.Step(simtest.Bob, &action.ChargeActionPoint{Avatar: addr})
	assert.True(t, errs.IsKind(err, errs.Permission), "%v", err)
}

func TestPledgeFlow(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))

	_, err := h.Step(simtest.Bob, &action.ApprovePledge{Patron: simtest.Alice})
	assert.True(t, errs.IsKind(err, errs.StateNotFound), "%v", err)

	h.MustStep(simtest.Alice, &action.RequestPledge{Agent: simtest.Bob, RefillMead: model.DefaultRefillMead})
	assert.Equal(t, 0, h.Balance(simtest.Bob, calc.Mead).Cmp(calc.Mead.Major(simtest.StartingMead+1)))

	_, err = h.Step(simtest.Carol, &action.RequestPledge{Agent: simtest.Bob, RefillMead: model.DefaultRefillMead})
	assert.True(t, errs.IsKind(err, errs.Conflict), "%v", err)

	_, err = h.Step(simtest.Bob, &action.ApprovePledge{Patron: simtest.Carol})
	assert.True(t, errs.IsKind(err, errs.Validation), "%v", err)

	h.MustStep(simtest.Bob, &action.ApprovePledge{Patron: simtest.Alice})
	contract, found, err := model.LoadPledge(h.World, simtest.Bob)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, contract.Approved)
	assert.Equal(t, simtest.Alice, contract.Patron)

	_, err = h.Step(simtest.Bob, &action.ApprovePledge{Patron: simtest.Alice})
	assert.True(t, errs.IsKind(err, errs.Conflict), "%v", err)
}

func TestRequestPledgeChecks(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	_, err := h.Step(simtest.Alice, &action.RequestPledge{Agent: simtest.Bob, RefillMead: model.DefaultRefillMead - 1})
	assert.True(t, errs.IsKind(err, errs.Validation), "%v", err)
	_, err = h.Step(simtest.Alice, &action.RequestPledge{Agent: simtest.Alice, RefillMead: model.DefaultRefillMead})
	assert.True(t, errs.IsKind(err, errs.Validation), "%v", err)
}

func TestCreatePledgeIsAdminOnly(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	a := &action.CreatePledge{Patron: simtest.Alice, Mead: 4, Agents: []address.Address{simtest.Bob, simtest.Carol}}

	_, err := h.Step(simtest.Alice, a)
	assert.True(t, errs.IsKind(err, errs.Permission), "%v", err)

	// The patron's mead is spent, so the patron must hold it.
	h.MustStep(simtest.AdminSigner, a)
	assert.Equal(t, 0, h.Balance(simtest.Alice, calc.Mead).Cmp(calc.Mead.Major(simtest.StartingMead-8)))
	for _, agent := range []address.Address{simtest.Bob, simtest.Carol} {
		c, found, err := model.LoadPledge(h.World, agent)
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, c.Approved)
	}

	dup := &action.CreatePledge{Patron: simtest.Alice, Mead: 4, Agents: []address.Address{simtest.Bob, simtest.Bob}}
	_, err = h.Step(simtest.AdminSigner, dup)
	assert.True(t, errs.IsKind(err, errs.Validation), "%v", err)

	h.Height = simtest.AdminValidUntil + 1
	_, err = h.Step(simtest.AdminSigner, a)
	assert.True(t, errs.IsKind(err, errs.Permission), "%v", err)
}

func TestActivateAccount(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	pub := crypto.FromECDSAPub(&key.PublicKey)
	nonce := []byte("invite-0001")

	_, err = h.Step(simtest.Alice, &action.CreatePendingActivation{Nonce: nonce, PublicKey: pub})
	assert.True(t, errs.IsKind(err, errs.Permission), "%v", err)

	h.MustStep(simtest.AdminSigner, &action.CreatePendingActivation{Nonce: nonce, PublicKey: pub})
	_, err = h.Step(simtest.AdminSigner, &action.CreatePendingActivation{Nonce: nonce, PublicKey: pub})
	assert.True(t, errs.IsKind(err, errs.Conflict), "%v", err)

	pending, err := model.PendingActivationAddress(pub)
	require.NoError(t, err)

	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	forged, err := crypto.Sign(crypto.Keccak256(nonce), other)
	require.NoError(t, err)
	_, err = h.Step(simtest.Bob, &action.ActivateAccount{PendingAddress: pending, Signature: forged})
	assert.True(t, errs.IsKind(err, errs.Validation), "%v", err)

	sig, err := crypto.Sign(crypto.Keccak256(nonce), key)
	require.NoError(t, err)
	h.MustStep(simtest.Bob, &action.ActivateAccount{PendingAddress: pending, Signature: sig})

	accounts, err := model.LoadActivatedAccounts(h.World)
	require.NoError(t, err)
	assert.True(t, accounts.Contains(simtest.Bob))
	_, ok := h.World.Get(pending)
	assert.False(t, ok)

	_, err = h.Step(simtest.Bob, &action.ActivateAccount{PendingAddress: pending, Signature: sig})
	assert.True(t, errs.IsKind(err, errs.StateNotFound), "%v", err)
}

func TestActivateAccountIsObsolete(t *testing.T) {
	h := simtest.NewHarness(t, simtest.LoadCatalogs(t))
	h.Height = action.ObsoleteV100080
	_, err := h.Step(simtest.Bob, &action.ActivateAccount{PendingAddress: simtest.Alice, Signature: []byte{1}})
	assert.True(t, errs.IsKind(err, errs.Obsolete), "%v", err)
}
