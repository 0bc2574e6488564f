// Package simtest drives actions through the engine for black-box tests.
package simtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/calc"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/engine"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
	"chronicles.ai/internal/sim/tuning"
)

// Test accounts. Alice, Bob and Carol start with gold, crystal and mead.
var (
	AdminSigner = address.Derive(address.Admin, "simtest_admin")
	GoldMinter  = address.Derive(address.Admin, "simtest_gold_minter")
	Alice       = address.Derive(address.Admin, "simtest_alice")
	Bob         = address.Derive(address.Admin, "simtest_bob")
	Carol       = address.Derive(address.Admin, "simtest_carol")

	Gold = state.NewCurrency("NCG", 2, GoldMinter)
)

const (
	StartingGold    = 10_000
	StartingCrystal = 100_000
	StartingMead    = 100
	AdminValidUntil = 1_000_000
)


// Harness is a small helper for driving a world through engine.Execute:
// - Step() encodes and executes one action, committing on success
// - Advance() moves the block height
// - Give*/Set* helpers install preconditions directly
type Harness struct {
	T      *testing.T
	Cats   *catalogs.Catalogs
	Engine *engine.Engine
	World  *state.World
	Height int64

	seq uint64
}

// ConfigDir finds the repository's configs/ directory by walking up from
// the package under test.
func ConfigDir(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		candidate := filepath.Join(dir, "configs")
		if _, err := os.Stat(filepath.Join(candidate, "game_config.yaml")); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("configs/ not found above %s", dir)
		}
		dir = parent
	}
}

func LoadCatalogs(t *testing.T) *catalogs.Catalogs {
	t.Helper()
	cats, err := catalogs.Load(ConfigDir(t))
	if err != nil {
		t.Fatalf("catalogs.Load: %v", err)
	}
	return cats
}

func NewHarness(t *testing.T, cats *catalogs.Catalogs) *Harness {
	t.Helper()
	return NewHarnessWithRegistry(t, cats, action.DefaultRegistry())
}

// NewHarnessWithRegistry is like NewHarness, but executes against reg.
func NewHarnessWithRegistry(t *testing.T, cats *catalogs.Catalogs, reg *action.Registry) *Harness {
	t.Helper()
	g := state.NewGenesis().
		SetState(address.Admin, model.AdminState{Admin: AdminSigner, ValidUntil: AdminValidUntil}.ToValue()).
		SetState(address.GoldCurrency, Gold.ToValue())
	for _, a := range []address.Address{Alice, Bob, Carol} {
		g.Credit(a, Gold.Major(StartingGold)).
			Credit(a, calc.Crystal.Major(StartingCrystal)).
			Credit(a, calc.Mead.Major(StartingMead))
	}
	return &Harness{
		T:      t,
		Cats:   cats,
		Engine: engine.New(reg, cats, tuning.Default(), zerolog.Nop()),
		World:  g.Build(),
		Height: 1,
	}
}

// NextTxID returns a fresh deterministic transaction id.
func (h *Harness) NextTxID() uuid.UUID {
	h.seq++
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("simtest-tx-%d", h.seq)))
}

// Input builds the engine input Step would use, without running it.
func (h *Harness) Input(signer address.Address, a action.Action) engine.Input {
	h.T.Helper()
	raw, err := h.Engine.Registry().Encode(a)
	if err != nil {
		h.T.Fatalf("encode %s: %v", a.TypeID(), err)
	}
	txID := h.NextTxID()
	return engine.Input{
		PreviousState: h.World,
		Action:        raw,
		Signer:        signer,
		BlockHeight:   h.Height,
		TxID:          txID,
		Seed:          int64(h.seq),
	}
}

// Step executes a as signer at the current height. The world advances only
// when the action succeeds.
func (h *Harness) Step(signer address.Address, a action.Action) (engine.Evaluation, error) {
	h.T.Helper()
	out, ev, err := h.Engine.Execute(context.Background(), h.Input(signer, a))
	if err == nil {
		h.World = out
	}
	return ev, err
}

// MustStep fails the test when a does not commit.
func (h *Harness) MustStep(signer address.Address, a action.Action) engine.Evaluation {
	h.T.Helper()
	ev, err := h.Step(signer, a)
	if err != nil {
		h.T.Fatalf("%s: %v", a.TypeID(), err)
	}
	return ev
}

func (h *Harness) Advance(blocks int64) { h.Height += blocks }

// CreateAvatar runs create_avatar for signer and returns the avatar address.
func (h *Harness) CreateAvatar(signer address.Address, index int, name string) address.Address {
	h.T.Helper()
	h.MustStep(signer, &action.CreateAvatar{Index: index, Name: name})
	return model.AvatarAddress(signer, index)
}

func (h *Harness) Avatar(a address.Address) *model.Avatar {
	h.T.Helper()
	av, err := model.LoadAvatar(h.World, a)
	if err != nil {
		h.T.Fatalf("LoadAvatar: %v", err)
	}
	return av
}

func (h *Harness) SaveAvatar(av *model.Avatar) { h.World = av.Save(h.World) }

func (h *Harness) Inventory(avatar address.Address) *model.Inventory {
	h.T.Helper()
	inv, err := model.LoadInventory(h.World, h.Avatar(avatar).InventoryAddress())
	if err != nil {
		h.T.Fatalf("LoadInventory: %v", err)
	}
	return inv
}

// GiveEquipment puts a new level-0 item of itemID into the avatar's inventory.
func (h *Harness) GiveEquipment(avatar address.Address, itemID int) uuid.UUID {
	h.T.Helper()
	row, ok := h.Cats.Equipment.Get(itemID)
	if !ok {
		h.T.Fatalf("unknown equipment %d", itemID)
	}
	h.seq++
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("simtest-item-%d", h.seq)))
	inv := h.Inventory(avatar)
	inv.AddEquipment(model.NewEquipment(id, row, 0))
	h.World = inv.Save(h.World)
	return id
}

// UpdateEquipment rewrites a held item in place.
func (h *Harness) UpdateEquipment(avatar address.Address, id uuid.UUID, f func(*model.Equipment)) {
	h.T.Helper()
	inv := h.Inventory(avatar)
	e, ok := inv.FindEquipment(id)
	if !ok {
		h.T.Fatalf("equipment %s not held", id)
	}
	f(&e)
	inv.ReplaceEquipment(e)
	h.World = inv.Save(h.World)
}

func (h *Harness) GiveMaterial(avatar address.Address, itemID int, n int64) {
	h.T.Helper()
	inv := h.Inventory(avatar)
	inv.AddMaterial(itemID, n)
	h.World = inv.Save(h.World)
}

// ClearStages marks every stage up to and including last as cleared.
func (h *Harness) ClearStages(avatar address.Address, last int) {
	h.T.Helper()
	wi, err := model.LoadWorldInformation(h.World, h.Avatar(avatar).WorldInformationAddress())
	if err != nil {
		h.T.Fatalf("LoadWorldInformation: %v", err)
	}
	for stage := 1; stage <= last; stage++ {
		if wi.IsStageCleared(stage) {
			continue
		}
		if err := wi.ClearStage(stage, h.Height); err != nil {
			h.T.Fatalf("ClearStage(%d): %v", stage, err)
		}
	}
	h.World = wi.Save(h.World)
}

// Mint issues amount through the currency's first minter.
func (h *Harness) Mint(to address.Address, amount state.FAV) {
	h.T.Helper()
	if !amount.Currency.HasMinters() {
		h.T.Fatalf("%s has no minters", amount.Currency.Ticker)
	}
	w, err := h.World.MintAsset(amount.Currency.Minters[0], to, amount)
	if err != nil {
		h.T.Fatalf("MintAsset: %v", err)
	}
	h.World = w
}

func (h *Harness) Balance(a address.Address, c state.Currency) state.FAV {
	return h.World.GetBalance(a, c)
}
