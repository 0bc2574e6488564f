package action

import (
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
)

func requireSigner(ctx *Context, required address.Address) error {
	if ctx.Signer != required {
		return errs.Permissionf("signer is not authorized").
			With("required", required.Hex()).
			With("actual", ctx.Signer.Hex())
	}
	return nil
}

// requireAdmin checks the signer against the admin state and its validity.
func requireAdmin(ctx *Context) error {
	admin, err := model.LoadAdminState(ctx.PreviousState)
	if err != nil {
		return err
	}
	if ctx.BlockHeight > admin.ValidUntil {
		return errs.Permissionf("admin authority expired").With("validUntil", admin.ValidUntil).With("height", ctx.BlockHeight)
	}
	return requireSigner(ctx, admin.Admin)
}

// loadOwnedAvatar loads the signer's agent and one of its avatars.
func loadOwnedAvatar(ctx *Context, w *state.World, avatar address.Address) (*model.Agent, *model.Avatar, error) {
	agent, err := model.LoadAgent(w, ctx.Signer)
	if errs.IsKind(err, errs.StateNotFound) {
		// A signer without an agent may still name an existing avatar; that
		// is a permission failure, not a missing state.
		av, aerr := model.LoadAvatar(w, avatar)
		if aerr != nil {
			return nil, nil, aerr
		}
		return nil, nil, errs.Permissionf("avatar is not owned by signer").
			With("required", av.Agent.Hex()).
			With("actual", ctx.Signer.Hex())
	}
	if err != nil {
		return nil, nil, err
	}
	if !agent.Owns(avatar) {
		return nil, nil, errs.Permissionf("avatar is not owned by signer").
			With("avatar", avatar.Hex()).
			With("actual", ctx.Signer.Hex())
	}
	av, err := model.LoadAvatar(w, avatar)
	if err != nil {
		return nil, nil, err
	}
	if av.Agent != ctx.Signer {
		return nil, nil, errs.Permissionf("avatar is not owned by signer").
			With("required", av.Agent.Hex()).
			With("actual", ctx.Signer.Hex())
	}
	return agent, av, nil
}

func checkCount(what string, n, max int) error {
	if n > max {
		return errs.Capacityf("too many %s", what).With("count", n).With("max", max)
	}
	return nil
}

func checkNonEmpty(what string, n int) error {
	if n == 0 {
		return errs.Validationf("%s must not be empty", what)
	}
	return nil
}

func checkDistinct[T comparable](what string, xs []T) error {
	seen := make(map[T]bool, len(xs))
	for _, x := range xs {
		if seen[x] {
			return errs.Validationf("duplicate %s", what).With("value", x)
		}
		seen[x] = true
	}
	return nil
}

// pay transfers amount unless it is zero.
func pay(w *state.World, from, to address.Address, amount state.FAV) (*state.World, error) {
	if amount.IsZero() {
		return w, nil
	}
	return w.TransferAsset(from, to, amount)
}

// mintReward issues amount under the reward minter authority unless it is
// zero.
func mintReward(w *state.World, to address.Address, amount state.FAV) (*state.World, error) {
	if amount.IsZero() {
		return w, nil
	}
	return w.MintAsset(address.RewardMinter, to, amount)
}

func progressQuest(w *state.World, av *model.Avatar, t catalogs.QuestType, n int64) (*state.World, error) {
	if n <= 0 {
		return w, nil
	}
	ql, err := model.LoadQuestList(w, av.QuestListAddress())
	if err != nil {
		return nil, err
	}
	ql.Update(t, n)
	return ql.Save(w), nil
}

func loadInventory(w *state.World, av *model.Avatar) (*model.Inventory, error) {
	return model.LoadInventory(w, av.InventoryAddress())
}
