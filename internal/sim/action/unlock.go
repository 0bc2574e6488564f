package action

import (
	"sort"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/calc"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
)

const (
	TypeUnlockWorld           = "unlock_world"
	TypeUnlockEquipmentRecipe = "unlock_equipment_recipe"
)

// UnlockWorld pays crystal to open worlds whose previous world has been
// cleared up to the unlock stage. Ids are processed in ascending order, so
// one action may unlock a chain of worlds.
type UnlockWorld struct {
	Avatar   address.Address
	WorldIDs []int
}

func (a *UnlockWorld) TypeID() string { return TypeUnlockWorld }

func (a *UnlockWorld) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar_address", address.ToValue(a.Avatar)),
		kv("world_ids", encoding.Ints(a.WorldIDs)),
	)
}

func (a *UnlockWorld) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Avatar, err = addrField(m, "avatar_address"); err != nil {
		return err
	}
	a.WorldIDs, err = m.Ints("world_ids")
	return err
}

func (a *UnlockWorld) Validate(ctx *Context) error {
	if err := checkNonEmpty("world ids", len(a.WorldIDs)); err != nil {
		return err
	}
	if err := checkDistinct("world id", a.WorldIDs); err != nil {
		return err
	}
	for _, id := range a.WorldIDs {
		if id <= 1 || id == ctx.Catalogs.Game.EventWorldID {
			return errs.Validationf("world cannot be unlocked").With("world", id)
		}
	}
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *UnlockWorld) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	c := ctx.Catalogs
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	wi, err := model.LoadWorldInformation(w, av.WorldInformationAddress())
	if err != nil {
		return nil, err
	}
	unlockedAddr := model.UnlockedWorldsAddress(av.Address)
	unlocked, err := model.LoadIDs(w, unlockedAddr, model.DefaultUnlockedWorlds)
	if err != nil {
		return nil, err
	}

	ids := append([]int(nil), a.WorldIDs...)
	sort.Ints(ids)
	for _, id := range ids {
		if model.ContainsID(unlocked, id) {
			return nil, errs.Conflictf("world already unlocked").With("world", id)
		}
		row, ok := c.WorldUnlockFor(id)
		if !ok {
			return nil, errs.NotFoundf("no unlock row for world %d", id)
		}
		if !model.ContainsID(unlocked, row.WorldID) {
			return nil, errs.Validationf("previous world is locked").With("world", id).With("requires", row.WorldID)
		}
		if !wi.IsStageCleared(row.StageID) {
			return nil, errs.Validationf("required stage not cleared").With("world", id).With("stage", row.StageID)
		}
		unlocked = append(unlocked, id)
		if err := wi.UnlockWorld(id, ctx.BlockHeight); err != nil {
			return nil, err
		}
	}

	cost, err := calc.WorldUnlockCost(ids, c)
	if err != nil {
		return nil, err
	}
	if w, err = pay(w, ctx.Signer, address.UnlockWorldFees, cost); err != nil {
		return nil, err
	}
	w = wi.Save(w)
	return model.SaveIDs(w, unlockedAddr, unlocked), nil
}

// UnlockEquipmentRecipe pays crystal to open recipes. Within an equipment
// slot recipes open in unlock order, and each needs its unlock stage
// cleared.
type UnlockEquipmentRecipe struct {
	Avatar    address.Address
	RecipeIDs []int
}

func (a *UnlockEquipmentRecipe) TypeID() string { return TypeUnlockEquipmentRecipe }

func (a *UnlockEquipmentRecipe) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar_address", address.ToValue(a.Avatar)),
		kv("recipe_ids", encoding.Ints(a.RecipeIDs)),
	)
}

func (a *UnlockEquipmentRecipe) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Avatar, err = addrField(m, "avatar_address"); err != nil {
		return err
	}
	a.RecipeIDs, err = m.Ints("recipe_ids")
	return err
}

func (a *UnlockEquipmentRecipe) Validate(ctx *Context) error {
	if err := checkNonEmpty("recipe ids", len(a.RecipeIDs)); err != nil {
		return err
	}
	if err := checkDistinct("recipe id", a.RecipeIDs); err != nil {
		return err
	}
	for _, id := range a.RecipeIDs {
		if model.ContainsID(model.DefaultUnlockedRecipes, id) {
			return errs.Validationf("recipe is unlocked by default").With("recipe", id)
		}
	}
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *UnlockEquipmentRecipe) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	c := ctx.Catalogs
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	wi, err := model.LoadWorldInformation(w, av.WorldInformationAddress())
	if err != nil {
		return nil, err
	}
	unlockedAddr := model.UnlockedRecipesAddress(av.Address)
	unlocked, err := model.LoadIDs(w, unlockedAddr, model.DefaultUnlockedRecipes)
	if err != nil {
		return nil, err
	}

	requested := make(map[int]bool, len(a.RecipeIDs))
	for _, id := range a.RecipeIDs {
		if model.ContainsID(unlocked, id) {
			return nil, errs.Conflictf("recipe already unlocked").With("recipe", id)
		}
		requested[id] = true
	}

	// Walk the unlock order so a predecessor requested in the same action
	// counts as unlocked.
	prev := map[string]int{}
	for _, r := range c.RecipesInUnlockOrder() {
		slot := string(r.ItemSubType)
		before, hasBefore := prev[slot]
		prev[slot] = r.ID
		if !requested[r.ID] {
			continue
		}
		delete(requested, r.ID)
		if hasBefore && !model.ContainsID(unlocked, before) {
			return nil, errs.Validationf("previous recipe is locked").With("recipe", r.ID).With("requires", before)
		}
		if !wi.IsStageCleared(r.UnlockStage) {
			return nil, errs.Validationf("required stage not cleared").With("recipe", r.ID).With("stage", r.UnlockStage)
		}
		unlocked = append(unlocked, r.ID)
	}
	for _, id := range a.RecipeIDs {
		if requested[id] {
			return nil, errs.Validationf("recipe cannot be unlocked").With("recipe", id)
		}
	}

	cost, err := calc.RecipeUnlockCost(a.RecipeIDs, c)
	if err != nil {
		return nil, err
	}
	if w, err = pay(w, ctx.Signer, address.UnlockRecipeFees, cost); err != nil {
		return nil, err
	}
	return model.SaveIDs(w, unlockedAddr, unlocked), nil
}
