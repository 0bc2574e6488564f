package action

import (
	"regexp"

	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
)

const (
	TypeCreateAvatar = "create_avatar"

	DefaultCharacterID = 100010
)

var avatarNamePattern = regexp.MustCompile(`^[0-9A-Za-z]{2,20}$`)

// CreateAvatar creates the signer's agent on first use and an avatar in one
// of its slots, with an empty inventory, fresh world progress, a quest list
// and combination slots.
type CreateAvatar struct {
	Index int
	Name  string
}

func (a *CreateAvatar) TypeID() string { return TypeCreateAvatar }

func (a *CreateAvatar) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("index", encoding.Int(int64(a.Index))),
		kv("name", encoding.Text(a.Name)),
	)
}

func (a *CreateAvatar) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Index, err = m.Int("index"); err != nil {
		return err
	}
	a.Name, err = m.Text("name")
	return err
}

func (a *CreateAvatar) Validate(ctx *Context) error {
	if a.Index < 0 || a.Index >= model.AvatarSlots {
		return errs.Validationf("avatar index out of range").With("index", a.Index).With("slots", model.AvatarSlots)
	}
	if !avatarNamePattern.MatchString(a.Name) {
		return errs.Validationf("invalid avatar name").With("name", a.Name)
	}
	return nil
}

func (a *CreateAvatar) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	agent := model.NewAgent(ctx.Signer)
	if _, ok := w.Get(ctx.Signer); ok {
		existing, err := model.LoadAgent(w, ctx.Signer)
		if err != nil {
			return nil, err
		}
		agent = existing
	}
	if taken, ok := agent.Avatars[a.Index]; ok {
		return nil, errs.Conflictf("avatar slot already taken").With("index", a.Index).With("avatar", taken.Hex())
	}
	avatarAddr := model.AvatarAddress(ctx.Signer, a.Index)
	if _, ok := w.Get(avatarAddr); ok {
		return nil, errs.Conflictf("avatar already exists").With("avatar", avatarAddr.Hex())
	}

	c := ctx.Catalogs
	av := &model.Avatar{
		Address:     avatarAddr,
		Agent:       ctx.Signer,
		Name:        a.Name,
		CharacterID: DefaultCharacterID,
		Level:       1,
		ActionPoint: c.Game.ActionPointMax,
		BlockIndex:  ctx.BlockHeight,
		UpdatedAt:   ctx.BlockHeight,
	}
	agent.Avatars[a.Index] = avatarAddr

	w = agent.Save(w)
	w = av.Save(w)
	w = model.NewInventory(av.InventoryAddress()).Save(w)
	w = model.NewWorldInformation(av.WorldInformationAddress(), c.Worlds.Rows, ctx.BlockHeight).Save(w)
	w = model.NewQuestList(av.QuestListAddress(), c.Quests.Rows).Save(w)
	for i := 0; i < c.Game.CombinationSlotCount; i++ {
		w = model.NewCombinationSlot(avatarAddr, i).Save(w)
	}
	return w, nil
}
