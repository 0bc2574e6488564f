package action

import (
	"github.com/google/uuid"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/battle"
	"chronicles.ai/internal/sim/calc"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/reward"
	"chronicles.ai/internal/sim/state"
)

const (
	TypeJoinArena   = "join_arena"
	TypeBattleArena = "battle_arena"
)

// openRound returns the round when it is open at height.
func openRound(c *catalogs.Catalogs, championship, round int, height int64) (catalogs.ArenaRound, error) {
	r, ok := c.ArenaRound(championship, round)
	if !ok {
		return r, errs.NotFoundf("arena round not found").With("championship", championship).With("round", round)
	}
	if !r.IsOpen(height) {
		return r, errs.Validationf("arena round is not open").
			With("championship", championship).With("round", round).
			With("start", r.StartBlock).With("end", r.EndBlock).With("height", height)
	}
	return r, nil
}

// medalCount sums the avatar's medals of every round of a championship.
func medalCount(c *catalogs.Catalogs, inv *model.Inventory, championship int) int64 {
	row, ok := c.Arenas.Get(championship)
	if !ok {
		return 0
	}
	seen := map[int]bool{}
	var n int64
	for _, r := range row.Rounds {
		if r.MedalID == 0 || seen[r.MedalID] {
			continue
		}
		seen[r.MedalID] = true
		n += inv.Count(r.MedalID)
	}
	return n
}

// JoinArena registers an avatar and its loadout for one arena round.
type JoinArena struct {
	Avatar       address.Address
	Championship int
	Round        int
	Equipment    []uuid.UUID
	Runes        []RuneSlot
}

func (a *JoinArena) TypeID() string { return TypeJoinArena }

func (a *JoinArena) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar_address", address.ToValue(a.Avatar)),
		kv("championship_id", encoding.Int(int64(a.Championship))),
		kv("round", encoding.Int(int64(a.Round))),
		kv("equipment", uuidsValue(a.Equipment)),
		kv("runes", runesValue(a.Runes)),
	)
}

func (a *JoinArena) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Avatar, err = addrField(m, "avatar_address"); err != nil {
		return err
	}
	if a.Championship, err = m.Int("championship_id"); err != nil {
		return err
	}
	if a.Round, err = m.Int("round"); err != nil {
		return err
	}
	if a.Equipment, err = uuidsField(m, "equipment"); err != nil {
		return err
	}
	a.Runes, err = runesField(m, "runes")
	return err
}

func (a *JoinArena) Validate(ctx *Context) error {
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *JoinArena) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	c := ctx.Catalogs
	h := ctx.BlockHeight
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	round, err := openRound(c, a.Championship, a.Round, h)
	if err != nil {
		return nil, err
	}
	participants, err := model.LoadArenaParticipants(w, a.Championship, a.Round)
	if err != nil {
		return nil, err
	}
	if participants.Contains(av.Address) {
		return nil, errs.Conflictf("already joined arena round").
			With("avatar", av.Address.Hex()).With("championship", a.Championship).With("round", a.Round)
	}
	inv, err := loadInventory(w, av)
	if err != nil {
		return nil, err
	}
	if _, err := checkLoadout(inv, a.Equipment, h); err != nil {
		return nil, err
	}
	if err := checkRunes(w, av.Address, a.Runes); err != nil {
		return nil, err
	}
	if round.Type == catalogs.ArenaChampionship {
		if have := medalCount(c, inv, a.Championship); have < int64(round.RequiredMedalCount) {
			return nil, errs.Validationf("not enough arena medals").With("have", have).With("need", round.RequiredMedalCount)
		}
	}
	if w, err = pay(w, ctx.Signer, address.ArenaPool, calc.EntranceFee(av.Level, round.EntranceFee)); err != nil {
		return nil, err
	}

	loadout := model.NewArenaAvatarState(av.Address)
	if prev, err := model.LoadArenaAvatarState(w, av.Address); err == nil {
		loadout = prev
	}
	loadout.Equipment = append([]uuid.UUID(nil), a.Equipment...)
	loadout.Runes = runeIDs(a.Runes)

	participants.Add(av.Address)
	w = participants.Save(w)
	w = loadout.Save(w)
	w = model.NewArenaScore(av.Address, a.Championship, a.Round).Save(w)
	w = model.NewArenaInformation(av.Address, a.Championship, a.Round, c.Game.ArenaTicketsPerInterval).Save(w)
	return w, nil
}

// BattleArena fights another participant of the same round. Every ticket is
// one simulated battle with its own reward draw. Only the off-season allows
// more than one ticket per action.
type BattleArena struct {
	Avatar       address.Address
	Enemy        address.Address
	Championship int
	Round        int
	Ticket       int
	Equipment    []uuid.UUID
	Runes        []RuneSlot
}

func (a *BattleArena) TypeID() string { return TypeBattleArena }

func (a *BattleArena) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar_address", address.ToValue(a.Avatar)),
		kv("enemy_avatar_address", address.ToValue(a.Enemy)),
		kv("championship_id", encoding.Int(int64(a.Championship))),
		kv("round", encoding.Int(int64(a.Round))),
		kv("ticket", encoding.Int(int64(a.Ticket))),
		kv("equipment", uuidsValue(a.Equipment)),
		kv("runes", runesValue(a.Runes)),
	)
}

func (a *BattleArena) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Avatar, err = addrField(m, "avatar_address"); err != nil {
		return err
	}
	if a.Enemy, err = addrField(m, "enemy_avatar_address"); err != nil {
		return err
	}
	if a.Championship, err = m.Int("championship_id"); err != nil {
		return err
	}
	if a.Round, err = m.Int("round"); err != nil {
		return err
	}
	if a.Ticket, err = m.Int("ticket"); err != nil {
		return err
	}
	if a.Equipment, err = uuidsField(m, "equipment"); err != nil {
		return err
	}
	a.Runes, err = runesField(m, "runes")
	return err
}

func (a *BattleArena) Validate(ctx *Context) error {
	if a.Avatar == a.Enemy {
		return errs.Validationf("cannot battle own avatar").With("avatar", a.Avatar.Hex())
	}
	if a.Ticket < 1 {
		return errs.Validationf("ticket count must be positive").With("ticket", a.Ticket)
	}
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *BattleArena) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	c := ctx.Catalogs
	h := ctx.BlockHeight
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	round, err := openRound(c, a.Championship, a.Round, h)
	if err != nil {
		return nil, err
	}
	if round.Type != catalogs.ArenaOffSeason && a.Ticket != 1 {
		return nil, errs.Validationf("only one ticket per battle outside the off-season").With("ticket", a.Ticket)
	}
	participants, err := model.LoadArenaParticipants(w, a.Championship, a.Round)
	if err != nil {
		return nil, err
	}
	for _, p := range []address.Address{av.Address, a.Enemy} {
		if !participants.Contains(p) {
			return nil, errs.NotFoundf("avatar has not joined the arena round").
				With("avatar", p.Hex()).With("championship", a.Championship).With("round", a.Round)
		}
	}

	loadout, err := model.LoadArenaAvatarState(w, av.Address)
	if err != nil {
		return nil, err
	}
	if loadout.LastBattleBlockIndex > 0 && h-loadout.LastBattleBlockIndex < c.Game.BattleArenaInterval {
		return nil, errs.Validationf("arena battle cooldown").
			With("last", loadout.LastBattleBlockIndex).With("interval", c.Game.BattleArenaInterval)
	}
	inv, err := loadInventory(w, av)
	if err != nil {
		return nil, err
	}
	if _, err := checkLoadout(inv, a.Equipment, h); err != nil {
		return nil, err
	}
	if err := checkRunes(w, av.Address, a.Runes); err != nil {
		return nil, err
	}
	loadout.Equipment = append([]uuid.UUID(nil), a.Equipment...)
	loadout.Runes = runeIDs(a.Runes)
	loadout.LastBattleBlockIndex = h

	myScore, err := model.LoadArenaScore(w, model.ArenaScoreAddress(av.Address, a.Championship, a.Round))
	if err != nil {
		return nil, err
	}
	enemyScore, err := model.LoadArenaScore(w, model.ArenaScoreAddress(a.Enemy, a.Championship, a.Round))
	if err != nil {
		return nil, err
	}
	if !calc.ValidateScoreDifference(round.Type, myScore.Score, enemyScore.Score) {
		return nil, errs.Validationf("score difference too large").
			With("mine", myScore.Score).With("enemy", enemyScore.Score).With("limit", calc.ScoreDifferenceLimit)
	}

	info, err := model.LoadArenaInformation(w, model.ArenaInformationAddress(av.Address, a.Championship, a.Round))
	if err != nil {
		return nil, err
	}
	if reset := calc.TicketResetCount(h, round.StartBlock, c.Game.DailyArenaInterval); reset > info.TicketResetCount {
		info.ResetTicket(reset, c.Game.ArenaTicketsPerInterval)
	}
	if w, err = a.spendTickets(w, ctx, round, info); err != nil {
		return nil, err
	}

	enemyAvatar, err := model.LoadAvatar(w, a.Enemy)
	if err != nil {
		return nil, err
	}
	enemyLoadout, err := model.LoadArenaAvatarState(w, a.Enemy)
	if err != nil {
		return nil, err
	}
	mine, err := digestOf(ctx, w, av, loadout.Equipment, loadout.Runes)
	if err != nil {
		return nil, err
	}
	theirs, err := digestOf(ctx, w, enemyAvatar, enemyLoadout.Equipment, enemyLoadout.Runes)
	if err != nil {
		return nil, err
	}

	sim := battle.NewSimulator(ctx.Random, battle.ArenaConfig(ctx.Tuning.Battle))
	rewardCount := calc.ArenaRewardCount(myScore.Score)
	var wins, losses int
	for i := 0; i < a.Ticket; i++ {
		if sim.Simulate(mine, theirs).Won() {
			wins++
		} else {
			losses++
		}
		for _, it := range reward.ArenaRewards(ctx.Random, c, av.Level, rewardCount) {
			inv.AddMaterial(it.ItemID, it.Quantity)
		}
	}
	if round.Type != catalogs.ArenaOffSeason && wins > 0 {
		inv.AddMaterial(round.MedalID, int64(wins))
	}

	win, defeat, enemyLoss := calc.ArenaScores(myScore.Score, enemyScore.Score)
	myScore.AddScore(win*int64(wins) + defeat*int64(losses))
	enemyScore.AddScore(enemyLoss * int64(wins))
	info.UpdateRecord(wins, losses)

	av.Touch(h)
	w = myScore.Save(w)
	w = enemyScore.Save(w)
	w = info.Save(w)
	w = loadout.Save(w)
	w = inv.Save(w)
	w = av.Save(w)
	return progressQuest(w, av, catalogs.QuestArena, int64(a.Ticket))
}

// spendTickets uses held tickets, or buys a single ticket with gold when
// none are left.
func (a *BattleArena) spendTickets(w *state.World, ctx *Context, round catalogs.ArenaRound, info *model.ArenaInformation) (*state.World, error) {
	if info.Ticket >= a.Ticket {
		return w, info.UseTicket(a.Ticket)
	}
	if a.Ticket > 1 {
		return nil, errs.Validationf("not enough arena tickets").With("have", info.Ticket).With("need", a.Ticket)
	}
	if info.PurchasedDuringInterval >= round.MaxPurchaseCountDuringInterval {
		return nil, errs.Validationf("ticket purchase limit reached for this interval").
			With("limit", round.MaxPurchaseCountDuringInterval)
	}
	gold, err := model.LoadGoldCurrency(w)
	if err != nil {
		return nil, err
	}
	price := calc.TicketPrice(round.TicketPrice, round.AdditionalTicketPrice, info.PurchasedTicketCount, gold)
	if err := info.BuyTicket(round.MaxPurchaseCount); err != nil {
		return nil, err
	}
	info.PurchasedDuringInterval++
	return pay(w, ctx.Signer, address.ArenaPool, price)
}
