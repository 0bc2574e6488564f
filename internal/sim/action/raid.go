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
	"chronicles.ai/internal/sim/state"
)

const TypeRaid = "raid"

// Raid challenges the world boss of the running season. The damage dealt is
// the score; it is taken off the shared boss HP, and the boss levels up
// when the HP runs out.
type Raid struct {
	Avatar    address.Address
	Equipment []uuid.UUID
	Runes     []RuneSlot
	PayNcg    bool
}

func (a *Raid) TypeID() string { return TypeRaid }

func (a *Raid) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar_address", address.ToValue(a.Avatar)),
		kv("equipment", uuidsValue(a.Equipment)),
		kv("runes", runesValue(a.Runes)),
		kv("pay_ncg", encoding.Bool(a.PayNcg)),
	)
}

func (a *Raid) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Avatar, err = addrField(m, "avatar_address"); err != nil {
		return err
	}
	if a.Equipment, err = uuidsField(m, "equipment"); err != nil {
		return err
	}
	if a.Runes, err = runesField(m, "runes"); err != nil {
		return err
	}
	a.PayNcg, err = m.Bool("pay_ncg")
	return err
}

func (a *Raid) Validate(ctx *Context) error {
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *Raid) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	c := ctx.Catalogs
	h := ctx.BlockHeight
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	row, ok := c.WorldBossAt(h)
	if !ok {
		return nil, errs.Validationf("no world boss season running").With("height", h)
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

	raider, found, err := model.LoadRaiderState(w, av.Address, row.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		if w, err = pay(w, ctx.Signer, address.RaidFees, calc.EntranceFee(av.Level, row.EntranceFee)); err != nil {
			return nil, err
		}
		raider = model.NewRaiderState(av.Address, row.ID)
		raider.RemainChallengeCount = c.Game.WorldBossChallengeCount
		raider.RefillBlockIndex = h
		if w, err = model.AppendRaider(w, row.ID, raider.Address); err != nil {
			return nil, err
		}
	} else {
		if h-raider.UpdatedBlockIndex < c.Game.WorldBossRequiredInterval {
			return nil, errs.Validationf("raid cooldown").
				With("last", raider.UpdatedBlockIndex).With("interval", c.Game.WorldBossRequiredInterval)
		}
		if calc.CanRefillChallenges(h, raider.RefillBlockIndex, row.StartedBlock, c.Game.DailyWorldBossInterval) {
			raider.RemainChallengeCount = c.Game.WorldBossChallengeCount
			raider.RefillBlockIndex = h
		}
	}
	if raider.RemainChallengeCount <= 0 {
		if w, err = a.buyChallenge(w, ctx, row, raider); err != nil {
			return nil, err
		}
	}

	boss, found, err := model.LoadWorldBossState(w, row.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		hp, ok := c.BossHP.Get(1)
		if !ok {
			return nil, errs.NotFoundf("no hp row for boss level 1")
		}
		boss = model.NewWorldBossState(row, hp)
	}

	mine, err := digestOf(ctx, w, av, a.Equipment, runeIDs(a.Runes))
	if err != nil {
		return nil, err
	}
	foe, err := battle.BossDigest(c, row.BossID, boss.Level)
	if err != nil {
		return nil, err
	}
	log := battle.NewSimulator(ctx.Random, battle.RaidConfig(ctx.Tuning.Battle)).Simulate(mine, foe)
	score := log.Damage[battle.Challenger]

	raider.Record(av, score, h)
	raider.LatestBossLevel = boss.Level
	if err := damageBoss(c, boss, score); err != nil {
		return nil, err
	}

	if rank := calc.RaidRank(row.BossID, score, c); rank >= 0 {
		rr, _ := c.BossReward(row.BossID, score)
		raider.LatestRewardRank = rank
		if w, err = mintReward(w, ctx.Signer, calc.Crystal.Major(rr.Crystal)); err != nil {
			return nil, err
		}
	}

	av.Touch(h)
	w = raider.Save(w)
	w = boss.Save(w)
	w = av.Save(w)
	return progressQuest(w, av, catalogs.QuestRaid, 1)
}

// buyChallenge spends gold on one extra challenge.
func (a *Raid) buyChallenge(w *state.World, ctx *Context, row catalogs.WorldBossRow, raider *model.RaiderState) (*state.World, error) {
	if !a.PayNcg {
		return nil, errs.Validationf("no challenges left").With("avatar", a.Avatar.Hex())
	}
	if raider.PurchaseCount >= row.MaxPurchaseCount {
		return nil, errs.Validationf("challenge purchase limit reached").With("limit", row.MaxPurchaseCount)
	}
	gold, err := model.LoadGoldCurrency(w)
	if err != nil {
		return nil, err
	}
	if w, err = pay(w, ctx.Signer, address.RaidFees, calc.RaidTicketPrice(row, raider.PurchaseCount, gold)); err != nil {
		return nil, err
	}
	raider.PurchaseCount++
	raider.RemainChallengeCount++
	return w, nil
}

// damageBoss subtracts damage and levels the boss up when its HP runs out.
// The level stops at the highest one the hp sheet defines.
func damageBoss(c *catalogs.Catalogs, boss *model.WorldBossState, damage int64) error {
	boss.CurrentHP -= damage
	if boss.CurrentHP > 0 {
		return nil
	}
	next := boss.Level + 1
	if _, ok := c.BossHP.Get(next); !ok {
		next = boss.Level
	}
	hp, ok := c.BossHP.Get(next)
	if !ok {
		return errs.NotFoundf("no hp row for boss level %d", next)
	}
	boss.Level = next
	boss.CurrentHP = hp.HP
	return nil
}
