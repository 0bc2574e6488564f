// Package battle resolves fights between two character digests. Every random
// decision is drawn from the execution's rng in a fixed order per attack:
// hit roll, damage variance, critical roll, skill rolls, buff roll.
package battle

import (
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/rng"
	"chronicles.ai/internal/sim/tuning"
)

type Mode int

const (
	// ModePvP ends on a knockout or at MaxTurn, which the defender wins.
	ModePvP Mode = iota
	// ModeRaid ignores level difference when rolling hits and scores the
	// challenger by damage dealt.
	ModeRaid
)

type Config struct {
	Mode              Mode
	MaxTurn           int
	HPModifier        int64
	CriticalPermyriad int64
}

func ArenaConfig(t tuning.Battle) Config {
	return Config{Mode: ModePvP, MaxTurn: t.MaxTurn, HPModifier: t.ArenaHPModifier, CriticalPermyriad: t.CriticalPermyriad}
}

func RaidConfig(t tuning.Battle) Config {
	return Config{Mode: ModeRaid, MaxTurn: t.RaidMaxTurn, HPModifier: 1, CriticalPermyriad: t.CriticalPermyriad}
}

const (
	varianceMin = 90
	varianceMax = 111
)

type activeBuff struct {
	id        int
	remaining int
	mod       StatModifier
}

type fighter struct {
	side      Side
	digest    CharacterDigest
	maxHP     int64
	hp        int64
	cooldowns []int
	buffs     []activeBuff
}

func newFighter(side Side, d CharacterDigest, hpModifier int64) *fighter {
	if hpModifier <= 0 {
		hpModifier = 1
	}
	hp := d.Stats.HP * hpModifier
	if hp < 1 {
		hp = 1
	}
	return &fighter{side: side, digest: d, maxHP: hp, hp: hp, cooldowns: make([]int, len(d.Skills))}
}

func (f *fighter) alive() bool { return f.hp > 0 }

// stats are the digest stats with active buffs applied.
func (f *fighter) stats() Stats {
	if len(f.buffs) == 0 {
		return f.digest.Stats
	}
	mods := make([]StatModifier, 0, len(f.buffs))
	for _, b := range f.buffs {
		mods = append(mods, b.mod)
	}
	return ApplyModifiers(f.digest.Stats, mods)
}

// addBuff refreshes a buff already active instead of stacking it.
func (f *fighter) addBuff(b activeBuff) {
	for i := range f.buffs {
		if f.buffs[i].id == b.id {
			f.buffs[i] = b
			return
		}
	}
	f.buffs = append(f.buffs, b)
}

func (f *fighter) endTurn() {
	kept := f.buffs[:0]
	for _, b := range f.buffs {
		b.remaining--
		if b.remaining > 0 {
			kept = append(kept, b)
		}
	}
	f.buffs = kept
	for i := range f.cooldowns {
		if f.cooldowns[i] > 0 {
			f.cooldowns[i]--
		}
	}
}

// Simulator is single use: it owns the fight's rng for its lifetime.
type Simulator struct {
	cfg Config
	r   *rng.Random
}

func NewSimulator(r *rng.Random, cfg Config) *Simulator {
	return &Simulator{cfg: cfg, r: r}
}

// Simulate fights challenger against defender until one side drops or
// MaxTurn turns have elapsed.
func (s *Simulator) Simulate(challenger, defender CharacterDigest) *Log {
	fs := [2]*fighter{
		newFighter(Challenger, challenger, s.cfg.HPModifier),
		newFighter(Defender, defender, s.cfg.HPModifier),
	}
	log := &Log{}
	for turn := 1; turn <= s.cfg.MaxTurn; turn++ {
		log.Turns = turn
		first := fs[Challenger]
		if fs[Defender].stats().SPD > first.stats().SPD {
			first = fs[Defender]
		}
		for _, att := range [2]*fighter{first, fs[first.side.Other()]} {
			def := fs[att.side.Other()]
			s.attack(log, turn, att, def)
			if !def.alive() {
				log.add(Event{Turn: turn, Actor: def.side, Kind: EventDead})
				s.finish(log, fs)
				return log
			}
		}
		fs[Challenger].endTurn()
		fs[Defender].endTurn()
		log.add(Event{Turn: turn, Actor: Challenger, Kind: EventTurnEnd, Value: fs[Challenger].hp})
	}
	log.add(Event{Turn: log.Turns, Kind: EventTimeOver})
	s.finish(log, fs)
	return log
}

func (s *Simulator) finish(log *Log, fs [2]*fighter) {
	log.RemainingHP = [2]int64{fs[Challenger].hp, fs[Defender].hp}
	switch {
	case !fs[Defender].alive():
		log.Result = ResultWin
	case !fs[Challenger].alive():
		log.Result = ResultLose
	case s.cfg.Mode == ModeRaid:
		log.Result = ResultTimeOver
	default:
		log.Result = ResultLose
	}
}

func (s *Simulator) isHit(att, def *fighter, a, d Stats) bool {
	low := int64(s.r.Next(0, 100))
	if s.cfg.Mode == ModeRaid {
		return IsHitWithoutLevelCorrection(a.HIT, d.HIT, low)
	}
	return IsHit(int64(att.digest.Level), a.HIT, int64(def.digest.Level), d.HIT, low)
}

func (s *Simulator) attack(log *Log, turn int, att, def *fighter) {
	a, d := att.stats(), def.stats()
	if !s.isHit(att, def, a, d) {
		log.add(Event{Turn: turn, Actor: att.side, Kind: EventMiss})
		return
	}

	dmg := a.ATK - d.DEF
	if dmg < 1 {
		dmg = 1
	}
	dmg = dmg * int64(s.r.Next(varianceMin, varianceMax)) / 100

	critical := int64(s.r.Next(0, 100)) < a.CRI
	if critical {
		dmg = dmg * s.cfg.CriticalPermyriad / 10000
	}

	skill := s.rollSkill(att)
	if skill != nil {
		switch skill.Type {
		case catalogs.SkillAttack:
			dmg += dmg * skill.Power / 100
			log.add(Event{Turn: turn, Actor: att.side, Kind: EventSkill, SkillID: skill.ID})
		case catalogs.SkillHeal:
			heal := att.maxHP * skill.Power / 100
			if att.hp+heal > att.maxHP {
				heal = att.maxHP - att.hp
			}
			att.hp += heal
			log.add(Event{Turn: turn, Actor: att.side, Kind: EventHeal, Value: heal, SkillID: skill.ID})
		default:
			log.add(Event{Turn: turn, Actor: att.side, Kind: EventSkill, SkillID: skill.ID})
		}
		if skill.Buff != nil && s.r.Next(0, 100) < skill.Buff.Chance {
			target := att
			if skill.Buff.Target == catalogs.BuffEnemy {
				target = def
			}
			target.addBuff(activeBuff{id: skill.Buff.ID, remaining: skill.Buff.Duration, mod: ModifierFromDef(skill.Buff.Modifier)})
			log.add(Event{Turn: turn, Actor: att.side, Kind: EventBuff, BuffID: skill.Buff.ID, SkillID: skill.ID})
		}
	}

	if dmg < 1 {
		dmg = 1
	}
	if dmg > def.hp {
		dmg = def.hp
	}
	def.hp -= dmg
	log.Damage[att.side] += dmg
	log.add(Event{Turn: turn, Actor: att.side, Kind: EventAttack, Value: dmg, Critical: critical})
}

// rollSkill draws once per ready skill in id order and returns the first
// that fires, putting it on cooldown.
func (s *Simulator) rollSkill(att *fighter) *Skill {
	for i := range att.digest.Skills {
		if att.cooldowns[i] > 0 {
			continue
		}
		sk := &att.digest.Skills[i]
		if s.r.Next(0, 100) < sk.Chance {
			att.cooldowns[i] = sk.Cooldown + 1
			return sk
		}
	}
	return nil
}
