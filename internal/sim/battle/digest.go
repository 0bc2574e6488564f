package battle

import (
	"sort"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
)

type Skill struct {
	ID       int
	Type     catalogs.SkillType
	Power    int64
	Chance   int
	Cooldown int
	Buff     *catalogs.BuffRow
}

func skillFromRow(c *catalogs.Catalogs, row catalogs.SkillRow) Skill {
	s := Skill{ID: row.ID, Type: row.Type, Power: row.Power, Chance: row.Chance, Cooldown: row.Cooldown}
	if row.BuffID != 0 {
		if b, ok := c.Buffs.Get(row.BuffID); ok {
			s.Buff = &b
		}
	}
	return s
}

// CharacterDigest is everything a fight needs to know about one side.
type CharacterDigest struct {
	Address address.Address
	Level   int
	Stats   Stats
	// Skills are tried in id order.
	Skills []Skill
}

func sortSkills(s []Skill) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].ID < s[j].ID })
}

// AvatarDigest combines the character row, level growth, equipped items,
// runes and collection bonuses of an avatar.
func AvatarDigest(c *catalogs.Catalogs, av *model.Avatar, equipped []model.Equipment, runes []model.RuneState, collections []int) (CharacterDigest, error) {
	row, ok := c.Characters.Get(av.CharacterID)
	if !ok {
		return CharacterDigest{}, errs.NotFoundf("unknown character %d", av.CharacterID)
	}
	grow := int64(av.Level - 1)
	if grow < 0 {
		grow = 0
	}
	base := Stats{
		HP:  row.HP + row.LvHP*grow,
		ATK: row.ATK + row.LvATK*grow,
		DEF: row.DEF + row.LvDEF*grow,
		CRI: row.CRI + row.LvCRI*grow,
		HIT: row.HIT + row.LvHIT*grow,
		SPD: row.SPD + row.LvSPD*grow,
	}

	var mods []StatModifier
	var skills []Skill
	for _, e := range equipped {
		mods = append(mods, StatModifier{Stat: e.Stat, Op: catalogs.OpAdd, Value: e.StatValue})
		if e.SkillID == 0 {
			continue
		}
		sr, ok := c.Skills.Get(e.SkillID)
		if !ok {
			return CharacterDigest{}, errs.NotFoundf("unknown skill %d", e.SkillID).With("equipment", e.ID.String())
		}
		skills = append(skills, skillFromRow(c, sr))
	}
	for _, r := range runes {
		opt, ok := c.RuneOption(r.RuneID, r.Level)
		if !ok {
			return CharacterDigest{}, errs.NotFoundf("no option for rune %d level %d", r.RuneID, r.Level)
		}
		for _, d := range opt.Stats {
			mods = append(mods, ModifierFromDef(d))
		}
	}
	for _, id := range collections {
		col, ok := c.Collections.Get(id)
		if !ok {
			return CharacterDigest{}, errs.NotFoundf("unknown collection %d", id)
		}
		for _, d := range col.Stats {
			mods = append(mods, ModifierFromDef(d))
		}
	}
	sortSkills(skills)
	return CharacterDigest{
		Address: av.Address,
		Level:   av.Level,
		Stats:   ApplyModifiers(base, mods),
		Skills:  skills,
	}, nil
}

// BossDigest builds the world boss at level. HP comes from the hp sheet.
func BossDigest(c *catalogs.Catalogs, bossID, level int) (CharacterDigest, error) {
	row, ok := c.BossCharacter(bossID, level)
	if !ok {
		return CharacterDigest{}, errs.NotFoundf("unknown world boss %d", bossID)
	}
	hp, ok := c.BossHP.Get(level)
	if !ok {
		return CharacterDigest{}, errs.NotFoundf("no hp row for boss level %d", level)
	}
	d := CharacterDigest{
		Level: level,
		Stats: Stats{HP: hp.HP, ATK: row.ATK, DEF: row.DEF, CRI: row.CRI, HIT: row.HIT, SPD: row.SPD},
	}
	for _, id := range row.SkillIDs {
		sr, ok := c.Skills.Get(id)
		if !ok {
			return CharacterDigest{}, errs.NotFoundf("unknown skill %d", id).With("boss", bossID)
		}
		d.Skills = append(d.Skills, skillFromRow(c, sr))
	}
	sortSkills(d.Skills)
	return d, nil
}
