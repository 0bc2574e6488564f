package battle

import (
	"sort"

	"chronicles.ai/internal/sim/catalogs"
)

type Stats struct {
	HP  int64
	ATK int64
	DEF int64
	CRI int64
	HIT int64
	SPD int64
}

func (s Stats) Get(t catalogs.StatType) int64 {
	switch t {
	case catalogs.StatHP:
		return s.HP
	case catalogs.StatATK:
		return s.ATK
	case catalogs.StatDEF:
		return s.DEF
	case catalogs.StatCRI:
		return s.CRI
	case catalogs.StatHIT:
		return s.HIT
	case catalogs.StatSPD:
		return s.SPD
	}
	return 0
}

func (s *Stats) set(t catalogs.StatType, v int64) {
	switch t {
	case catalogs.StatHP:
		s.HP = v
	case catalogs.StatATK:
		s.ATK = v
	case catalogs.StatDEF:
		s.DEF = v
	case catalogs.StatCRI:
		s.CRI = v
	case catalogs.StatHIT:
		s.HIT = v
	case catalogs.StatSPD:
		s.SPD = v
	}
}

type StatModifier struct {
	Stat  catalogs.StatType
	Op    catalogs.ModifierOp
	Value int64
}

func ModifierFromDef(d catalogs.StatModifierDef) StatModifier {
	return StatModifier{Stat: d.Stat, Op: d.Op, Value: d.Value}
}

func statRank(t catalogs.StatType) int {
	for i, s := range catalogs.StatTypes {
		if s == t {
			return i
		}
	}
	return len(catalogs.StatTypes)
}

// ApplyModifiers adds every flat modifier first, then scales each stat by the
// sum of its percentages. Stats never drop below zero.
func ApplyModifiers(base Stats, mods []StatModifier) Stats {
	sorted := append([]StatModifier(nil), mods...)
	sort.SliceStable(sorted, func(i, j int) bool { return statRank(sorted[i].Stat) < statRank(sorted[j].Stat) })

	out := base
	pct := map[catalogs.StatType]int64{}
	for _, m := range sorted {
		switch m.Op {
		case catalogs.OpAdd:
			out.set(m.Stat, out.Get(m.Stat)+m.Value)
		case catalogs.OpPercentage:
			pct[m.Stat] += m.Value
		}
	}
	for _, t := range catalogs.StatTypes {
		v := out.Get(t)
		if p, ok := pct[t]; ok {
			v = v * (100 + p) / 100
		}
		if v < 0 {
			v = 0
		}
		out.set(t, v)
	}
	return out
}
