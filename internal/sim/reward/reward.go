// Package reward draws weighted entries from configuration tables.
package reward

import (
	"sort"

	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/rng"
)

// Entry is a candidate keyed by a sheet id. Entries with a non-positive
// weight or Locked set are never drawn.
type Entry struct {
	Key    int
	Weight int64
	Locked bool
}

// Select draws up to maxCount distinct keys. Candidates are ordered by key
// before drawing and each chosen entry leaves the pool, so the result
// depends only on the rng and the entry set. Keys come back in draw order.
// No draw is made when maxCount <= 0 or nothing is eligible.
func Select(r *rng.Random, entries []Entry, maxCount int) []int {
	if maxCount <= 0 {
		return nil
	}
	pool := make([]Entry, 0, len(entries))
	var total int64
	for _, e := range entries {
		if e.Weight <= 0 || e.Locked {
			continue
		}
		pool = append(pool, e)
		total += e.Weight
	}
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Key < pool[j].Key })

	var out []int
	for len(out) < maxCount && len(pool) > 0 {
		pick := r.Int63n(total)
		i := 0
		for ; i < len(pool)-1; i++ {
			if pick < pool[i].Weight {
				break
			}
			pick -= pool[i].Weight
		}
		out = append(out, pool[i].Key)
		total -= pool[i].Weight
		pool = append(pool[:i], pool[i+1:]...)
	}
	return out
}

type ItemReward struct {
	ItemID   int
	Quantity int64
}

// ArenaRewards draws count reward rows unlocked at level and rolls a
// quantity in [min, max] for each, in draw order. Quantities of the same
// item are merged; the result is sorted by item id.
func ArenaRewards(r *rng.Random, c *catalogs.Catalogs, level, count int) []ItemReward {
	entries := make([]Entry, 0, c.ArenaRewards.Len())
	for _, row := range c.ArenaRewards.Rows {
		entries = append(entries, Entry{Key: row.ID, Weight: row.Weight, Locked: row.RequiredLevel > level})
	}
	byItem := map[int]int64{}
	for _, id := range Select(r, entries, count) {
		row, _ := c.ArenaRewards.Get(id)
		byItem[row.ItemID] += int64(r.Next(row.Min, row.Max+1))
	}
	out := make([]ItemReward, 0, len(byItem))
	for id, q := range byItem {
		out = append(out, ItemReward{ItemID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out
}

const (
	NormalBuffCount   = 3
	AdvancedBuffCount = 4
)

// RandomBuffs draws the buff gacha. The result always holds at least one
// buff of rank A or better, S or better for the advanced gacha; when the
// draw misses that, the last pick is replaced by a draw among qualifying
// rows. Returned ids are random buff row ids in ascending order.
func RandomBuffs(r *rng.Random, c *catalogs.Catalogs, advanced bool) []int {
	count, floor := NormalBuffCount, catalogs.RankA
	if advanced {
		count, floor = AdvancedBuffCount, catalogs.RankS
	}
	entries := make([]Entry, 0, c.RandomBuffs.Len())
	for _, row := range c.RandomBuffs.Rows {
		entries = append(entries, Entry{Key: row.ID, Weight: row.Weight})
	}
	picked := Select(r, entries, count)

	qualifies := func(id int) bool {
		row, _ := c.RandomBuffs.Get(id)
		return row.Rank.Ordinal() <= floor.Ordinal()
	}
	ok := false
	for _, id := range picked {
		if qualifies(id) {
			ok = true
			break
		}
	}
	if !ok && len(picked) > 0 {
		taken := map[int]bool{}
		for _, id := range picked {
			taken[id] = true
		}
		var better []Entry
		for _, e := range entries {
			if qualifies(e.Key) {
				better = append(better, Entry{Key: e.Key, Weight: e.Weight, Locked: taken[e.Key]})
			}
		}
		if g := Select(r, better, 1); len(g) == 1 {
			picked[len(picked)-1] = g[0]
		}
	}
	sort.Ints(picked)
	return picked
}
