package catalogs

import "sort"

// WorldOfStage returns the world containing stage.
func (c *Catalogs) WorldOfStage(stage int) (WorldRow, bool) {
	for _, w := range c.Worlds.Rows {
		if w.StageBegin <= stage && stage <= w.StageEnd {
			return w, true
		}
	}
	return WorldRow{}, false
}

// WorldUnlockFor returns the row that unlocks worldID.
func (c *Catalogs) WorldUnlockFor(worldID int) (WorldUnlockRow, bool) {
	for _, r := range c.WorldUnlocks.Rows {
		if r.WorldIDToUnlock == worldID {
			return r, true
		}
	}
	return WorldUnlockRow{}, false
}

// RecipesInUnlockOrder groups recipes by equipment slot (in
// EquipmentSubTypes order) and sorts each group by unlock stage then id.
// Rows with an unlock stage of 999 are never unlockable and are left out.
func (c *Catalogs) RecipesInUnlockOrder() []EquipmentRecipeRow {
	rank := map[ItemSubType]int{}
	for i, st := range EquipmentSubTypes {
		rank[st] = i
	}
	out := make([]EquipmentRecipeRow, 0, len(c.Recipes.Rows))
	for _, r := range c.Recipes.Rows {
		if r.UnlockStage == 999 {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if rank[a.ItemSubType] != rank[b.ItemSubType] {
			return rank[a.ItemSubType] < rank[b.ItemSubType]
		}
		if a.UnlockStage != b.UnlockStage {
			return a.UnlockStage < b.UnlockStage
		}
		return a.ID < b.ID
	})
	return out
}

// StakingLevel is the highest level whose required gold is covered by staked.
// Zero means no level.
func (c *Catalogs) StakingLevel(staked int64) int {
	level := 0
	for _, r := range c.StakeRewards.Rows {
		if r.RequiredGold <= staked && r.Level > level {
			level = r.Level
		}
	}
	return level
}

func (c *Catalogs) EnhancementCost(st ItemSubType, grade, level int) (EnhancementCostRow, bool) {
	for _, r := range c.Enhancement.Rows {
		if r.ItemSubType == st && r.Grade == grade && r.Level == level {
			return r, true
		}
	}
	return EnhancementCostRow{}, false
}

// ArenaRoundAt returns the arena round open at height.
func (c *Catalogs) ArenaRoundAt(height int64) (ArenaRow, ArenaRound, bool) {
	for _, a := range c.Arenas.Rows {
		for _, r := range a.Rounds {
			if r.IsOpen(height) {
				return a, r, true
			}
		}
	}
	return ArenaRow{}, ArenaRound{}, false
}

func (c *Catalogs) ArenaRound(championshipID, round int) (ArenaRound, bool) {
	a, ok := c.Arenas.Get(championshipID)
	if !ok {
		return ArenaRound{}, false
	}
	for _, r := range a.Rounds {
		if r.Round == round {
			return r, true
		}
	}
	return ArenaRound{}, false
}

// WorldBossAt returns the world boss season running at height.
func (c *Catalogs) WorldBossAt(height int64) (WorldBossRow, bool) {
	for _, r := range c.WorldBosses.Rows {
		if r.StartedBlock <= height && height <= r.EndedBlock {
			return r, true
		}
	}
	return WorldBossRow{}, false
}

// BossCharacter returns the stats row for bossID at the highest defined level
// not above level.
func (c *Catalogs) BossCharacter(bossID, level int) (WorldBossCharacterRow, bool) {
	var best WorldBossCharacterRow
	found := false
	for _, r := range c.BossCharacters.Rows {
		if r.BossID != bossID || r.Level > level {
			continue
		}
		if !found || r.Level > best.Level {
			best, found = r, true
		}
	}
	return best, found
}

// BossReward returns the best rank whose minimum score is reached.
func (c *Catalogs) BossReward(bossID int, score int64) (WorldBossRewardRow, bool) {
	var best WorldBossRewardRow
	found := false
	for _, r := range c.BossRewards.Rows {
		if r.BossID != bossID || r.MinScore > score {
			continue
		}
		if !found || r.MinScore > best.MinScore {
			best, found = r, true
		}
	}
	return best, found
}

func (c *Catalogs) RuneOption(runeID, level int) (RuneOptionRow, bool) {
	return c.RuneOptions.Get(compositeKey(runeID, level))
}
