// Package catalogs loads the read-only configuration tables ("sheets") that
// actions and calculators consult. Sheets are YAML files in the config
// directory, validated against an embedded JSON schema and digested so a
// replay can prove it used the same tables.
package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Catalogs struct {
	Game GameConfig

	Worlds             Sheet[WorldRow]
	WorldUnlocks       Sheet[WorldUnlockRow]
	Equipment          Sheet[EquipmentItemRow]
	Materials          Sheet[MaterialItemRow]
	Recipes            Sheet[EquipmentRecipeRow]
	Grinding           Sheet[CrystalGrindingRow]
	CrystalMultipliers Sheet[CrystalMultiplierRow]
	StakeRewards       Sheet[StakeRewardRow]
	Enhancement        Sheet[EnhancementCostRow]
	Arenas             Sheet[ArenaRow]
	ArenaRewards       Sheet[ArenaRewardRow]
	Characters         Sheet[CharacterRow]
	Skills             Sheet[SkillRow]
	Buffs              Sheet[BuffRow]
	WorldBosses        Sheet[WorldBossRow]
	BossCharacters     Sheet[WorldBossCharacterRow]
	BossHP             Sheet[WorldBossHpRow]
	BossRewards        Sheet[WorldBossRewardRow]
	BuffGacha          Sheet[BuffGachaRow]
	RandomBuffs        Sheet[RandomBuffRow]
	RuneOptions        Sheet[RuneOptionRow]
	Collections        Sheet[CollectionRow]
	Quests             Sheet[QuestRow]

	// Digests maps file name to the SHA-256 of its bytes; Digest covers all of them.
	Digests map[string]string
	Digest  string
}

// Sheet keeps rows in file order and indexes them by key.
type Sheet[R any] struct {
	Rows   []R
	Digest string
	byKey  map[int]int
}

func (s *Sheet[R]) Get(key int) (R, bool) {
	i, ok := s.byKey[key]
	if !ok {
		var zero R
		return zero, false
	}
	return s.Rows[i], true
}

func (s *Sheet[R]) Len() int { return len(s.Rows) }

// Keys returns every key in ascending order.
func (s *Sheet[R]) Keys() []int {
	out := make([]int, 0, len(s.byKey))
	for k := range s.byKey {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// NewSheet indexes rows by key. Duplicate keys are an error.
func NewSheet[R any](name string, rows []R, key func(R) int) (Sheet[R], error) {
	s := Sheet[R]{Rows: rows, byKey: make(map[int]int, len(rows))}
	for i, r := range rows {
		k := key(r)
		if _, dup := s.byKey[k]; dup {
			return s, fmt.Errorf("%s: duplicate key %d", name, k)
		}
		s.byKey[k] = i
	}
	return s, nil
}

func compositeKey(a, b int) int { return a<<20 | b }

type loader struct {
	dir     string
	v       *validator
	digests map[string]string
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (l *loader) read(name string, out any) error {
	raw, err := os.ReadFile(filepath.Join(l.dir, name))
	if err != nil {
		return err
	}
	l.digests[name] = sha256Hex(raw)
	if err := l.v.validate(strings.TrimSuffix(name, ".yaml"), raw); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func loadSheet[R any](l *loader, name string, out *Sheet[R], key func(R) int) error {
	var rows []R
	if err := l.read(name, &rows); err != nil {
		return err
	}
	s, err := NewSheet(name, rows, key)
	if err != nil {
		return err
	}
	s.Digest = l.digests[name]
	*out = s
	return nil
}

func Load(configDir string) (*Catalogs, error) {
	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	l := &loader{dir: configDir, v: v, digests: map[string]string{}}
	var c Catalogs

	if err := l.read("game_config.yaml", &c.Game); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "worlds.yaml", &c.Worlds, func(r WorldRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "world_unlock.yaml", &c.WorldUnlocks, func(r WorldUnlockRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "equipment_items.yaml", &c.Equipment, func(r EquipmentItemRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "material_items.yaml", &c.Materials, func(r MaterialItemRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "equipment_recipes.yaml", &c.Recipes, func(r EquipmentRecipeRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "crystal_grinding.yaml", &c.Grinding, func(r CrystalGrindingRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "crystal_multiplier.yaml", &c.CrystalMultipliers, func(r CrystalMultiplierRow) int { return r.Level }); err != nil {
		return nil, err
	}
	if err := loadStakeRewards(l, &c.StakeRewards); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "enhancement_costs.yaml", &c.Enhancement, func(r EnhancementCostRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "arena.yaml", &c.Arenas, func(r ArenaRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "arena_rewards.yaml", &c.ArenaRewards, func(r ArenaRewardRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "characters.yaml", &c.Characters, func(r CharacterRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "skills.yaml", &c.Skills, func(r SkillRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "buffs.yaml", &c.Buffs, func(r BuffRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "world_bosses.yaml", &c.WorldBosses, func(r WorldBossRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "world_boss_characters.yaml", &c.BossCharacters, func(r WorldBossCharacterRow) int { return compositeKey(r.BossID, r.Level) }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "world_boss_hp.yaml", &c.BossHP, func(r WorldBossHpRow) int { return r.Level }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "world_boss_rewards.yaml", &c.BossRewards, func(r WorldBossRewardRow) int { return compositeKey(r.BossID, r.Rank) }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "buff_gacha.yaml", &c.BuffGacha, func(r BuffGachaRow) int { return r.StageID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "random_buffs.yaml", &c.RandomBuffs, func(r RandomBuffRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "rune_options.yaml", &c.RuneOptions, func(r RuneOptionRow) int { return compositeKey(r.RuneID, r.Level) }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "collections.yaml", &c.Collections, func(r CollectionRow) int { return r.ID }); err != nil {
		return nil, err
	}
	if err := loadSheet(l, "quests.yaml", &c.Quests, func(r QuestRow) int { return r.ID }); err != nil {
		return nil, err
	}

	if err := c.check(); err != nil {
		return nil, err
	}
	c.Digests = l.digests
	c.Digest = combinedDigest(l.digests)
	return &c, nil
}

// loadStakeRewards merges rows that share a level: their reward lists are
// concatenated in file order.
func loadStakeRewards(l *loader, out *Sheet[StakeRewardRow]) error {
	const name = "stake_rewards.yaml"
	var rows []StakeRewardRow
	if err := l.read(name, &rows); err != nil {
		return err
	}
	var merged []StakeRewardRow
	at := map[int]int{}
	for _, r := range rows {
		if i, ok := at[r.Level]; ok {
			if merged[i].RequiredGold != r.RequiredGold {
				return fmt.Errorf("%s: level %d has conflicting required_gold", name, r.Level)
			}
			merged[i].Rewards = append(merged[i].Rewards, r.Rewards...)
			continue
		}
		at[r.Level] = len(merged)
		merged = append(merged, r)
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Level < merged[j].Level })
	s, err := NewSheet(name, merged, func(r StakeRewardRow) int { return r.Level })
	if err != nil {
		return err
	}
	s.Digest = l.digests[name]
	*out = s
	return nil
}

// check verifies references between sheets.
func (c *Catalogs) check() error {
	for _, r := range c.WorldUnlocks.Rows {
		if _, ok := c.Worlds.Get(r.WorldIDToUnlock); !ok {
			return fmt.Errorf("world_unlock.yaml: row %d unlocks unknown world %d", r.ID, r.WorldIDToUnlock)
		}
	}
	for _, r := range c.Recipes.Rows {
		if _, ok := c.Equipment.Get(r.ResultEquipmentID); !ok {
			return fmt.Errorf("equipment_recipes.yaml: row %d yields unknown equipment %d", r.ID, r.ResultEquipmentID)
		}
	}
	for _, r := range c.Skills.Rows {
		if r.BuffID == 0 {
			continue
		}
		if _, ok := c.Buffs.Get(r.BuffID); !ok {
			return fmt.Errorf("skills.yaml: skill %d references unknown buff %d", r.ID, r.BuffID)
		}
	}
	for _, r := range c.RandomBuffs.Rows {
		if _, ok := c.Buffs.Get(r.BuffID); !ok {
			return fmt.Errorf("random_buffs.yaml: row %d references unknown buff %d", r.ID, r.BuffID)
		}
	}
	for _, r := range c.ArenaRewards.Rows {
		if r.Min > r.Max {
			return fmt.Errorf("arena_rewards.yaml: row %d has min > max", r.ID)
		}
	}
	for _, r := range c.Enhancement.Rows {
		if r.GreatSuccessRatio+r.SuccessRatio+r.FailRatio != 10000 {
			return fmt.Errorf("enhancement_costs.yaml: row %d ratios do not sum to 10000", r.ID)
		}
	}
	if _, ok := c.Materials.Get(c.Game.ApStoneItemID); !ok {
		return fmt.Errorf("game_config.yaml: unknown ap_stone_item_id %d", c.Game.ApStoneItemID)
	}
	return nil
}

func combinedDigest(digests map[string]string) string {
	names := make([]string, 0, len(digests))
	for n := range digests {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte(':')
		b.WriteString(digests[n])
		b.WriteByte('\n')
	}
	return sha256Hex([]byte(b.String()))
}
