package catalogs

type ItemSubType string

const (
	SubTypeWeapon   ItemSubType = "Weapon"
	SubTypeArmor    ItemSubType = "Armor"
	SubTypeBelt     ItemSubType = "Belt"
	SubTypeNecklace ItemSubType = "Necklace"
	SubTypeRing     ItemSubType = "Ring"

	SubTypeApStone           ItemSubType = "ApStone"
	SubTypeEquipmentMaterial ItemSubType = "EquipmentMaterial"
	SubTypeMonsterPart       ItemSubType = "MonsterPart"
	SubTypeArenaMedal        ItemSubType = "ArenaMedal"
)

// EquipmentSubTypes is the canonical order of equipment slots.
var EquipmentSubTypes = []ItemSubType{SubTypeWeapon, SubTypeArmor, SubTypeBelt, SubTypeNecklace, SubTypeRing}

type StatType string

const (
	StatHP  StatType = "HP"
	StatATK StatType = "ATK"
	StatDEF StatType = "DEF"
	StatCRI StatType = "CRI"
	StatHIT StatType = "HIT"
	StatSPD StatType = "SPD"
)

var StatTypes = []StatType{StatHP, StatATK, StatDEF, StatCRI, StatHIT, StatSPD}

type ModifierOp string

const (
	OpAdd        ModifierOp = "Add"
	OpPercentage ModifierOp = "Percentage"
)

type StatModifierDef struct {
	Stat  StatType   `yaml:"stat" json:"stat"`
	Op    ModifierOp `yaml:"op" json:"op"`
	Value int64      `yaml:"value" json:"value"`
}

type GameConfig struct {
	ActionPointMax            int   `yaml:"action_point_max" json:"action_point_max"`
	GrindingActionPoint       int   `yaml:"grinding_action_point" json:"grinding_action_point"`
	ApStoneItemID             int   `yaml:"ap_stone_item_id" json:"ap_stone_item_id"`
	BattleArenaInterval       int64 `yaml:"battle_arena_interval" json:"battle_arena_interval"`
	DailyArenaInterval        int64 `yaml:"daily_arena_interval" json:"daily_arena_interval"`
	ArenaTicketsPerInterval   int   `yaml:"arena_tickets_per_interval" json:"arena_tickets_per_interval"`
	WorldBossRequiredInterval int64 `yaml:"world_boss_required_interval" json:"world_boss_required_interval"`
	DailyWorldBossInterval    int64 `yaml:"daily_world_boss_interval" json:"daily_world_boss_interval"`
	WorldBossChallengeCount   int   `yaml:"world_boss_challenge_count" json:"world_boss_challenge_count"`
	StakeRewardInterval       int64 `yaml:"stake_reward_interval" json:"stake_reward_interval"`
	CombinationSlotCount      int   `yaml:"combination_slot_count" json:"combination_slot_count"`
	EventWorldID              int   `yaml:"event_world_id" json:"event_world_id"`
}

type WorldRow struct {
	ID         int    `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	StageBegin int    `yaml:"stage_begin" json:"stage_begin"`
	StageEnd   int    `yaml:"stage_end" json:"stage_end"`
}

type WorldUnlockRow struct {
	ID              int   `yaml:"id" json:"id"`
	WorldID         int   `yaml:"world_id" json:"world_id"`
	StageID         int   `yaml:"stage_id" json:"stage_id"`
	WorldIDToUnlock int   `yaml:"world_id_to_unlock" json:"world_id_to_unlock"`
	RequiredCrystal int64 `yaml:"required_crystal" json:"required_crystal"`
}

type EquipmentItemRow struct {
	ID          int             `yaml:"id" json:"id"`
	ItemSubType ItemSubType     `yaml:"item_sub_type" json:"item_sub_type"`
	Grade       int             `yaml:"grade" json:"grade"`
	Stat        StatModifierDef `yaml:"stat" json:"stat"`
	SkillID     int             `yaml:"skill_id,omitempty" json:"skill_id,omitempty"`
}

type MaterialItemRow struct {
	ID          int         `yaml:"id" json:"id"`
	ItemSubType ItemSubType `yaml:"item_sub_type" json:"item_sub_type"`
	Grade       int         `yaml:"grade" json:"grade"`
}

type EquipmentRecipeRow struct {
	ID                int         `yaml:"id" json:"id"`
	ResultEquipmentID int         `yaml:"result_equipment_id" json:"result_equipment_id"`
	ItemSubType       ItemSubType `yaml:"item_sub_type" json:"item_sub_type"`
	UnlockStage       int         `yaml:"unlock_stage" json:"unlock_stage"`
	RequiredCrystal   int64       `yaml:"required_crystal" json:"required_crystal"`
}

type CrystalGrindingRow struct {
	ID            int   `yaml:"id" json:"id"`
	EnchantBaseID int   `yaml:"enchant_base_id" json:"enchant_base_id"`
	Crystal       int64 `yaml:"crystal" json:"crystal"`
}

type CrystalMultiplierRow struct {
	Level      int   `yaml:"level" json:"level"`
	Multiplier int64 `yaml:"multiplier" json:"multiplier"`
}

type StakeRewardType string

const (
	StakeRewardItem     StakeRewardType = "Item"
	StakeRewardCurrency StakeRewardType = "Currency"
)

type StakeRewardInfo struct {
	ItemID   int             `yaml:"item_id" json:"item_id"`
	Rate     int64           `yaml:"rate" json:"rate"`
	Type     StakeRewardType `yaml:"type" json:"type"`
	Ticker   string          `yaml:"ticker,omitempty" json:"ticker,omitempty"`
	Decimals int             `yaml:"decimals,omitempty" json:"decimals,omitempty"`
}

type StakeRewardRow struct {
	Level        int               `yaml:"level" json:"level"`
	RequiredGold int64             `yaml:"required_gold" json:"required_gold"`
	Rewards      []StakeRewardInfo `yaml:"rewards" json:"rewards"`
}

// EnhancementCostRow ratios and growths are in ten-thousandths.
type EnhancementCostRow struct {
	ID                 int         `yaml:"id" json:"id"`
	ItemSubType        ItemSubType `yaml:"item_sub_type" json:"item_sub_type"`
	Grade              int         `yaml:"grade" json:"grade"`
	Level              int         `yaml:"level" json:"level"`
	Cost               int64       `yaml:"cost" json:"cost"`
	GreatSuccessRatio  int         `yaml:"great_success_ratio" json:"great_success_ratio"`
	SuccessRatio       int         `yaml:"success_ratio" json:"success_ratio"`
	FailRatio          int         `yaml:"fail_ratio" json:"fail_ratio"`
	GreatSuccessGrowth int64       `yaml:"great_success_growth" json:"great_success_growth"`
	SuccessGrowth      int64       `yaml:"success_growth" json:"success_growth"`
	GreatSuccessBlocks int64       `yaml:"great_success_blocks" json:"great_success_blocks"`
	SuccessBlocks      int64       `yaml:"success_blocks" json:"success_blocks"`
	FailBlocks         int64       `yaml:"fail_blocks" json:"fail_blocks"`
}

type ArenaType string

const (
	ArenaOffSeason    ArenaType = "OffSeason"
	ArenaSeason       ArenaType = "Season"
	ArenaChampionship ArenaType = "Championship"
)

type ArenaRound struct {
	Round                          int       `yaml:"round" json:"round"`
	Type                           ArenaType `yaml:"type" json:"type"`
	StartBlock                     int64     `yaml:"start_block" json:"start_block"`
	EndBlock                       int64     `yaml:"end_block" json:"end_block"`
	RequiredMedalCount             int       `yaml:"required_medal_count" json:"required_medal_count"`
	EntranceFee                    int64     `yaml:"entrance_fee" json:"entrance_fee"`
	TicketPrice                    int64     `yaml:"ticket_price" json:"ticket_price"`
	AdditionalTicketPrice          int64     `yaml:"additional_ticket_price" json:"additional_ticket_price"`
	MaxPurchaseCount               int       `yaml:"max_purchase_count" json:"max_purchase_count"`
	MaxPurchaseCountDuringInterval int       `yaml:"max_purchase_count_during_interval" json:"max_purchase_count_during_interval"`
	MedalID                        int       `yaml:"medal_id" json:"medal_id"`
}

func (r ArenaRound) IsOpen(height int64) bool {
	return r.StartBlock <= height && height <= r.EndBlock
}

type ArenaRow struct {
	ID     int          `yaml:"id" json:"id"`
	Rounds []ArenaRound `yaml:"rounds" json:"rounds"`
}

type ArenaRewardRow struct {
	ID            int   `yaml:"id" json:"id"`
	ItemID        int   `yaml:"item_id" json:"item_id"`
	Weight        int64 `yaml:"weight" json:"weight"`
	Min           int   `yaml:"min" json:"min"`
	Max           int   `yaml:"max" json:"max"`
	RequiredLevel int   `yaml:"required_level" json:"required_level"`
}

type CharacterRow struct {
	ID    int   `yaml:"id" json:"id"`
	HP    int64 `yaml:"hp" json:"hp"`
	ATK   int64 `yaml:"atk" json:"atk"`
	DEF   int64 `yaml:"def" json:"def"`
	CRI   int64 `yaml:"cri" json:"cri"`
	HIT   int64 `yaml:"hit" json:"hit"`
	SPD   int64 `yaml:"spd" json:"spd"`
	LvHP  int64 `yaml:"lv_hp" json:"lv_hp"`
	LvATK int64 `yaml:"lv_atk" json:"lv_atk"`
	LvDEF int64 `yaml:"lv_def" json:"lv_def"`
	LvCRI int64 `yaml:"lv_cri" json:"lv_cri"`
	LvHIT int64 `yaml:"lv_hit" json:"lv_hit"`
	LvSPD int64 `yaml:"lv_spd" json:"lv_spd"`
}

type SkillType string

const (
	SkillAttack SkillType = "Attack"
	SkillHeal   SkillType = "Heal"
	SkillBuff   SkillType = "Buff"
)

type SkillRow struct {
	ID       int       `yaml:"id" json:"id"`
	Type     SkillType `yaml:"type" json:"type"`
	Power    int64     `yaml:"power" json:"power"`
	Chance   int       `yaml:"chance" json:"chance"`
	Cooldown int       `yaml:"cooldown" json:"cooldown"`
	BuffID   int       `yaml:"buff_id,omitempty" json:"buff_id,omitempty"`
}

type BuffTarget string

const (
	BuffSelf  BuffTarget = "Self"
	BuffEnemy BuffTarget = "Enemy"
)

type BuffRow struct {
	ID       int             `yaml:"id" json:"id"`
	Chance   int             `yaml:"chance" json:"chance"`
	Duration int             `yaml:"duration" json:"duration"`
	Target   BuffTarget      `yaml:"target" json:"target"`
	Modifier StatModifierDef `yaml:"modifier" json:"modifier"`
}

type WorldBossRow struct {
	ID                    int   `yaml:"id" json:"id"`
	BossID                int   `yaml:"boss_id" json:"boss_id"`
	StartedBlock          int64 `yaml:"started_block" json:"started_block"`
	EndedBlock            int64 `yaml:"ended_block" json:"ended_block"`
	EntranceFee           int64 `yaml:"entrance_fee" json:"entrance_fee"`
	TicketPrice           int64 `yaml:"ticket_price" json:"ticket_price"`
	AdditionalTicketPrice int64 `yaml:"additional_ticket_price" json:"additional_ticket_price"`
	MaxPurchaseCount      int   `yaml:"max_purchase_count" json:"max_purchase_count"`
}

type WorldBossCharacterRow struct {
	BossID   int   `yaml:"boss_id" json:"boss_id"`
	Level    int   `yaml:"level" json:"level"`
	ATK      int64 `yaml:"atk" json:"atk"`
	DEF      int64 `yaml:"def" json:"def"`
	CRI      int64 `yaml:"cri" json:"cri"`
	HIT      int64 `yaml:"hit" json:"hit"`
	SPD      int64 `yaml:"spd" json:"spd"`
	SkillIDs []int `yaml:"skill_ids" json:"skill_ids"`
}

type WorldBossHpRow struct {
	Level int   `yaml:"level" json:"level"`
	HP    int64 `yaml:"hp" json:"hp"`
}

type WorldBossRewardRow struct {
	BossID   int   `yaml:"boss_id" json:"boss_id"`
	Rank     int   `yaml:"rank" json:"rank"`
	MinScore int64 `yaml:"min_score" json:"min_score"`
	Crystal  int64 `yaml:"crystal" json:"crystal"`
}

type BuffGachaRow struct {
	StageID      int   `yaml:"stage_id" json:"stage_id"`
	MaxStar      int   `yaml:"max_star" json:"max_star"`
	NormalCost   int64 `yaml:"normal_cost" json:"normal_cost"`
	AdvancedCost int64 `yaml:"advanced_cost" json:"advanced_cost"`
}

type BuffRank string

const (
	RankS BuffRank = "S"
	RankA BuffRank = "A"
	RankB BuffRank = "B"
	RankC BuffRank = "C"
)

// Ordinal is lower for better ranks.
func (r BuffRank) Ordinal() int {
	switch r {
	case RankS:
		return 0
	case RankA:
		return 1
	case RankB:
		return 2
	default:
		return 3
	}
}

type RandomBuffRow struct {
	ID     int      `yaml:"id" json:"id"`
	Rank   BuffRank `yaml:"rank" json:"rank"`
	Weight int64    `yaml:"weight" json:"weight"`
	BuffID int      `yaml:"buff_id" json:"buff_id"`
}

type RuneOptionRow struct {
	RuneID int               `yaml:"rune_id" json:"rune_id"`
	Level  int               `yaml:"level" json:"level"`
	Stats  []StatModifierDef `yaml:"stats" json:"stats"`
}

type CollectionRow struct {
	ID    int               `yaml:"id" json:"id"`
	Stats []StatModifierDef `yaml:"stats" json:"stats"`
}

type QuestType string

const (
	QuestEnhancement QuestType = "ItemEnhancement"
	QuestGrinding    QuestType = "Grinding"
	QuestTrade       QuestType = "Trade"
	QuestArena       QuestType = "ArenaBattle"
	QuestRaid        QuestType = "Raid"
)

type QuestRow struct {
	ID   int       `yaml:"id" json:"id"`
	Type QuestType `yaml:"type" json:"type"`
	Goal int64     `yaml:"goal" json:"goal"`
}
