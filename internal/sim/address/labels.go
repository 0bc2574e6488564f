package address

import "github.com/ethereum/go-ethereum/common"

// Derivation labels. Every label passed to Derive must be declared here.
const (
	LabelAvatar            = "avatar"
	LabelInventory         = "inventory"
	LabelWorldInformation  = "worldInformation"
	LabelQuestList         = "questList"
	LabelWorldIDs          = "world_ids"
	LabelRecipeIDs         = "recipe_ids"
	LabelStake             = "stake"
	LabelCombinationSlot   = "combination_slot"
	LabelArenaScore        = "arena_score"
	LabelArenaInformation  = "arena_information"
	LabelArenaParticipants = "arena_participants"
	LabelArenaAvatar       = "arena_avatar"
	LabelRaider            = "raider"
	LabelRaiderList        = "raider_list"
	LabelWorldBoss         = "world_boss"
	LabelPledge            = "pledge"
	LabelCollection        = "collection"
	LabelRune              = "rune"
	LabelRandomSkill       = "hack_and_slash_buff"
	LabelPendingActivation = "pending_activation"
	LabelOrder             = "order"
	LabelOrderDigest       = "order_digest"
	LabelShop              = "shop"
)

var Labels = []string{
	LabelAvatar,
	LabelInventory,
	LabelWorldInformation,
	LabelQuestList,
	LabelWorldIDs,
	LabelRecipeIDs,
	LabelStake,
	LabelCombinationSlot,
	LabelArenaScore,
	LabelArenaInformation,
	LabelArenaParticipants,
	LabelArenaAvatar,
	LabelRaider,
	LabelRaiderList,
	LabelWorldBoss,
	LabelPledge,
	LabelCollection,
	LabelRune,
	LabelRandomSkill,
	LabelPendingActivation,
	LabelOrder,
	LabelOrderDigest,
	LabelShop,
}

// Well-known addresses.
var (
	Admin             = common.HexToAddress("0x0000000000000000000000000000000000000001")
	GoldCurrency      = common.HexToAddress("0x0000000000000000000000000000000000000002")
	ActivatedAccounts = common.HexToAddress("0x0000000000000000000000000000000000000003")
	RewardMinter      = common.HexToAddress("0x0000000000000000000000000000000000000004")
	ArenaPool         = common.HexToAddress("0x0000000000000000000000000000000000000005")
	UnlockWorldFees   = common.HexToAddress("0x0000000000000000000000000000000000000006")
	UnlockRecipeFees  = common.HexToAddress("0x0000000000000000000000000000000000000007")
	EnhancementFees   = common.HexToAddress("0x0000000000000000000000000000000000000008")
	BuffGachaFees     = common.HexToAddress("0x0000000000000000000000000000000000000009")
	RaidFees          = common.HexToAddress("0x000000000000000000000000000000000000000a")
	WorldBossRoot     = common.HexToAddress("0x000000000000000000000000000000000000000b")
	ShopRoot          = common.HexToAddress("0x000000000000000000000000000000000000000c")
	MarketFees        = common.HexToAddress("0x000000000000000000000000000000000000000d")
)

var WellKnown = []Address{
	Admin,
	GoldCurrency,
	ActivatedAccounts,
	RewardMinter,
	ArenaPool,
	UnlockWorldFees,
	UnlockRecipeFees,
	EnhancementFees,
	BuffGachaFees,
	RaidFees,
	WorldBossRoot,
	ShopRoot,
	MarketFees,
}
