package model

import (
	"sort"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/state"
)

var (
	DefaultUnlockedWorlds  = []int{1, 10001}
	DefaultUnlockedRecipes = []int{1}
)

func UnlockedWorldsAddress(avatar address.Address) address.Address {
	return address.Derive(avatar, address.LabelWorldIDs)
}

func UnlockedRecipesAddress(avatar address.Address) address.Address {
	return address.Derive(avatar, address.LabelRecipeIDs)
}

// LoadIDs reads a sorted id list, falling back to def when absent.
func LoadIDs(w *state.World, a address.Address, def []int) ([]int, error) {
	v, ok := w.Get(a)
	if !ok {
		return append([]int(nil), def...), nil
	}
	return encoding.AsInts(v)
}

func SaveIDs(w *state.World, a address.Address, ids []int) *state.World {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	return w.Set(a, encoding.Ints(sorted))
}

func ContainsID(ids []int, id int) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
