package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveIsPure(t *testing.T) {
	parent := Admin
	a := Derive(parent, LabelInventory)
	b := Derive(parent, LabelInventory)
	assert.Equal(t, a, b)
	assert.NotEqual(t, parent, a)
	assert.NotEqual(t, a, Derive(parent, LabelQuestList))
	assert.NotEqual(t, a, Derive(GoldCurrency, LabelInventory))
}

func TestLabelsDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, l := range Labels {
		require.NotEmpty(t, l)
		require.False(t, seen[l], "duplicate label %q", l)
		seen[l] = true
	}
}

func TestDerivedAddressesDoNotCollide(t *testing.T) {
	seen := map[Address]string{}
	for _, w := range WellKnown {
		seen[w] = w.Hex()
	}
	require.Len(t, seen, len(WellKnown))

	parent, err := Parse("0x1c2ae97380CFB4F732049e454F6D9A25D4967c6f")
	require.NoError(t, err)
	for _, l := range Labels {
		for _, full := range []string{l, Label(l, 1), Label(l, 1, 2)} {
			d := Derive(parent, full)
			prev, dup := seen[d]
			require.False(t, dup, "%s collides with %s", full, prev)
			seen[d] = full
		}
	}
}

func TestLabelFormatting(t *testing.T) {
	assert.Equal(t, "arena_score", Label(LabelArenaScore))
	assert.Equal(t, "arena_score_3_-1", Label(LabelArenaScore, 3, -1))
}

func TestValueRoundTrip(t *testing.T) {
	addrs := []Address{RewardMinter, Admin, RewardMinter}
	addrs = Dedup(addrs)
	require.Equal(t, []Address{Admin, RewardMinter}, addrs)

	got, err := ListFromValue(ListValue(addrs))
	require.NoError(t, err)
	assert.Equal(t, addrs, got)

	_, err = FromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
	_, err = Parse("not-an-address")
	assert.Error(t, err)
}
