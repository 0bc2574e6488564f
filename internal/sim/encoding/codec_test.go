package encoding

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/sim/errs"
)

func sample() Value {
	huge, _ := new(big.Int).SetString("-123456789012345678901234567890", 10)
	return NewMap(
		Entry{Key: "z", Value: List{Int(1), Int(-2), BigInt(huge)}},
		Entry{Key: "a", Value: Text("hello")},
		Entry{Key: "b", Value: Binary{0x00, 0xff}},
		Entry{Key: "n", Value: Null{}},
		Entry{Key: "t", Value: Bool(true)},
		Entry{Key: "m", Value: NewMap(Entry{Key: "inner", Value: Uint(1 << 63)})},
		Entry{Key: "e", Value: Binary(nil)},
	)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	v := sample()
	raw, err := Encode(v)
	require.NoError(t, err)

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, Equal(v, got), "got %s want %s", Inspect(got), Inspect(v))

	again, err := Encode(got)
	require.NoError(t, err)
	assert.Equal(t, raw, again)
}

func TestEncodeIgnoresInsertionOrder(t *testing.T) {
	a := NewMap(Entry{Key: "x", Value: Int(1)}, Entry{Key: "y", Value: Int(2)})
	b := NewMap(Entry{Key: "y", Value: Int(2)}, Entry{Key: "x", Value: Int(1)})
	assert.Equal(t, MustEncode(a), MustEncode(b))
}

func TestDecodeRejectsNonCanonical(t *testing.T) {
	// 1 encoded with a one-byte argument instead of inline.
	_, err := Decode([]byte{0x18, 0x01})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.Validation))

	// Float.
	_, err = Decode([]byte{0xf9, 0x3c, 0x00})
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.Validation))

	// Map with an integer key.
	_, err = Decode([]byte{0xa1, 0x01, 0x01})
	require.Error(t, err)

	// Duplicate keys.
	_, err = Decode([]byte{0xa2, 0x61, 'a', 0x01, 0x61, 'a', 0x02})
	require.Error(t, err)
}

func TestMapSetDoesNotMutate(t *testing.T) {
	m := NewMap(Entry{Key: "a", Value: Int(1)})
	m2 := m.Set("a", Int(2)).Set("b", Int(3))

	n, err := m.Int64("a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{"a", "b"}, m2.Keys())
	assert.Equal(t, 1, m2.Delete("a").Len())
}

func TestMapAccessorsReportKey(t *testing.T) {
	m := NewMap(Entry{Key: "a", Value: Text("x")})
	_, err := m.Int64("a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)

	_, err = m.Int64("missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing key")
}

func TestEqualDistinguishesKinds(t *testing.T) {
	assert.False(t, Equal(Text("a"), Binary("a")))
	assert.False(t, Equal(Int(0), Null{}))
	assert.True(t, Equal(List{}, List(nil)))
	assert.True(t, Equal(Integer{}, Int(0)))
}
