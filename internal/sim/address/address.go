// Package address is the 20-byte address space and its pure derivation.
package address

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"lukechampine.com/blake3"

	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
)

const Length = common.AddressLength

type Address = common.Address

var Zero Address

// Derive returns a child address of parent. The label is stretched into a
// 32-byte BLAKE3 key and the parent is hashed in keyed mode.
func Derive(parent Address, label string) Address {
	key := blake3.Sum256([]byte(derivePrefix + label))
	h := blake3.New(Length, key[:])
	h.Write(parent.Bytes())
	var out Address
	copy(out[:], h.Sum(nil))
	return out
}

const derivePrefix = "chronicles/address/v1/"

// Label formats a composite label: base followed by each part joined with '_'.
func Label(base string, parts ...int64) string {
	if len(parts) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	for _, p := range parts {
		b.WriteByte('_')
		b.WriteString(strconv.FormatInt(p, 10))
	}
	return b.String()
}

func Parse(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return Zero, errs.Validationf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func FromBytes(b []byte) (Address, error) {
	if len(b) != Length {
		return Zero, errs.Validationf("address must be %d bytes, got %d", Length, len(b))
	}
	return common.BytesToAddress(b), nil
}

func ToValue(a Address) encoding.Binary {
	return encoding.Binary(a.Bytes())
}

func FromValue(v encoding.Value) (Address, error) {
	b, err := encoding.AsBinary(v)
	if err != nil {
		return Zero, err
	}
	return FromBytes(b)
}

func Compare(a, b Address) int { return bytes.Compare(a[:], b[:]) }

func Sort(addrs []Address) {
	sort.Slice(addrs, func(i, j int) bool { return Compare(addrs[i], addrs[j]) < 0 })
}

// Dedup sorts addrs and removes duplicates in place.
func Dedup(addrs []Address) []Address {
	Sort(addrs)
	out := addrs[:0]
	for _, a := range addrs {
		if len(out) > 0 && a == out[len(out)-1] {
			continue
		}
		out = append(out, a)
	}
	return out
}

func ListValue(addrs []Address) encoding.List {
	out := make(encoding.List, len(addrs))
	for i, a := range addrs {
		out[i] = ToValue(a)
	}
	return out
}

func ListFromValue(v encoding.Value) ([]Address, error) {
	l, err := encoding.AsList(v)
	if err != nil {
		return nil, err
	}
	out := make([]Address, len(l))
	for i, e := range l {
		a, err := FromValue(e)
		if err != nil {
			return nil, err
		}
		out[i] = a
	}
	return out, nil
}
