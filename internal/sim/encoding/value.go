// Package encoding holds the Value algebra stored in world state and carried
// by actions, and its single canonical byte encoding.
package encoding

import (
	"bytes"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInteger
	KindText
	KindBinary
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindText:
		return "text"
	case KindBinary:
		return "binary"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is closed: only the types in this file implement it.
type Value interface {
	Kind() Kind
	sealed()
}

type Null struct{}

type Bool bool

// Integer is an arbitrary precision integer. The zero Integer is 0.
type Integer struct{ v *big.Int }

type Text string

type Binary []byte

type List []Value

// Map has text keys and keeps them sorted.
type Map struct{ entries []Entry }

type Entry struct {
	Key   string
	Value Value
}

func (Null) Kind() Kind    { return KindNull }
func (Bool) Kind() Kind    { return KindBool }
func (Integer) Kind() Kind { return KindInteger }
func (Text) Kind() Kind    { return KindText }
func (Binary) Kind() Kind  { return KindBinary }
func (List) Kind() Kind    { return KindList }
func (Map) Kind() Kind     { return KindMap }

func (Null) sealed()    {}
func (Bool) sealed()    {}
func (Integer) sealed() {}
func (Text) sealed()    {}
func (Binary) sealed()  {}
func (List) sealed()    {}
func (Map) sealed()     {}

func Int(i int64) Integer { return Integer{v: big.NewInt(i)} }

func Uint(u uint64) Integer { return Integer{v: new(big.Int).SetUint64(u)} }

// BigInt copies b.
func BigInt(b *big.Int) Integer {
	if b == nil {
		return Integer{v: new(big.Int)}
	}
	return Integer{v: new(big.Int).Set(b)}
}

// Big returns a copy of the integer.
func (i Integer) Big() *big.Int {
	if i.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(i.v)
}

func (i Integer) Int64() (int64, bool) {
	if i.v == nil {
		return 0, true
	}
	if !i.v.IsInt64() {
		return 0, false
	}
	return i.v.Int64(), true
}

func (i Integer) String() string {
	if i.v == nil {
		return "0"
	}
	return i.v.String()
}

// NewMap builds a map from entries; later duplicates overwrite earlier ones.
func NewMap(entries ...Entry) Map {
	m := Map{}
	for _, e := range entries {
		m = m.Set(e.Key, e.Value)
	}
	return m
}

func MapOf(kv map[string]Value) Map {
	entries := make([]Entry, 0, len(kv))
	for k, v := range kv {
		entries = append(entries, Entry{Key: k, Value: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return Map{entries: entries}
}

func (m Map) search(key string) (int, bool) {
	i := sort.Search(len(m.entries), func(i int) bool { return m.entries[i].Key >= key })
	return i, i < len(m.entries) && m.entries[i].Key == key
}

func (m Map) Get(key string) (Value, bool) {
	i, ok := m.search(key)
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Set returns a new map with key bound to v. m is not modified.
func (m Map) Set(key string, v Value) Map {
	i, ok := m.search(key)
	out := make([]Entry, 0, len(m.entries)+1)
	out = append(out, m.entries[:i]...)
	out = append(out, Entry{Key: key, Value: v})
	if ok {
		out = append(out, m.entries[i+1:]...)
	} else {
		out = append(out, m.entries[i:]...)
	}
	return Map{entries: out}
}

func (m Map) Delete(key string) Map {
	i, ok := m.search(key)
	if !ok {
		return m
	}
	out := make([]Entry, 0, len(m.entries)-1)
	out = append(out, m.entries[:i]...)
	out = append(out, m.entries[i+1:]...)
	return Map{entries: out}
}

func (m Map) Len() int { return len(m.entries) }

func (m Map) Keys() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Key
	}
	return out
}

// Entries returns a copy of the entries in key order.
func (m Map) Entries() []Entry {
	return append([]Entry(nil), m.entries...)
}

// Equal reports structural equality.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case Integer:
		return av.Big().Cmp(b.(Integer).Big()) == 0
	case Text:
		return av == b.(Text)
	case Binary:
		return bytes.Equal(av, b.(Binary))
	case List:
		bv := b.(List)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		bv := b.(Map)
		if len(av.entries) != len(bv.entries) {
			return false
		}
		for i := range av.entries {
			if av.entries[i].Key != bv.entries[i].Key || !Equal(av.entries[i].Value, bv.entries[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Inspect renders v for logs and test failures. It is not an encoding.
func Inspect(v Value) string {
	var b strings.Builder
	inspect(&b, v)
	return b.String()
}

func inspect(b *strings.Builder, v Value) {
	switch x := v.(type) {
	case nil, Null:
		b.WriteString("null")
	case Bool:
		b.WriteString(strconv.FormatBool(bool(x)))
	case Integer:
		b.WriteString(x.String())
	case Text:
		b.WriteString(strconv.Quote(string(x)))
	case Binary:
		b.WriteString("0x")
		const hex = "0123456789abcdef"
		for _, c := range x {
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		}
	case List:
		b.WriteByte('[')
		for i, e := range x {
			if i > 0 {
				b.WriteByte(',')
			}
			inspect(b, e)
		}
		b.WriteByte(']')
	case Map:
		b.WriteByte('{')
		for i, e := range x.entries {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(e.Key))
			b.WriteByte(':')
			inspect(b, e.Value)
		}
		b.WriteByte('}')
	}
}
