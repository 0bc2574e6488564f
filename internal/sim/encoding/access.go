package encoding

import (
	"math"
	"math/big"

	"chronicles.ai/internal/sim/errs"
)

func kindErr(want Kind, v Value) error {
	got := "nil"
	if v != nil {
		got = v.Kind().String()
	}
	return errs.Validationf("expected %s, got %s", want, got)
}

func AsBool(v Value) (bool, error) {
	b, ok := v.(Bool)
	if !ok {
		return false, kindErr(KindBool, v)
	}
	return bool(b), nil
}

func AsBig(v Value) (*big.Int, error) {
	i, ok := v.(Integer)
	if !ok {
		return nil, kindErr(KindInteger, v)
	}
	return i.Big(), nil
}

func AsInt64(v Value) (int64, error) {
	i, ok := v.(Integer)
	if !ok {
		return 0, kindErr(KindInteger, v)
	}
	n, ok := i.Int64()
	if !ok {
		return 0, errs.Validationf("integer %s out of range", i)
	}
	return n, nil
}

func AsInt(v Value) (int, error) {
	n, err := AsInt64(v)
	if err != nil {
		return 0, err
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, errs.Validationf("integer %d out of range", n)
	}
	return int(n), nil
}

func AsText(v Value) (string, error) {
	t, ok := v.(Text)
	if !ok {
		return "", kindErr(KindText, v)
	}
	return string(t), nil
}

func AsBinary(v Value) ([]byte, error) {
	b, ok := v.(Binary)
	if !ok {
		return nil, kindErr(KindBinary, v)
	}
	return append([]byte(nil), b...), nil
}

func AsList(v Value) (List, error) {
	l, ok := v.(List)
	if !ok {
		return nil, kindErr(KindList, v)
	}
	return l, nil
}

func AsMap(v Value) (Map, error) {
	m, ok := v.(Map)
	if !ok {
		return Map{}, kindErr(KindMap, v)
	}
	return m, nil
}

func Ints(xs []int) List {
	out := make(List, len(xs))
	for i, x := range xs {
		out[i] = Int(int64(x))
	}
	return out
}

func AsInts(v Value) ([]int, error) {
	l, err := AsList(v)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(l))
	for i, e := range l {
		n, err := AsInt(e)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Value returns the value at key or a ValidationError naming the missing key.
func (m Map) Value(key string) (Value, error) {
	v, ok := m.Get(key)
	if !ok {
		return nil, errs.Validationf("missing key %q", key)
	}
	return v, nil
}

func (m Map) Has(key string) bool {
	_, ok := m.search(key)
	return ok
}

func (m Map) Int64(key string) (int64, error) {
	v, err := m.Value(key)
	if err != nil {
		return 0, err
	}
	n, err := AsInt64(v)
	if err != nil {
		return 0, errs.Validationf("key %q: %v", key, err)
	}
	return n, nil
}

func (m Map) Int(key string) (int, error) {
	v, err := m.Value(key)
	if err != nil {
		return 0, err
	}
	n, err := AsInt(v)
	if err != nil {
		return 0, errs.Validationf("key %q: %v", key, err)
	}
	return n, nil
}

func (m Map) Big(key string) (*big.Int, error) {
	v, err := m.Value(key)
	if err != nil {
		return nil, err
	}
	return AsBig(v)
}

func (m Map) Bool(key string) (bool, error) {
	v, err := m.Value(key)
	if err != nil {
		return false, err
	}
	return AsBool(v)
}

func (m Map) Text(key string) (string, error) {
	v, err := m.Value(key)
	if err != nil {
		return "", err
	}
	return AsText(v)
}

func (m Map) Binary(key string) ([]byte, error) {
	v, err := m.Value(key)
	if err != nil {
		return nil, err
	}
	return AsBinary(v)
}

func (m Map) List(key string) (List, error) {
	v, err := m.Value(key)
	if err != nil {
		return nil, err
	}
	return AsList(v)
}

func (m Map) Map(key string) (Map, error) {
	v, err := m.Value(key)
	if err != nil {
		return Map{}, err
	}
	return AsMap(v)
}

func (m Map) Ints(key string) ([]int, error) {
	v, err := m.Value(key)
	if err != nil {
		return nil, err
	}
	return AsInts(v)
}
