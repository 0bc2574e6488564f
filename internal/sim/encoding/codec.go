package encoding

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"

	"github.com/fxamacker/cbor/v2"

	"chronicles.ai/internal/sim/errs"
)

const maxNesting = 64

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	eo := cbor.CoreDetEncOptions()
	eo.BigIntConvert = cbor.BigIntConvertShortest
	eo.NilContainers = cbor.NilContainerAsEmpty
	em, err := eo.EncMode()
	if err != nil {
		panic(fmt.Sprintf("encoding: cbor enc mode: %v", err))
	}
	encMode = em

	dm, err := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		IndefLength:     cbor.IndefLengthForbidden,
		DefaultMapType:  reflect.TypeOf(map[string]any(nil)),
		BigIntDec:       cbor.BigIntDecodeValue,
		MaxNestedLevels: maxNesting,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("encoding: cbor dec mode: %v", err))
	}
	decMode = dm
}

// Encode returns the canonical bytes of v. Equal values always encode to
// equal bytes.
func Encode(v Value) ([]byte, error) {
	n, err := toNative(v, 0)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(n)
}

// MustEncode is for values built by this program, whose shape is known good.
func MustEncode(v Value) []byte {
	b, err := Encode(v)
	if err != nil {
		panic(err)
	}
	return b
}

// Decode parses canonical bytes. Input that decodes but is not byte-identical
// to the canonical encoding of the result is rejected.
func Decode(b []byte) (Value, error) {
	var n any
	if err := decMode.Unmarshal(b, &n); err != nil {
		return nil, errs.Validationf("malformed value: %v", err)
	}
	v, err := fromNative(n, 0)
	if err != nil {
		return nil, err
	}
	again, err := Encode(v)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(again, b) {
		return nil, errs.Validationf("non-canonical value encoding")
	}
	return v, nil
}

func toNative(v Value, depth int) (any, error) {
	if depth > maxNesting {
		return nil, errs.Validationf("value nested deeper than %d", maxNesting)
	}
	switch x := v.(type) {
	case nil:
		return nil, errs.Validationf("nil value")
	case Null:
		return nil, nil
	case Bool:
		return bool(x), nil
	case Integer:
		return x.Big(), nil
	case Text:
		return string(x), nil
	case Binary:
		return []byte(x), nil
	case List:
		out := make([]any, len(x))
		for i, e := range x {
			n, err := toNative(e, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case Map:
		out := make(map[string]any, len(x.entries))
		for _, e := range x.entries {
			n, err := toNative(e.Value, depth+1)
			if err != nil {
				return nil, err
			}
			out[e.Key] = n
		}
		return out, nil
	}
	return nil, errs.Validationf("unsupported value %T", v)
}

func fromNative(n any, depth int) (Value, error) {
	if depth > maxNesting {
		return nil, errs.Validationf("value nested deeper than %d", maxNesting)
	}
	switch x := n.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(x), nil
	case uint64:
		return Uint(x), nil
	case int64:
		return Int(x), nil
	case big.Int:
		return BigInt(&x), nil
	case *big.Int:
		return BigInt(x), nil
	case string:
		return Text(x), nil
	case []byte:
		return Binary(x), nil
	case []any:
		out := make(List, len(x))
		for i, e := range x {
			v, err := fromNative(e, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case map[string]any:
		kv := make(map[string]Value, len(x))
		for k, e := range x {
			v, err := fromNative(e, depth+1)
			if err != nil {
				return nil, err
			}
			kv[k] = v
		}
		return MapOf(kv), nil
	case float32, float64:
		return nil, errs.Validationf("floating point values are not allowed")
	}
	return nil, errs.Validationf("unsupported encoded item %T", n)
}
