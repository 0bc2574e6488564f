package state

import (
	"fmt"
	"math/big"
	"strings"

	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
)

// FAV is a fungible asset value: an amount in minor units of one currency.
// Values are immutable; arithmetic returns new values.
type FAV struct {
	Currency Currency
	raw      *big.Int
}

func (f FAV) Raw() *big.Int {
	if f.raw == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(f.raw)
}

func (f FAV) Sign() int {
	if f.raw == nil {
		return 0
	}
	return f.raw.Sign()
}

func (f FAV) IsZero() bool { return f.Sign() == 0 }

func (f FAV) mustMatch(o FAV) {
	if !f.Currency.Equal(o.Currency) {
		panic(fmt.Sprintf("state: currency mismatch %s vs %s", f.Currency.Ticker, o.Currency.Ticker))
	}
}

func (f FAV) Add(o FAV) FAV {
	f.mustMatch(o)
	return FAV{Currency: f.Currency, raw: new(big.Int).Add(f.Raw(), o.Raw())}
}

func (f FAV) Sub(o FAV) FAV {
	f.mustMatch(o)
	return FAV{Currency: f.Currency, raw: new(big.Int).Sub(f.Raw(), o.Raw())}
}

func (f FAV) Mul(n int64) FAV {
	return FAV{Currency: f.Currency, raw: new(big.Int).Mul(f.Raw(), big.NewInt(n))}
}

func (f FAV) MulBig(n *big.Int) FAV {
	return FAV{Currency: f.Currency, raw: new(big.Int).Mul(f.Raw(), n)}
}

// DivFloor divides and floors toward negative infinity.
func (f FAV) DivFloor(n int64) FAV {
	q, m := new(big.Int), new(big.Int)
	q.DivMod(f.Raw(), big.NewInt(n), m)
	if n < 0 && m.Sign() != 0 {
		q.Sub(q, big.NewInt(1))
	}
	return FAV{Currency: f.Currency, raw: q}
}

func (f FAV) Cmp(o FAV) int {
	f.mustMatch(o)
	return f.Raw().Cmp(o.Raw())
}

// MajorUnits returns the whole-unit part, truncated toward zero.
func (f FAV) MajorUnits() *big.Int {
	return new(big.Int).Quo(f.Raw(), f.Currency.unit())
}

func (f FAV) String() string {
	raw := f.Raw()
	neg := raw.Sign() < 0
	raw.Abs(raw)
	s := raw.String()
	d := int(f.Currency.Decimals)
	if d > 0 {
		if len(s) <= d {
			s = strings.Repeat("0", d-len(s)+1) + s
		}
		whole, frac := s[:len(s)-d], strings.TrimRight(s[len(s)-d:], "0")
		s = whole
		if frac != "" {
			s += "." + frac
		}
	}
	if neg {
		s = "-" + s
	}
	return s + " " + f.Currency.Ticker
}

func (f FAV) ToValue() encoding.List {
	return encoding.List{f.Currency.ToValue(), encoding.BigInt(f.Raw())}
}

func FAVFromValue(v encoding.Value) (FAV, error) {
	l, err := encoding.AsList(v)
	if err != nil {
		return FAV{}, err
	}
	if len(l) != 2 {
		return FAV{}, errs.Validationf("asset value must have 2 elements, got %d", len(l))
	}
	c, err := CurrencyFromValue(l[0])
	if err != nil {
		return FAV{}, err
	}
	raw, err := encoding.AsBig(l[1])
	if err != nil {
		return FAV{}, err
	}
	return c.Raw(raw), nil
}
