package state

import (
	"fmt"
	"math/big"
	"strings"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
)

// Currency identity is the whole tuple. Minters is sorted and de-duplicated;
// an empty list means nobody may mint after genesis.
type Currency struct {
	Ticker   string
	Decimals uint8
	Minters  []address.Address
}

func NewCurrency(ticker string, decimals uint8, minters ...address.Address) Currency {
	m := append([]address.Address(nil), minters...)
	m = address.Dedup(m)
	if len(m) == 0 {
		m = nil
	}
	return Currency{Ticker: ticker, Decimals: decimals, Minters: m}
}

// ID is the ledger key of the currency. The ticker is length-prefixed so
// no ticker can spell out another currency's decimals or minters.
func (c Currency) ID() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d:%s/%d", len(c.Ticker), c.Ticker, c.Decimals)
	for _, m := range c.Minters {
		b.WriteByte('/')
		b.WriteString(m.Hex())
	}
	return b.String()
}

func (c Currency) Equal(o Currency) bool { return c.ID() == o.ID() }

func (c Currency) CanMint(a address.Address) bool {
	for _, m := range c.Minters {
		if m == a {
			return true
		}
	}
	return false
}

func (c Currency) HasMinters() bool { return len(c.Minters) > 0 }

func (c Currency) unit() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(c.Decimals)), nil)
}

func (c Currency) Zero() FAV { return FAV{Currency: c, raw: new(big.Int)} }

// Raw builds an amount from minor units.
func (c Currency) Raw(raw *big.Int) FAV {
	return FAV{Currency: c, raw: new(big.Int).Set(raw)}
}

// Major builds an amount of n whole units.
func (c Currency) Major(n int64) FAV {
	return c.MajorBig(big.NewInt(n))
}

func (c Currency) MajorBig(n *big.Int) FAV {
	return FAV{Currency: c, raw: new(big.Int).Mul(n, c.unit())}
}

func (c Currency) ToValue() encoding.Map {
	return encoding.NewMap(
		encoding.Entry{Key: "ticker", Value: encoding.Text(c.Ticker)},
		encoding.Entry{Key: "decimals", Value: encoding.Int(int64(c.Decimals))},
		encoding.Entry{Key: "minters", Value: address.ListValue(c.Minters)},
	)
}

func CurrencyFromValue(v encoding.Value) (Currency, error) {
	m, err := encoding.AsMap(v)
	if err != nil {
		return Currency{}, err
	}
	ticker, err := m.Text("ticker")
	if err != nil {
		return Currency{}, err
	}
	dec, err := m.Int64("decimals")
	if err != nil {
		return Currency{}, err
	}
	if dec < 0 || dec > 18 {
		return Currency{}, errs.Validationf("currency %s: decimals %d out of range", ticker, dec)
	}
	mv, err := m.Value("minters")
	if err != nil {
		return Currency{}, err
	}
	minters, err := address.ListFromValue(mv)
	if err != nil {
		return Currency{}, err
	}
	return NewCurrency(ticker, uint8(dec), minters...), nil
}
