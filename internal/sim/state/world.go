// Package state is the copy-on-write world: account states and fungible
// balances. A *World is never modified after it is returned, so it can be
// shared freely between goroutines and speculative executions.
package state

import (
	"math/big"
	"sort"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
)

// Layers deeper than this are folded into a fresh root on the next write.
const maxDepth = 64

type balanceKey struct {
	addr address.Address
	cur  string
}

type World struct {
	parent *World
	depth  int

	// A nil Value is a tombstone.
	states     map[address.Address]encoding.Value
	balances   map[balanceKey]*big.Int
	currencies map[string]Currency
}

func New() *World {
	return &World{
		states:     map[address.Address]encoding.Value{},
		balances:   map[balanceKey]*big.Int{},
		currencies: map[string]Currency{},
	}
}

func (w *World) child() *World {
	base := w
	if w.depth >= maxDepth {
		base = w.flatten()
	}
	return &World{
		parent:     base,
		depth:      base.depth + 1,
		states:     map[address.Address]encoding.Value{},
		balances:   map[balanceKey]*big.Int{},
		currencies: map[string]Currency{},
	}
}

func (w *World) flatten() *World {
	out := New()
	var chain []*World
	for l := w; l != nil; l = l.parent {
		chain = append(chain, l)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		l := chain[i]
		for a, v := range l.states {
			if v == nil {
				delete(out.states, a)
				continue
			}
			out.states[a] = v
		}
		for k, v := range l.balances {
			if v.Sign() == 0 {
				delete(out.balances, k)
				continue
			}
			out.balances[k] = v
		}
		for id, c := range l.currencies {
			out.currencies[id] = c
		}
	}
	return out
}

func (w *World) Get(a address.Address) (encoding.Value, bool) {
	for l := w; l != nil; l = l.parent {
		if v, ok := l.states[a]; ok {
			return v, v != nil
		}
	}
	return nil, false
}

// Set returns a new world where a holds v.
func (w *World) Set(a address.Address, v encoding.Value) *World {
	if v == nil {
		return w.Remove(a)
	}
	c := w.child()
	c.states[a] = v
	return c
}

func (w *World) Remove(a address.Address) *World {
	if _, ok := w.Get(a); !ok {
		return w
	}
	c := w.child()
	c.states[a] = nil
	return c
}

func (w *World) rawBalance(a address.Address, id string) *big.Int {
	k := balanceKey{addr: a, cur: id}
	for l := w; l != nil; l = l.parent {
		if v, ok := l.balances[k]; ok {
			return new(big.Int).Set(v)
		}
	}
	return new(big.Int)
}

func (w *World) GetBalance(a address.Address, c Currency) FAV {
	return FAV{Currency: c, raw: w.rawBalance(a, c.ID())}
}

func (w *World) currencyKnown(id string) bool {
	for l := w; l != nil; l = l.parent {
		if _, ok := l.currencies[id]; ok {
			return true
		}
	}
	return false
}

func (w *World) withBalances(c Currency, updates map[address.Address]*big.Int) *World {
	n := w.child()
	id := c.ID()
	if !w.currencyKnown(id) {
		n.currencies[id] = c
	}
	for a, v := range updates {
		n.balances[balanceKey{addr: a, cur: id}] = v
	}
	return n
}

// TransferAsset moves amount from one address to another. On failure w is
// returned unchanged along with the error.
func (w *World) TransferAsset(from, to address.Address, amount FAV) (*World, error) {
	if amount.Sign() <= 0 {
		return w, errs.Validationf("transfer amount must be positive").With("amount", amount)
	}
	if from == to {
		return w, errs.Validationf("transfer to self").With("address", from.Hex())
	}
	id := amount.Currency.ID()
	bal := w.rawBalance(from, id)
	if bal.Cmp(amount.raw) < 0 {
		return w, errs.Balancef("insufficient balance").
			With("address", from.Hex()).
			With("balance", amount.Currency.Raw(bal)).
			With("required", amount)
	}
	return w.withBalances(amount.Currency, map[address.Address]*big.Int{
		from: new(big.Int).Sub(bal, amount.raw),
		to:   new(big.Int).Add(w.rawBalance(to, id), amount.raw),
	}), nil
}

// MintAsset credits to with newly issued amount. The minter must be in the
// currency's allow-list.
func (w *World) MintAsset(minter, to address.Address, amount FAV) (*World, error) {
	if amount.Sign() <= 0 {
		return w, errs.Validationf("mint amount must be positive").With("amount", amount)
	}
	if !amount.Currency.CanMint(minter) {
		return w, errs.Balancef("unauthorized minter").
			With("minter", minter.Hex()).
			With("currency", amount.Currency.Ticker)
	}
	bal := w.rawBalance(to, amount.Currency.ID())
	return w.withBalances(amount.Currency, map[address.Address]*big.Int{
		to: bal.Add(bal, amount.raw),
	}), nil
}

// BurnAsset destroys amount held by owner.
func (w *World) BurnAsset(owner address.Address, amount FAV) (*World, error) {
	if amount.Sign() <= 0 {
		return w, errs.Validationf("burn amount must be positive").With("amount", amount)
	}
	bal := w.rawBalance(owner, amount.Currency.ID())
	if bal.Cmp(amount.raw) < 0 {
		return w, errs.Balancef("insufficient balance").
			With("address", owner.Hex()).
			With("balance", amount.Currency.Raw(bal)).
			With("required", amount)
	}
	return w.withBalances(amount.Currency, map[address.Address]*big.Int{
		owner: bal.Sub(bal, amount.raw),
	}), nil
}

// Supply sums every balance held in c.
func (w *World) Supply(c Currency) FAV {
	total := new(big.Int)
	for _, b := range w.Balances() {
		if b.Amount.Currency.Equal(c) {
			total.Add(total, b.Amount.raw)
		}
	}
	return FAV{Currency: c, raw: total}
}

type Balance struct {
	Address address.Address
	Amount  FAV
}

// Balances lists every non-zero balance, sorted by address then currency id.
func (w *World) Balances() []Balance {
	flat := w.flatten()
	out := make([]Balance, 0, len(flat.balances))
	for k, v := range flat.balances {
		out = append(out, Balance{Address: k.addr, Amount: FAV{Currency: flat.currencies[k.cur], raw: new(big.Int).Set(v)}})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := address.Compare(out[i].Address, out[j].Address); c != 0 {
			return c < 0
		}
		return out[i].Amount.Currency.ID() < out[j].Amount.Currency.ID()
	})
	return out
}

// Addresses lists every address holding a state, sorted.
func (w *World) Addresses() []address.Address {
	flat := w.flatten()
	out := make([]address.Address, 0, len(flat.states))
	for a := range flat.states {
		out = append(out, a)
	}
	address.Sort(out)
	return out
}

// Equal compares full contents.
func (w *World) Equal(o *World) bool {
	if w == o {
		return true
	}
	return w.StateRoot() == o.StateRoot()
}
