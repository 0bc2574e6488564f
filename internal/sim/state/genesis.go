package state

import (
	"math/big"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
)

// GenesisBuilder assembles the initial world. It is the only way to create
// balances without going through a currency's minter list.
type GenesisBuilder struct {
	w *World
}

func NewGenesis() *GenesisBuilder {
	return &GenesisBuilder{w: New()}
}

func (g *GenesisBuilder) SetState(a address.Address, v encoding.Value) *GenesisBuilder {
	g.w.states[a] = v
	return g
}

func (g *GenesisBuilder) Credit(a address.Address, amount FAV) *GenesisBuilder {
	id := amount.Currency.ID()
	g.w.currencies[id] = amount.Currency
	k := balanceKey{addr: a, cur: id}
	cur, ok := g.w.balances[k]
	if !ok {
		cur = new(big.Int)
	}
	g.w.balances[k] = new(big.Int).Add(cur, amount.Raw())
	return g
}

// Build returns the world. The builder must not be used afterwards.
func (g *GenesisBuilder) Build() *World {
	w := g.w
	g.w = nil
	return w
}
