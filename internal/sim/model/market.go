package model

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

// OrderExpirationBlocks is how long an order stays listed.
const OrderExpirationBlocks = 36000

func OrderAddress(id uuid.UUID) address.Address {
	return address.Derive(address.ShopRoot, address.LabelOrder+"_"+id.String())
}

func ShopAddress(st catalogs.ItemSubType) address.Address {
	return address.Derive(address.ShopRoot, address.LabelShop+"_"+string(st))
}

func OrderDigestAddress(avatar address.Address) address.Address {
	return address.Derive(avatar, address.LabelOrderDigest)
}

// Order escrows one equipment item until it is bought, cancelled or expired.
type Order struct {
	ID           uuid.UUID
	Seller       address.Address
	SellerAvatar address.Address
	Item         Equipment
	Price        state.FAV
	StartedBlock int64
	ExpiredBlock int64
}

func (o *Order) ToValue() encoding.Map {
	return encoding.NewMap(
		kv("id", UUIDValue(o.ID)),
		kv("seller", address.ToValue(o.Seller)),
		kv("sellerAvatar", address.ToValue(o.SellerAvatar)),
		kv("item", o.Item.ToValue()),
		kv("price", o.Price.ToValue()),
		kv("startedBlock", i64(o.StartedBlock)),
		kv("expiredBlock", i64(o.ExpiredBlock)),
	)
}

func LoadOrder(w *state.World, id uuid.UUID) (*Order, error) {
	m, err := loadMap(w, OrderAddress(id), "order")
	if err != nil {
		return nil, err
	}
	o := &Order{ID: id}
	if o.Seller, err = addrAt(m, "seller"); err != nil {
		return nil, err
	}
	if o.SellerAvatar, err = addrAt(m, "sellerAvatar"); err != nil {
		return nil, err
	}
	iv, err := m.Value("item")
	if err != nil {
		return nil, err
	}
	if o.Item, err = EquipmentFromValue(iv); err != nil {
		return nil, err
	}
	pv, err := m.Value("price")
	if err != nil {
		return nil, err
	}
	if o.Price, err = state.FAVFromValue(pv); err != nil {
		return nil, err
	}
	if o.StartedBlock, err = m.Int64("startedBlock"); err != nil {
		return nil, err
	}
	if o.ExpiredBlock, err = m.Int64("expiredBlock"); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Order) Save(w *state.World) *state.World {
	return w.Set(OrderAddress(o.ID), o.ToValue())
}

// OrderIDs is a sorted set of order ids; used for shop shards and for each
// seller's digest list.
type OrderIDs []uuid.UUID

func LoadOrderIDs(w *state.World, a address.Address) (OrderIDs, error) {
	v, ok := w.Get(a)
	if !ok {
		return nil, nil
	}
	l, err := encoding.AsList(v)
	if err != nil {
		return nil, err
	}
	out := make(OrderIDs, 0, len(l))
	for _, e := range l {
		id, err := UUIDFromValue(e)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (ids OrderIDs) Contains(id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func (ids OrderIDs) Add(id uuid.UUID) OrderIDs {
	if ids.Contains(id) {
		return ids
	}
	out := append(append(OrderIDs(nil), ids...), id)
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i][:], out[j][:]) < 0 })
	return out
}

func (ids OrderIDs) Remove(id uuid.UUID) (OrderIDs, error) {
	for i, x := range ids {
		if x == id {
			out := append(append(OrderIDs(nil), ids[:i]...), ids[i+1:]...)
			return out, nil
		}
	}
	return ids, errs.NotFoundf("order %s not listed", id)
}

func (ids OrderIDs) Save(w *state.World, a address.Address) *state.World {
	l := make(encoding.List, len(ids))
	for i, id := range ids {
		l[i] = UUIDValue(id)
	}
	return w.Set(a, l)
}
