package action

import (
	"github.com/google/uuid"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
)

const (
	TypeSell             = "sell"
	TypeSellCancellation = "sell_cancellation"
	TypeBuy              = "buy"

	// MarketTaxPercent of every sale goes to the market fee store.
	MarketTaxPercent = 8
)

// Sell lists an unequipped item for gold. The item is escrowed in the order
// until it is bought or the listing is cancelled.
type Sell struct {
	Avatar  address.Address
	OrderID uuid.UUID
	ItemID  uuid.UUID
	Price   state.FAV
}

func (a *Sell) TypeID() string { return TypeSell }

func (a *Sell) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar_address", address.ToValue(a.Avatar)),
		kv("order_id", model.UUIDValue(a.OrderID)),
		kv("item_id", model.UUIDValue(a.ItemID)),
		kv("price", a.Price.ToValue()),
	)
}

func (a *Sell) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Avatar, err = addrField(m, "avatar_address"); err != nil {
		return err
	}
	if a.OrderID, err = uuidField(m, "order_id"); err != nil {
		return err
	}
	if a.ItemID, err = uuidField(m, "item_id"); err != nil {
		return err
	}
	a.Price, err = favField(m, "price")
	return err
}

func (a *Sell) Validate(ctx *Context) error {
	if a.Price.Sign() <= 0 {
		return errs.Validationf("price must be positive").With("price", a.Price)
	}
	if a.OrderID == uuid.Nil {
		return errs.Validationf("order id must be set")
	}
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *Sell) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	h := ctx.BlockHeight
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	gold, err := model.LoadGoldCurrency(w)
	if err != nil {
		return nil, err
	}
	if !a.Price.Currency.Equal(gold) {
		return nil, errs.Validationf("price must be in gold").With("currency", a.Price.Currency.Ticker)
	}
	if _, ok := w.Get(model.OrderAddress(a.OrderID)); ok {
		return nil, errs.Conflictf("order already exists").With("order", a.OrderID)
	}
	inv, err := loadInventory(w, av)
	if err != nil {
		return nil, err
	}
	item, err := removeUsableEquipment(inv, a.ItemID, h)
	if err != nil {
		return nil, err
	}
	order := &model.Order{
		ID:           a.OrderID,
		Seller:       ctx.Signer,
		SellerAvatar: av.Address,
		Item:         item,
		Price:        a.Price,
		StartedBlock: h,
		ExpiredBlock: h + model.OrderExpirationBlocks,
	}
	shopAddr := model.ShopAddress(item.SubType)
	shop, err := model.LoadOrderIDs(w, shopAddr)
	if err != nil {
		return nil, err
	}
	digestAddr := model.OrderDigestAddress(av.Address)
	digest, err := model.LoadOrderIDs(w, digestAddr)
	if err != nil {
		return nil, err
	}

	av.Touch(h)
	w = order.Save(w)
	w = shop.Add(order.ID).Save(w, shopAddr)
	w = digest.Add(order.ID).Save(w, digestAddr)
	w = inv.Save(w)
	return av.Save(w), nil
}

// SellCancellation takes a listing down and returns the item to the seller.
type SellCancellation struct {
	Avatar  address.Address
	OrderID uuid.UUID
}

func (a *SellCancellation) TypeID() string { return TypeSellCancellation }

func (a *SellCancellation) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar_address", address.ToValue(a.Avatar)),
		kv("order_id", model.UUIDValue(a.OrderID)),
	)
}

func (a *SellCancellation) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Avatar, err = addrField(m, "avatar_address"); err != nil {
		return err
	}
	a.OrderID, err = uuidField(m, "order_id")
	return err
}

func (a *SellCancellation) Validate(ctx *Context) error {
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *SellCancellation) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	order, err := model.LoadOrder(w, a.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Seller != ctx.Signer || order.SellerAvatar != av.Address {
		return nil, errs.Permissionf("order belongs to another seller").
			With("required", order.Seller.Hex()).With("actual", ctx.Signer.Hex())
	}
	if w, err = delist(w, order); err != nil {
		return nil, err
	}
	inv, err := loadInventory(w, av)
	if err != nil {
		return nil, err
	}
	inv.AddEquipment(order.Item)
	av.Touch(ctx.BlockHeight)
	w = inv.Save(w)
	return av.Save(w), nil
}

// Buy pays for a listed item. The seller receives the price minus the
// market tax.
type Buy struct {
	Avatar  address.Address
	OrderID uuid.UUID
}

func (a *Buy) TypeID() string { return TypeBuy }

func (a *Buy) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar_address", address.ToValue(a.Avatar)),
		kv("order_id", model.UUIDValue(a.OrderID)),
	)
}

func (a *Buy) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Avatar, err = addrField(m, "avatar_address"); err != nil {
		return err
	}
	a.OrderID, err = uuidField(m, "order_id")
	return err
}

func (a *Buy) Validate(ctx *Context) error {
	_, _, err := loadOwnedAvatar(ctx, ctx.PreviousState, a.Avatar)
	return err
}

func (a *Buy) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	h := ctx.BlockHeight
	_, av, err := loadOwnedAvatar(ctx, w, a.Avatar)
	if err != nil {
		return nil, err
	}
	order, err := model.LoadOrder(w, a.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Seller == ctx.Signer {
		return nil, errs.Validationf("cannot buy own order").With("order", a.OrderID)
	}
	if h > order.ExpiredBlock {
		return nil, errs.Validationf("order expired").With("order", a.OrderID).With("expiredBlock", order.ExpiredBlock)
	}

	tax := order.Price.Mul(MarketTaxPercent).DivFloor(100)
	if w, err = pay(w, ctx.Signer, address.MarketFees, tax); err != nil {
		return nil, err
	}
	if w, err = pay(w, ctx.Signer, order.Seller, order.Price.Sub(tax)); err != nil {
		return nil, err
	}
	if w, err = delist(w, order); err != nil {
		return nil, err
	}

	inv, err := loadInventory(w, av)
	if err != nil {
		return nil, err
	}
	item := order.Item
	item.Equipped = false
	inv.AddEquipment(item)
	av.Touch(h)
	w = inv.Save(w)
	w = av.Save(w)
	return progressQuest(w, av, catalogs.QuestTrade, 1)
}

// delist removes an order and its index entries.
func delist(w *state.World, order *model.Order) (*state.World, error) {
	shopAddr := model.ShopAddress(order.Item.SubType)
	shop, err := model.LoadOrderIDs(w, shopAddr)
	if err != nil {
		return nil, err
	}
	if shop, err = shop.Remove(order.ID); err != nil {
		return nil, err
	}
	digestAddr := model.OrderDigestAddress(order.SellerAvatar)
	digest, err := model.LoadOrderIDs(w, digestAddr)
	if err != nil {
		return nil, err
	}
	if digest, err = digest.Remove(order.ID); err != nil {
		return nil, err
	}
	w = shop.Save(w, shopAddr)
	w = digest.Save(w, digestAddr)
	return w.Remove(model.OrderAddress(order.ID)), nil
}
