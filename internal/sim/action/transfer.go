package action

import (
	"errors"
	"unicode/utf8"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

const (
	TypeTransferAsset  = "transfer_asset"
	TypeTransferAssets = "transfer_assets"

	MaxMemoLength         = 80
	MaxTransferRecipients = 100
)

// TransferAsset moves a fungible amount from the signer to one recipient.
type TransferAsset struct {
	Sender    address.Address
	Recipient address.Address
	Amount    state.FAV
	Memo      string
}

func (a *TransferAsset) TypeID() string { return TypeTransferAsset }

func (a *TransferAsset) PlainValue() encoding.Map {
	m := encoding.NewMap(
		kv("sender", address.ToValue(a.Sender)),
		kv("recipient", address.ToValue(a.Recipient)),
		kv("amount", a.Amount.ToValue()),
	)
	if a.Memo != "" {
		m = m.Set("memo", encoding.Text(a.Memo))
	}
	return m
}

func (a *TransferAsset) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Sender, err = addrField(m, "sender"); err != nil {
		return err
	}
	if a.Recipient, err = addrField(m, "recipient"); err != nil {
		return err
	}
	if a.Amount, err = favField(m, "amount"); err != nil {
		return err
	}
	a.Memo, err = memoField(m)
	return err
}

func (a *TransferAsset) Validate(ctx *Context) error {
	if err := requireSigner(ctx, a.Sender); err != nil {
		return err
	}
	if err := checkMemo(a.Memo); err != nil {
		return err
	}
	return checkTransfer(a.Sender, a.Recipient, a.Amount)
}

func (a *TransferAsset) Execute(ctx *Context) (*state.World, error) {
	return ctx.PreviousState.TransferAsset(a.Sender, a.Recipient, a.Amount)
}

// Recipient is one leg of a TransferAssets.
type Recipient struct {
	Address address.Address
	Amount  state.FAV
}

// TransferAssets sends amounts to several recipients in one action. Either
// every leg applies or none does.
type TransferAssets struct {
	Sender     address.Address
	Recipients []Recipient
	Memo       string
}

func (a *TransferAssets) TypeID() string { return TypeTransferAssets }

func (a *TransferAssets) PlainValue() encoding.Map {
	rs := make(encoding.List, len(a.Recipients))
	for i, r := range a.Recipients {
		rs[i] = encoding.List{address.ToValue(r.Address), r.Amount.ToValue()}
	}
	m := encoding.NewMap(
		kv("sender", address.ToValue(a.Sender)),
		kv("recipients", rs),
	)
	if a.Memo != "" {
		m = m.Set("memo", encoding.Text(a.Memo))
	}
	return m
}

func (a *TransferAssets) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Sender, err = addrField(m, "sender"); err != nil {
		return err
	}
	l, err := m.List("recipients")
	if err != nil {
		return err
	}
	a.Recipients = make([]Recipient, len(l))
	for i, e := range l {
		pair, err := encoding.AsList(e)
		if err != nil || len(pair) != 2 {
			return errs.Validationf("key %q[%d]: expected [address, amount]", "recipients", i)
		}
		if a.Recipients[i].Address, err = address.FromValue(pair[0]); err != nil {
			return errs.Validationf("key %q[%d]: %v", "recipients", i, err)
		}
		if a.Recipients[i].Amount, err = state.FAVFromValue(pair[1]); err != nil {
			return errs.Validationf("key %q[%d]: %v", "recipients", i, err)
		}
	}
	a.Memo, err = memoField(m)
	return err
}

func (a *TransferAssets) Validate(ctx *Context) error {
	if err := requireSigner(ctx, a.Sender); err != nil {
		return err
	}
	if err := checkNonEmpty("recipients", len(a.Recipients)); err != nil {
		return err
	}
	if err := checkCount("recipients", len(a.Recipients), MaxTransferRecipients); err != nil {
		return err
	}
	if err := checkMemo(a.Memo); err != nil {
		return err
	}
	for _, r := range a.Recipients {
		if err := checkTransfer(a.Sender, r.Address, r.Amount); err != nil {
			return err
		}
	}
	return nil
}

func (a *TransferAssets) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	for i, r := range a.Recipients {
		next, err := w.TransferAsset(a.Sender, r.Address, r.Amount)
		if err != nil {
			var e *errs.Error
			if errors.As(err, &e) {
				return nil, e.With("leg", i)
			}
			return nil, err
		}
		w = next
	}
	return w, nil
}

func memoField(m encoding.Map) (string, error) {
	if !m.Has("memo") {
		return "", nil
	}
	return m.Text("memo")
}

func checkMemo(memo string) error {
	if n := utf8.RuneCountInString(memo); n > MaxMemoLength {
		return errs.Validationf("memo too long").With("length", n).With("max", MaxMemoLength)
	}
	return nil
}

// checkTransfer rejects self transfers, non-positive amounts and any leg
// that touches one of the currency's minters.
func checkTransfer(from, to address.Address, amount state.FAV) error {
	if from == to {
		return errs.Validationf("sender and recipient are the same").With("address", from.Hex())
	}
	if amount.Sign() <= 0 {
		return errs.Validationf("transfer amount must be positive").With("amount", amount)
	}
	for _, m := range amount.Currency.Minters {
		if m == from || m == to {
			return errs.Validationf("minter may not transfer its currency").
				With("minter", m.Hex()).
				With("currency", amount.Currency.Ticker)
		}
	}
	return nil
}
