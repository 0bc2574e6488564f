package action

import (
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
)

const (
	TypeCreatePendingActivation = "create_pending_activation"
	TypeActivateAccount         = "activate_account"
)

// CreatePendingActivation lets the admin issue an invitation bound to a
// public key.
type CreatePendingActivation struct {
	Nonce     []byte
	PublicKey []byte
}

func (a *CreatePendingActivation) TypeID() string { return TypeCreatePendingActivation }

func (a *CreatePendingActivation) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("nonce", encoding.Binary(a.Nonce)),
		kv("public_key", encoding.Binary(a.PublicKey)),
	)
}

func (a *CreatePendingActivation) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Nonce, err = m.Binary("nonce"); err != nil {
		return err
	}
	a.PublicKey, err = m.Binary("public_key")
	return err
}

func (a *CreatePendingActivation) Validate(ctx *Context) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if len(a.Nonce) == 0 {
		return errs.Validationf("nonce must not be empty")
	}
	if _, err := model.PendingActivationAddress(a.PublicKey); err != nil {
		return errs.Validationf("invalid public key: %v", err)
	}
	return nil
}

func (a *CreatePendingActivation) Execute(ctx *Context) (*state.World, error) {
	addr, err := model.PendingActivationAddress(a.PublicKey)
	if err != nil {
		return nil, errs.Validationf("invalid public key: %v", err)
	}
	w := ctx.PreviousState
	if _, ok := w.Get(addr); ok {
		return nil, errs.Conflictf("pending activation already exists").With("address", addr.Hex())
	}
	p := model.PendingActivation{Address: addr, Nonce: a.Nonce, PublicKey: a.PublicKey}
	return w.Set(addr, p.ToValue()), nil
}

// ActivateAccount redeems a pending activation by signing its nonce. The
// signer joins the activated accounts and the invitation is consumed.
type ActivateAccount struct {
	PendingAddress address.Address
	Signature      []byte
}

func (a *ActivateAccount) TypeID() string { return TypeActivateAccount }

func (a *ActivateAccount) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("pending_address", address.ToValue(a.PendingAddress)),
		kv("signature", encoding.Binary(a.Signature)),
	)
}

func (a *ActivateAccount) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.PendingAddress, err = addrField(m, "pending_address"); err != nil {
		return err
	}
	a.Signature, err = m.Binary("signature")
	return err
}

func (a *ActivateAccount) Validate(ctx *Context) error {
	if len(a.Signature) == 0 {
		return errs.Validationf("signature must not be empty")
	}
	return nil
}

func (a *ActivateAccount) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	pending, err := model.LoadPendingActivation(w, a.PendingAddress)
	if err != nil {
		return nil, err
	}
	if !pending.Verify(a.Signature) {
		return nil, errs.Validationf("signature does not match pending activation").With("address", a.PendingAddress.Hex())
	}
	accounts := &model.ActivatedAccounts{}
	if _, ok := w.Get(address.ActivatedAccounts); ok {
		if accounts, err = model.LoadActivatedAccounts(w); err != nil {
			return nil, err
		}
	}
	if accounts.Contains(ctx.Signer) {
		return nil, errs.Conflictf("account already activated").With("address", ctx.Signer.Hex())
	}
	accounts.Add(ctx.Signer)
	w = accounts.Save(w)
	return w.Remove(a.PendingAddress), nil
}
