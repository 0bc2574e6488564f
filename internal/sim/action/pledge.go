package action

import (
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/calc"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/model"
	"chronicles.ai/internal/sim/state"
)

const (
	TypeCreatePledge  = "create_pledge"
	TypeRequestPledge = "request_pledge"
	TypeApprovePledge = "approve_pledge"

	MaxPledgeAgents = 500
)

// CreatePledge is an admin shortcut: it writes approved contracts between a
// patron and many agents and pays each agent its first refill.
type CreatePledge struct {
	Patron address.Address
	Mead   int64
	Agents []address.Address
}

func (a *CreatePledge) TypeID() string { return TypeCreatePledge }

func (a *CreatePledge) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("patron", address.ToValue(a.Patron)),
		kv("mead", encoding.Int(a.Mead)),
		kv("agents", addrsValue(a.Agents)),
	)
}

func (a *CreatePledge) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Patron, err = addrField(m, "patron"); err != nil {
		return err
	}
	if a.Mead, err = m.Int64("mead"); err != nil {
		return err
	}
	a.Agents, err = addrsField(m, "agents")
	return err
}

func (a *CreatePledge) Validate(ctx *Context) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if a.Mead <= 0 {
		return errs.Validationf("mead must be positive").With("mead", a.Mead)
	}
	if err := checkNonEmpty("agents", len(a.Agents)); err != nil {
		return err
	}
	if err := checkCount("agents", len(a.Agents), MaxPledgeAgents); err != nil {
		return err
	}
	return checkDistinct("agent", a.Agents)
}

func (a *CreatePledge) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	contract := model.PledgeContract{Patron: a.Patron, Approved: true, Mead: a.Mead}
	refill := calc.Mead.Major(a.Mead)
	for _, agent := range a.Agents {
		var err error
		if w, err = pay(w, a.Patron, agent, refill); err != nil {
			return nil, err
		}
		w = w.Set(model.PledgeAddress(agent), contract.ToValue())
	}
	return w, nil
}

// RequestPledge is sent by a patron to offer a contract to one agent. The
// patron sends a single mead up front so the agent can afford to approve.
type RequestPledge struct {
	Agent      address.Address
	RefillMead int64
}

func (a *RequestPledge) TypeID() string { return TypeRequestPledge }

func (a *RequestPledge) PlainValue() encoding.Map {
	return encoding.NewMap(
		kv("agent", address.ToValue(a.Agent)),
		kv("refill_mead", encoding.Int(a.RefillMead)),
	)
}

func (a *RequestPledge) LoadPlainValue(m encoding.Map) error {
	var err error
	if a.Agent, err = addrField(m, "agent"); err != nil {
		return err
	}
	a.RefillMead, err = m.Int64("refill_mead")
	return err
}

func (a *RequestPledge) Validate(ctx *Context) error {
	if a.RefillMead < model.DefaultRefillMead {
		return errs.Validationf("refill mead below minimum").With("refill", a.RefillMead).With("min", model.DefaultRefillMead)
	}
	if a.Agent == ctx.Signer {
		return errs.Validationf("patron cannot pledge to itself")
	}
	return nil
}

func (a *RequestPledge) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	if _, found, err := model.LoadPledge(w, a.Agent); err != nil {
		return nil, err
	} else if found {
		return nil, errs.Conflictf("agent already has a pledge contract").With("agent", a.Agent.Hex())
	}
	w, err := w.TransferAsset(ctx.Signer, a.Agent, calc.Mead.Major(1))
	if err != nil {
		return nil, err
	}
	contract := model.PledgeContract{Patron: ctx.Signer, Mead: a.RefillMead}
	return w.Set(model.PledgeAddress(a.Agent), contract.ToValue()), nil
}

// ApprovePledge is the agent's acceptance of a requested contract.
type ApprovePledge struct {
	Patron address.Address
}

func (a *ApprovePledge) TypeID() string { return TypeApprovePledge }

func (a *ApprovePledge) PlainValue() encoding.Map {
	return encoding.NewMap(kv("patron", address.ToValue(a.Patron)))
}

func (a *ApprovePledge) LoadPlainValue(m encoding.Map) error {
	var err error
	a.Patron, err = addrField(m, "patron")
	return err
}

func (a *ApprovePledge) Validate(ctx *Context) error { return nil }

func (a *ApprovePledge) Execute(ctx *Context) (*state.World, error) {
	w := ctx.PreviousState
	contract, found, err := model.LoadPledge(w, ctx.Signer)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.NotFoundf("no pledge contract").With("agent", ctx.Signer.Hex())
	}
	if contract.Patron != a.Patron {
		return nil, errs.Validationf("pledge patron mismatch").
			With("expected", contract.Patron.Hex()).
			With("actual", a.Patron.Hex())
	}
	if contract.Approved {
		return nil, errs.Conflictf("pledge already approved").With("agent", ctx.Signer.Hex())
	}
	contract.Approved = true
	return w.Set(model.PledgeAddress(ctx.Signer), contract.ToValue()), nil
}
