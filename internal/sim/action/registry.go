package action

import (
	"fmt"
	"math"
	"sort"

	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
)

// Retirement heights. An action is rejected at or above its height.
const (
	NeverObsolete   int64 = math.MaxInt64
	ObsoleteV100080 int64 = 2_448_000
	ObsoleteV200030 int64 = 9_000_000
)

// Spec registers one action type.
type Spec struct {
	TypeID     string
	ObsoleteAt int64
	New        func() Action
}

// Registry is the closed set of decodable action types.
type Registry struct {
	specs map[string]Spec
}

func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{specs: make(map[string]Spec, len(specs))}
	for _, s := range specs {
		if s.TypeID == "" || s.New == nil {
			return nil, fmt.Errorf("action registry: incomplete spec %q", s.TypeID)
		}
		if _, dup := r.specs[s.TypeID]; dup {
			return nil, fmt.Errorf("action registry: duplicate type id %q", s.TypeID)
		}
		if got := s.New().TypeID(); got != s.TypeID {
			return nil, fmt.Errorf("action registry: %q constructs %q", s.TypeID, got)
		}
		r.specs[s.TypeID] = s
	}
	return r, nil
}

func mustRegistry(specs ...Spec) *Registry {
	r, err := NewRegistry(specs...)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultRegistry = mustRegistry(
	Spec{TypeID: TypeCreateAvatar, ObsoleteAt: NeverObsolete, New: func() Action { return &CreateAvatar{} }},
	Spec{TypeID: TypeTransferAsset, ObsoleteAt: NeverObsolete, New: func() Action { return &TransferAsset{} }},
	Spec{TypeID: TypeTransferAssets, ObsoleteAt: NeverObsolete, New: func() Action { return &TransferAssets{} }},
	Spec{TypeID: TypeCreatePendingActivation, ObsoleteAt: NeverObsolete, New: func() Action { return &CreatePendingActivation{} }},
	Spec{TypeID: TypeActivateAccount, ObsoleteAt: ObsoleteV100080, New: func() Action { return &ActivateAccount{} }},
	Spec{TypeID: TypeCreatePledge, ObsoleteAt: NeverObsolete, New: func() Action { return &CreatePledge{} }},
	Spec{TypeID: TypeRequestPledge, ObsoleteAt: NeverObsolete, New: func() Action { return &RequestPledge{} }},
	Spec{TypeID: TypeApprovePledge, ObsoleteAt: NeverObsolete, New: func() Action { return &ApprovePledge{} }},
	Spec{TypeID: TypeChargeActionPoint, ObsoleteAt: NeverObsolete, New: func() Action { return &ChargeActionPoint{} }},
	Spec{TypeID: TypeUnlockWorld, ObsoleteAt: ObsoleteV200030, New: func() Action { return &UnlockWorld{} }},
	Spec{TypeID: TypeUnlockEquipmentRecipe, ObsoleteAt: ObsoleteV200030, New: func() Action { return &UnlockEquipmentRecipe{} }},
	Spec{TypeID: TypeGrinding, ObsoleteAt: NeverObsolete, New: func() Action { return &Grinding{} }},
	Spec{TypeID: TypeItemEnhancement, ObsoleteAt: NeverObsolete, New: func() Action { return &ItemEnhancement{} }},
	Spec{TypeID: TypeStake, ObsoleteAt: NeverObsolete, New: func() Action { return &Stake{} }},
	Spec{TypeID: TypeClaimStakeReward, ObsoleteAt: NeverObsolete, New: func() Action { return &ClaimStakeReward{} }},
	Spec{TypeID: TypeRandomBuff, ObsoleteAt: NeverObsolete, New: func() Action { return &HackAndSlashRandomBuff{} }},
	Spec{TypeID: TypeJoinArena, ObsoleteAt: NeverObsolete, New: func() Action { return &JoinArena{} }},
	Spec{TypeID: TypeBattleArena, ObsoleteAt: NeverObsolete, New: func() Action { return &BattleArena{} }},
	Spec{TypeID: TypeRaid, ObsoleteAt: NeverObsolete, New: func() Action { return &Raid{} }},
	Spec{TypeID: TypeSell, ObsoleteAt: NeverObsolete, New: func() Action { return &Sell{} }},
	Spec{TypeID: TypeSellCancellation, ObsoleteAt: ObsoleteV100080, New: func() Action { return &SellCancellation{} }},
	Spec{TypeID: TypeBuy, ObsoleteAt: NeverObsolete, New: func() Action { return &Buy{} }},
)

// DefaultRegistry lists every action type the engine executes.
func DefaultRegistry() *Registry { return defaultRegistry }

// Types returns the registered type ids in ascending order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.specs))
	for id := range r.specs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Spec(typeID string) (Spec, bool) {
	s, ok := r.specs[typeID]
	return s, ok
}

// ObsoleteAt returns the retirement height of typeID.
func (r *Registry) ObsoleteAt(typeID string) (int64, bool) {
	s, ok := r.specs[typeID]
	return s.ObsoleteAt, ok
}

// New returns a zero action of typeID.
func (r *Registry) New(typeID string) (Action, error) {
	s, ok := r.specs[typeID]
	if !ok {
		return nil, errs.Validationf("unknown action type").With("type_id", typeID)
	}
	return s.New(), nil
}

func (r *Registry) Encode(a Action) ([]byte, error) {
	if _, ok := r.specs[a.TypeID()]; !ok {
		return nil, errs.Validationf("unknown action type").With("type_id", a.TypeID())
	}
	return encoding.Encode(ToValue(a))
}

func (r *Registry) Decode(b []byte) (Action, error) {
	v, err := encoding.Decode(b)
	if err != nil {
		return nil, errs.Validationf("malformed action: %v", err)
	}
	return r.DecodeValue(v)
}

// DecodeValue rejects unknown type ids and values the type cannot load.
func (r *Registry) DecodeValue(v encoding.Value) (Action, error) {
	m, err := encoding.AsMap(v)
	if err != nil {
		return nil, errs.Validationf("malformed action: %v", err)
	}
	typeID, err := m.Text("type_id")
	if err != nil {
		return nil, errs.Validationf("malformed action: %v", err)
	}
	values, err := m.Map("values")
	if err != nil {
		return nil, errs.Validationf("malformed action values: %v", err).With("type_id", typeID)
	}
	a, err := r.New(typeID)
	if err != nil {
		return nil, err
	}
	if err := a.LoadPlainValue(values); err != nil {
		return nil, errs.Validationf("malformed action values: %v", err).With("type_id", typeID)
	}
	return a, nil
}
