package model

import (
	"sort"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

const AvatarSlots = 3

// Agent is the account behind a signer. It owns up to AvatarSlots avatars.
type Agent struct {
	Address address.Address
	Avatars map[int]address.Address
}

func NewAgent(a address.Address) *Agent {
	return &Agent{Address: a, Avatars: map[int]address.Address{}}
}

// AvatarAddress is the address of the avatar in slot of agent.
func AvatarAddress(agent address.Address, slot int) address.Address {
	return address.Derive(agent, address.Label(address.LabelAvatar, int64(slot)))
}

func (a *Agent) Owns(avatar address.Address) bool {
	for _, v := range a.Avatars {
		if v == avatar {
			return true
		}
	}
	return false
}

func (a *Agent) ToValue() encoding.Map {
	slots := make([]int, 0, len(a.Avatars))
	for s := range a.Avatars {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	list := make(encoding.List, 0, len(slots))
	for _, s := range slots {
		list = append(list, encoding.List{i64(int64(s)), address.ToValue(a.Avatars[s])})
	}
	return encoding.NewMap(kv("address", address.ToValue(a.Address)), kv("avatars", list))
}

func AgentFromValue(m encoding.Map) (*Agent, error) {
	addr, err := addrAt(m, "address")
	if err != nil {
		return nil, err
	}
	list, err := m.List("avatars")
	if err != nil {
		return nil, err
	}
	a := NewAgent(addr)
	for _, item := range list {
		pair, err := encoding.AsList(item)
		if err != nil || len(pair) != 2 {
			return nil, errs.Validationf("malformed avatar slot entry")
		}
		slot, err := encoding.AsInt(pair[0])
		if err != nil {
			return nil, err
		}
		av, err := address.FromValue(pair[1])
		if err != nil {
			return nil, err
		}
		a.Avatars[slot] = av
	}
	return a, nil
}

func LoadAgent(w *state.World, a address.Address) (*Agent, error) {
	m, err := loadMap(w, a, "agent")
	if err != nil {
		return nil, err
	}
	return AgentFromValue(m)
}

func (a *Agent) Save(w *state.World) *state.World {
	return w.Set(a.Address, a.ToValue())
}
