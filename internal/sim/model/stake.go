package model

import (
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/state"
)

// StakeLockupBlocks is how long a stake cannot be lowered after it starts.
const StakeLockupBlocks = 201600

func StakeAddress(agent address.Address) address.Address {
	return address.Derive(agent, address.LabelStake)
}

// StakeState records when an agent staked and when it last claimed. The
// staked gold itself is the balance held at the stake address.
type StakeState struct {
	Address               address.Address
	StartedBlockIndex     int64
	ReceivedBlockIndex    int64
	CancellableBlockIndex int64
}

func NewStakeState(agent address.Address, height int64) *StakeState {
	return &StakeState{
		Address:               StakeAddress(agent),
		StartedBlockIndex:     height,
		CancellableBlockIndex: height + StakeLockupBlocks,
	}
}

// RewardSteps is how many full intervals passed since the last claim, or
// since the stake started when nothing was claimed yet.
func (s *StakeState) RewardSteps(height, interval int64) int64 {
	if interval <= 0 {
		return 0
	}
	from := s.StartedBlockIndex
	if s.ReceivedBlockIndex > 0 {
		from = s.ReceivedBlockIndex
	}
	if height <= from {
		return 0
	}
	return (height - from) / interval
}

// Claim advances the received index by whole intervals only.
func (s *StakeState) Claim(steps, interval int64) {
	from := s.StartedBlockIndex
	if s.ReceivedBlockIndex > 0 {
		from = s.ReceivedBlockIndex
	}
	s.ReceivedBlockIndex = from + steps*interval
}

func (s *StakeState) ToValue() encoding.Map {
	return encoding.NewMap(
		kv("startedBlockIndex", i64(s.StartedBlockIndex)),
		kv("receivedBlockIndex", i64(s.ReceivedBlockIndex)),
		kv("cancellableBlockIndex", i64(s.CancellableBlockIndex)),
	)
}

// LoadStakeState reports false when agent never staked.
func LoadStakeState(w *state.World, agent address.Address) (*StakeState, bool, error) {
	a := StakeAddress(agent)
	if _, ok := w.Get(a); !ok {
		return nil, false, nil
	}
	m, err := loadMap(w, a, "stake")
	if err != nil {
		return nil, false, err
	}
	s := &StakeState{Address: a}
	if s.StartedBlockIndex, err = m.Int64("startedBlockIndex"); err != nil {
		return nil, false, err
	}
	if s.ReceivedBlockIndex, err = m.Int64("receivedBlockIndex"); err != nil {
		return nil, false, err
	}
	if s.CancellableBlockIndex, err = m.Int64("cancellableBlockIndex"); err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (s *StakeState) Save(w *state.World) *state.World { return w.Set(s.Address, s.ToValue()) }
