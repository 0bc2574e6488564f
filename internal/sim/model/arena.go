package model

import (
	"github.com/google/uuid"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/errs"
	"chronicles.ai/internal/sim/state"
)

const ArenaScoreDefault = 1000

func ArenaScoreAddress(avatar address.Address, championship, round int) address.Address {
	return address.Derive(avatar, address.Label(address.LabelArenaScore, int64(championship), int64(round)))
}

func ArenaInformationAddress(avatar address.Address, championship, round int) address.Address {
	return address.Derive(avatar, address.Label(address.LabelArenaInformation, int64(championship), int64(round)))
}

func ArenaParticipantsAddress(championship, round int) address.Address {
	return address.Derive(address.ArenaPool, address.Label(address.LabelArenaParticipants, int64(championship), int64(round)))
}

func ArenaAvatarAddress(avatar address.Address) address.Address {
	return address.Derive(avatar, address.LabelArenaAvatar)
}

type ArenaScore struct {
	Address address.Address
	Avatar  address.Address
	Score   int64
}

func NewArenaScore(avatar address.Address, championship, round int) *ArenaScore {
	return &ArenaScore{
		Address: ArenaScoreAddress(avatar, championship, round),
		Avatar:  avatar,
		Score:   ArenaScoreDefault,
	}
}

// AddScore never lets the score drop below zero.
func (s *ArenaScore) AddScore(delta int64) {
	s.Score += delta
	if s.Score < 0 {
		s.Score = 0
	}
}

func (s *ArenaScore) ToValue() encoding.Map {
	return encoding.NewMap(kv("avatar", address.ToValue(s.Avatar)), kv("score", i64(s.Score)))
}

func LoadArenaScore(w *state.World, a address.Address) (*ArenaScore, error) {
	m, err := loadMap(w, a, "arena score")
	if err != nil {
		return nil, err
	}
	s := &ArenaScore{Address: a}
	if s.Avatar, err = addrAt(m, "avatar"); err != nil {
		return nil, err
	}
	if s.Score, err = m.Int64("score"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ArenaScore) Save(w *state.World) *state.World { return w.Set(s.Address, s.ToValue()) }

// ArenaInformation is an avatar's record and tickets for one round.
type ArenaInformation struct {
	Address                 address.Address
	Avatar                  address.Address
	Win                     int
	Lose                    int
	Ticket                  int
	TicketResetCount        int
	PurchasedTicketCount    int
	PurchasedDuringInterval int
}

func NewArenaInformation(avatar address.Address, championship, round, tickets int) *ArenaInformation {
	return &ArenaInformation{
		Address: ArenaInformationAddress(avatar, championship, round),
		Avatar:  avatar,
		Ticket:  tickets,
	}
}

func (ai *ArenaInformation) UseTicket(n int) error {
	if ai.Ticket < n {
		return errs.Validationf("not enough arena tickets").With("have", ai.Ticket).With("need", n)
	}
	ai.Ticket -= n
	return nil
}

func (ai *ArenaInformation) BuyTicket(maxPurchase int) error {
	if ai.PurchasedTicketCount >= maxPurchase {
		return errs.Validationf("ticket purchase limit reached").With("limit", maxPurchase)
	}
	ai.PurchasedTicketCount++
	return nil
}

// ResetTicket refills tickets when a new daily interval starts.
func (ai *ArenaInformation) ResetTicket(resetCount, tickets int) {
	ai.Ticket = tickets
	ai.TicketResetCount = resetCount
	ai.PurchasedDuringInterval = 0
}

func (ai *ArenaInformation) UpdateRecord(win, lose int) {
	ai.Win += win
	ai.Lose += lose
}

func (ai *ArenaInformation) ToValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar", address.ToValue(ai.Avatar)),
		kv("win", i64(int64(ai.Win))),
		kv("lose", i64(int64(ai.Lose))),
		kv("ticket", i64(int64(ai.Ticket))),
		kv("ticketResetCount", i64(int64(ai.TicketResetCount))),
		kv("purchasedTicketCount", i64(int64(ai.PurchasedTicketCount))),
		kv("purchasedDuringInterval", i64(int64(ai.PurchasedDuringInterval))),
	)
}

func LoadArenaInformation(w *state.World, a address.Address) (*ArenaInformation, error) {
	m, err := loadMap(w, a, "arena information")
	if err != nil {
		return nil, err
	}
	ai := &ArenaInformation{Address: a}
	if ai.Avatar, err = addrAt(m, "avatar"); err != nil {
		return nil, err
	}
	fields := []struct {
		key string
		dst *int
	}{
		{"win", &ai.Win},
		{"lose", &ai.Lose},
		{"ticket", &ai.Ticket},
		{"ticketResetCount", &ai.TicketResetCount},
		{"purchasedTicketCount", &ai.PurchasedTicketCount},
		{"purchasedDuringInterval", &ai.PurchasedDuringInterval},
	}
	for _, f := range fields {
		if *f.dst, err = m.Int(f.key); err != nil {
			return nil, err
		}
	}
	return ai, nil
}

func (ai *ArenaInformation) Save(w *state.World) *state.World {
	return w.Set(ai.Address, ai.ToValue())
}

type ArenaParticipants struct {
	Address address.Address
	Avatars []address.Address
}

// LoadArenaParticipants returns an empty list when the round has none yet.
func LoadArenaParticipants(w *state.World, championship, round int) (*ArenaParticipants, error) {
	a := ArenaParticipantsAddress(championship, round)
	p := &ArenaParticipants{Address: a}
	v, ok := w.Get(a)
	if !ok {
		return p, nil
	}
	list, err := address.ListFromValue(v)
	if err != nil {
		return nil, err
	}
	p.Avatars = list
	return p, nil
}

func (p *ArenaParticipants) Contains(avatar address.Address) bool {
	for _, a := range p.Avatars {
		if a == avatar {
			return true
		}
	}
	return false
}

func (p *ArenaParticipants) Add(avatar address.Address) {
	if !p.Contains(avatar) {
		p.Avatars = append(p.Avatars, avatar)
	}
}

func (p *ArenaParticipants) Save(w *state.World) *state.World {
	return w.Set(p.Address, address.ListValue(p.Avatars))
}

// ArenaAvatarState is the loadout an avatar fights with in the arena.
type ArenaAvatarState struct {
	Address              address.Address
	Equipment            []uuid.UUID
	Runes                []int
	LastBattleBlockIndex int64
}

func NewArenaAvatarState(avatar address.Address) *ArenaAvatarState {
	return &ArenaAvatarState{Address: ArenaAvatarAddress(avatar)}
}

func (s *ArenaAvatarState) ToValue() encoding.Map {
	eq := make(encoding.List, 0, len(s.Equipment))
	for _, id := range s.Equipment {
		eq = append(eq, UUIDValue(id))
	}
	return encoding.NewMap(
		kv("equipment", eq),
		kv("runes", encoding.Ints(s.Runes)),
		kv("lastBattleBlockIndex", i64(s.LastBattleBlockIndex)),
	)
}

func LoadArenaAvatarState(w *state.World, avatar address.Address) (*ArenaAvatarState, error) {
	a := ArenaAvatarAddress(avatar)
	m, err := loadMap(w, a, "arena avatar state")
	if err != nil {
		return nil, err
	}
	s := &ArenaAvatarState{Address: a}
	eq, err := m.List("equipment")
	if err != nil {
		return nil, err
	}
	for _, v := range eq {
		id, err := UUIDFromValue(v)
		if err != nil {
			return nil, err
		}
		s.Equipment = append(s.Equipment, id)
	}
	if s.Runes, err = m.Ints("runes"); err != nil {
		return nil, err
	}
	if s.LastBattleBlockIndex, err = m.Int64("lastBattleBlockIndex"); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ArenaAvatarState) Save(w *state.World) *state.World {
	return w.Set(s.Address, s.ToValue())
}
