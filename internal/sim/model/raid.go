package model

import (
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/catalogs"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/state"
)

func WorldBossAddress(raidID int) address.Address {
	return address.Derive(address.WorldBossRoot, address.Label(address.LabelWorldBoss, int64(raidID)))
}

func RaiderAddress(avatar address.Address, raidID int) address.Address {
	return address.Derive(avatar, address.Label(address.LabelRaider, int64(raidID)))
}

func RaiderListAddress(raidID int) address.Address {
	return address.Derive(address.WorldBossRoot, address.Label(address.LabelRaiderList, int64(raidID)))
}

// WorldBossState is the shared boss every raider of a season damages.
type WorldBossState struct {
	Address      address.Address
	ID           int
	Level        int
	CurrentHP    int64
	StartedBlock int64
	EndedBlock   int64
}

func NewWorldBossState(row catalogs.WorldBossRow, hp catalogs.WorldBossHpRow) *WorldBossState {
	return &WorldBossState{
		Address:      WorldBossAddress(row.ID),
		ID:           row.ID,
		Level:        hp.Level,
		CurrentHP:    hp.HP,
		StartedBlock: row.StartedBlock,
		EndedBlock:   row.EndedBlock,
	}
}

func (b *WorldBossState) ToValue() encoding.Map {
	return encoding.NewMap(
		kv("id", i64(int64(b.ID))),
		kv("level", i64(int64(b.Level))),
		kv("currentHp", i64(b.CurrentHP)),
		kv("startedBlock", i64(b.StartedBlock)),
		kv("endedBlock", i64(b.EndedBlock)),
	)
}

// LoadWorldBossState reports false when the boss has not been fought yet.
func LoadWorldBossState(w *state.World, raidID int) (*WorldBossState, bool, error) {
	a := WorldBossAddress(raidID)
	if _, ok := w.Get(a); !ok {
		return nil, false, nil
	}
	m, err := loadMap(w, a, "world boss")
	if err != nil {
		return nil, false, err
	}
	b := &WorldBossState{Address: a}
	if b.ID, err = m.Int("id"); err != nil {
		return nil, false, err
	}
	if b.Level, err = m.Int("level"); err != nil {
		return nil, false, err
	}
	if b.CurrentHP, err = m.Int64("currentHp"); err != nil {
		return nil, false, err
	}
	if b.StartedBlock, err = m.Int64("startedBlock"); err != nil {
		return nil, false, err
	}
	if b.EndedBlock, err = m.Int64("endedBlock"); err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (b *WorldBossState) Save(w *state.World) *state.World { return w.Set(b.Address, b.ToValue()) }

type RaiderState struct {
	Address              address.Address
	Avatar               address.Address
	AvatarName           string
	Level                int
	TotalScore           int64
	HighScore            int64
	TotalChallengeCount  int
	RemainChallengeCount int
	LatestRewardRank     int
	PurchaseCount        int
	RefillBlockIndex     int64
	UpdatedBlockIndex    int64
	LatestBossLevel      int
}

func NewRaiderState(avatar address.Address, raidID int) *RaiderState {
	return &RaiderState{Address: RaiderAddress(avatar, raidID), Avatar: avatar}
}

// Record applies one challenge's score.
func (r *RaiderState) Record(av *Avatar, score int64, height int64) {
	r.AvatarName = av.Name
	r.Level = av.Level
	r.TotalScore += score
	if score > r.HighScore {
		r.HighScore = score
	}
	r.TotalChallengeCount++
	if r.RemainChallengeCount > 0 {
		r.RemainChallengeCount--
	}
	r.UpdatedBlockIndex = height
}

func (r *RaiderState) ToValue() encoding.Map {
	return encoding.NewMap(
		kv("avatar", address.ToValue(r.Avatar)),
		kv("name", encoding.Text(r.AvatarName)),
		kv("level", i64(int64(r.Level))),
		kv("totalScore", i64(r.TotalScore)),
		kv("highScore", i64(r.HighScore)),
		kv("totalChallengeCount", i64(int64(r.TotalChallengeCount))),
		kv("remainChallengeCount", i64(int64(r.RemainChallengeCount))),
		kv("latestRewardRank", i64(int64(r.LatestRewardRank))),
		kv("purchaseCount", i64(int64(r.PurchaseCount))),
		kv("refillBlockIndex", i64(r.RefillBlockIndex)),
		kv("updatedBlockIndex", i64(r.UpdatedBlockIndex)),
		kv("latestBossLevel", i64(int64(r.LatestBossLevel))),
	)
}

// LoadRaiderState reports false when the avatar never challenged this raid.
func LoadRaiderState(w *state.World, avatar address.Address, raidID int) (*RaiderState, bool, error) {
	a := RaiderAddress(avatar, raidID)
	if _, ok := w.Get(a); !ok {
		return nil, false, nil
	}
	m, err := loadMap(w, a, "raider")
	if err != nil {
		return nil, false, err
	}
	r := &RaiderState{Address: a}
	if r.Avatar, err = addrAt(m, "avatar"); err != nil {
		return nil, false, err
	}
	if r.AvatarName, err = m.Text("name"); err != nil {
		return nil, false, err
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"level", &r.Level},
		{"totalChallengeCount", &r.TotalChallengeCount},
		{"remainChallengeCount", &r.RemainChallengeCount},
		{"latestRewardRank", &r.LatestRewardRank},
		{"purchaseCount", &r.PurchaseCount},
		{"latestBossLevel", &r.LatestBossLevel},
	}
	for _, f := range ints {
		if *f.dst, err = m.Int(f.key); err != nil {
			return nil, false, err
		}
	}
	longs := []struct {
		key string
		dst *int64
	}{
		{"totalScore", &r.TotalScore},
		{"highScore", &r.HighScore},
		{"refillBlockIndex", &r.RefillBlockIndex},
		{"updatedBlockIndex", &r.UpdatedBlockIndex},
	}
	for _, f := range longs {
		if *f.dst, err = m.Int64(f.key); err != nil {
			return nil, false, err
		}
	}
	return r, true, nil
}

func (r *RaiderState) Save(w *state.World) *state.World { return w.Set(r.Address, r.ToValue()) }

// AppendRaider adds raider to the raid's list of raider addresses.
func AppendRaider(w *state.World, raidID int, raider address.Address) (*state.World, error) {
	a := RaiderListAddress(raidID)
	var list []address.Address
	if v, ok := w.Get(a); ok {
		var err error
		if list, err = address.ListFromValue(v); err != nil {
			return w, err
		}
	}
	list = append(list, raider)
	return w.Set(a, address.ListValue(list)), nil
}

func RaiderList(w *state.World, raidID int) ([]address.Address, error) {
	v, ok := w.Get(RaiderListAddress(raidID))
	if !ok {
		return nil, nil
	}
	return address.ListFromValue(v)
}
