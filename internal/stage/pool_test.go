package stage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chronicles.ai/internal/protocol"
	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/tuning"
)

var (
	alice = address.Derive(address.Admin, "stage_alice")
	bob   = address.Derive(address.Admin, "stage_bob")
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newPool(t *testing.T, mutate func(*tuning.Admission)) (*Pool, *clock) {
	t.Helper()
	cfg := tuning.Default().Admission
	cfg.SignerRatePerSec = 0
	if mutate != nil {
		mutate(&cfg)
	}
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewPool(action.DefaultRegistry(), cfg, nil, zerolog.Nop(), WithClock(c.now)), c
}

func encode(t *testing.T, a action.Action) []byte {
	t.Helper()
	b, err := action.DefaultRegistry().Encode(a)
	require.NoError(t, err)
	return b
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var r *Rejection
	require.ErrorAs(t, err, &r)
	return r.Code
}

func TestStageAssignsIDAndType(t *testing.T) {
	p, _ := newPool(t, nil)
	tx, err := p.Stage(Tx{Signer: alice, Nonce: 0, Action: encode(t, &action.Stake{Amount: 1})}, 1)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, tx.ID)
	assert.Equal(t, action.TypeStake, tx.TypeID)
	assert.Equal(t, 1, p.Len())
}

func TestStageRejectsMalformedAction(t *testing.T) {
	p, _ := newPool(t, nil)
	_, err := p.Stage(Tx{Signer: alice, Action: []byte{0xff, 0x00}}, 1)
	assert.Equal(t, protocol.ErrBadRequest, codeOf(t, err))
	assert.Zero(t, p.Len())
}

func TestStageObsoleteGrace(t *testing.T) {
	p, _ := newPool(t, nil)
	raw := encode(t, &action.SellCancellation{OrderID: uuid.New()})

	_, err := p.Stage(Tx{Signer: alice, Nonce: 0, Action: raw}, action.ObsoleteV100080+1)
	require.NoError(t, err)
	_, err = p.Stage(Tx{Signer: alice, Nonce: 1, Action: raw}, action.ObsoleteV100080+2)
	assert.Equal(t, protocol.ErrObsolete, codeOf(t, err))

	// Types that never retire stay admissible at any height.
	_, err = p.Stage(Tx{Signer: alice, Nonce: 2, Action: encode(t, &action.Stake{Amount: 1})}, 1<<62)
	assert.NoError(t, err)
}

func TestStageQuotaBansSigner(t *testing.T) {
	p, c := newPool(t, func(a *tuning.Admission) { a.QuotaPerSigner = 2 })
	raw := encode(t, &action.Stake{Amount: 1})

	for n := uint64(0); n < 2; n++ {
		_, err := p.Stage(Tx{Signer: alice, Nonce: n, Action: raw}, 1)
		require.NoError(t, err)
	}
	_, err := p.Stage(Tx{Signer: alice, Nonce: 2, Action: raw}, 1)
	assert.Equal(t, protocol.ErrQuota, codeOf(t, err))

	// Other signers are unaffected.
	_, err = p.Stage(Tx{Signer: bob, Nonce: 0, Action: raw}, 1)
	require.NoError(t, err)

	p.Take(0)
	_, err = p.Stage(Tx{Signer: alice, Nonce: 3, Action: raw}, 2)
	assert.Equal(t, protocol.ErrBlocked, codeOf(t, err))

	c.advance(time.Duration(tuning.Default().Admission.BanSeconds) * time.Second)
	_, err = p.Stage(Tx{Signer: alice, Nonce: 3, Action: raw}, 2)
	assert.NoError(t, err)
}

func TestStageNonces(t *testing.T) {
	p, _ := newPool(t, nil)
	raw := encode(t, &action.Stake{Amount: 1})

	_, err := p.Stage(Tx{Signer: alice, Nonce: 4, Action: raw}, 1)
	require.NoError(t, err)
	_, err = p.Stage(Tx{Signer: alice, Nonce: 4, Action: raw}, 1)
	assert.Equal(t, protocol.ErrConflict, codeOf(t, err))

	p.Take(0)
	assert.EqualValues(t, 5, p.NextNonce(alice))
	_, err = p.Stage(Tx{Signer: alice, Nonce: 3, Action: raw}, 2)
	assert.Equal(t, protocol.ErrConflict, codeOf(t, err))
}

func TestStageRateLimit(t *testing.T) {
	p, c := newPool(t, func(a *tuning.Admission) {
		a.SignerRatePerSec = 1
		a.SignerBurst = 2
		a.QuotaPerSigner = 100
	})
	raw := encode(t, &action.Stake{Amount: 1})

	for n := uint64(0); n < 2; n++ {
		_, err := p.Stage(Tx{Signer: alice, Nonce: n, Action: raw}, 1)
		require.NoError(t, err)
	}
	_, err := p.Stage(Tx{Signer: alice, Nonce: 2, Action: raw}, 1)
	assert.Equal(t, protocol.ErrRateLimit, codeOf(t, err))

	c.advance(time.Second)
	_, err = p.Stage(Tx{Signer: alice, Nonce: 2, Action: raw}, 1)
	assert.NoError(t, err)
}

func TestTakeOrdersBySignerThenNonce(t *testing.T) {
	p, _ := newPool(t, nil)
	raw := encode(t, &action.Stake{Amount: 1})
	first, second := alice, bob
	if address.Compare(bob, alice) < 0 {
		first, second = bob, alice
	}
	for _, s := range []struct {
		signer address.Address
		nonce  uint64
	}{{second, 2}, {first, 1}, {second, 0}, {first, 0}, {second, 1}} {
		_, err := p.Stage(Tx{Signer: s.signer, Nonce: s.nonce, Action: raw}, 1)
		require.NoError(t, err)
	}

	got := p.Take(3)
	require.Len(t, got, 3)
	assert.Equal(t, first, got[0].Signer)
	assert.EqualValues(t, 0, got[0].Nonce)
	assert.EqualValues(t, 1, got[1].Nonce)
	assert.Equal(t, second, got[2].Signer)
	assert.EqualValues(t, 0, got[2].Nonce)
	assert.Equal(t, 2, p.Len())

	rest := p.Take(0)
	require.Len(t, rest, 2)
	assert.Equal(t, second, rest[0].Signer)
	assert.EqualValues(t, 1, rest[0].Nonce)
	assert.Zero(t, p.Len())
}

func TestTakeDropsExpired(t *testing.T) {
	p, c := newPool(t, func(a *tuning.Admission) { a.TxLifetimeSeconds = 10 })
	raw := encode(t, &action.Stake{Amount: 1})
	_, err := p.Stage(Tx{Signer: alice, Nonce: 0, Action: raw}, 1)
	require.NoError(t, err)
	c.advance(10 * time.Second)
	_, err = p.Stage(Tx{Signer: bob, Nonce: 0, Action: raw}, 1)
	require.NoError(t, err)

	got := p.Take(0)
	require.Len(t, got, 1)
	assert.Equal(t, bob, got[0].Signer)
	assert.Zero(t, p.Len())
}
