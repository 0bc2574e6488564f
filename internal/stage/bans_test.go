package stage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"chronicles.ai/internal/sim/address"
)

func TestTTLBanListExpires(t *testing.T) {
	l := NewTTLBanList(4)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.Ban(alice, now.Add(time.Minute))

	assert.True(t, l.Banned(alice, now))
	assert.False(t, l.Banned(bob, now))
	assert.False(t, l.Banned(alice, now.Add(time.Minute)))
	assert.Zero(t, l.Len())
}

func TestTTLBanListPermanentAndUnban(t *testing.T) {
	l := NewTTLBanList(4)
	l.Ban(alice, time.Time{})
	assert.True(t, l.Banned(alice, time.Now().Add(1000*time.Hour)))
	l.Unban(alice)
	assert.False(t, l.Banned(alice, time.Now()))
}

func TestTTLBanListIsBounded(t *testing.T) {
	l := NewTTLBanList(2)
	far := time.Now().Add(time.Hour)
	carol := address.Derive(address.Admin, "stage_carol")

	l.Ban(alice, time.Time{})
	l.Ban(bob, far)
	l.Ban(carol, far.Add(time.Hour))

	assert.Equal(t, 2, l.Len())
	assert.True(t, l.Banned(alice, time.Now()), "permanent bans are kept")
	assert.False(t, l.Banned(bob, time.Now()), "the ban expiring soonest is evicted")
	assert.True(t, l.Banned(carol, time.Now()))

	// With only permanent bans left, new entries are refused.
	l2 := NewTTLBanList(1)
	l2.Ban(alice, time.Time{})
	l2.Ban(bob, far)
	assert.False(t, l2.Banned(bob, time.Now()))
	assert.Equal(t, 1, l2.Len())
}
