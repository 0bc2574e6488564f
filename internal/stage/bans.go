package stage

import (
	"sync"
	"time"

	"chronicles.ai/internal/sim/address"
)

// BanList decides whether a signer may stage transactions. It is injected
// into the Pool so operators can back it with their own store.
type BanList interface {
	Banned(a address.Address, now time.Time) bool
	// Ban blocks a until the given time; the zero time bans permanently.
	Ban(a address.Address, until time.Time)
	Unban(a address.Address)
}

// TTLBanList is an in-memory BanList holding at most max entries. When full,
// expired entries go first, then the one expiring soonest. Permanent bans
// are never evicted.
type TTLBanList struct {
	mu    sync.Mutex
	max   int
	until map[address.Address]time.Time
}

func NewTTLBanList(max int) *TTLBanList {
	if max <= 0 {
		max = 1
	}
	return &TTLBanList{max: max, until: make(map[address.Address]time.Time)}
}

func (l *TTLBanList) Banned(a address.Address, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	until, ok := l.until[a]
	if !ok {
		return false
	}
	if until.IsZero() || now.Before(until) {
		return true
	}
	delete(l.until, a)
	return false
}

func (l *TTLBanList) Ban(a address.Address, until time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.until[a]; !ok && len(l.until) >= l.max {
		l.evictLocked(time.Now())
		if len(l.until) >= l.max {
			return
		}
	}
	l.until[a] = until
}

func (l *TTLBanList) Unban(a address.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.until, a)
}

func (l *TTLBanList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.until)
}

func (l *TTLBanList) evictLocked(now time.Time) {
	var (
		victim   address.Address
		earliest time.Time
		found    bool
	)
	for a, until := range l.until {
		if until.IsZero() {
			continue
		}
		if !now.Before(until) {
			delete(l.until, a)
			continue
		}
		// Ties broken by address so eviction does not depend on map order.
		if !found || until.Before(earliest) || (until.Equal(earliest) && address.Compare(a, victim) < 0) {
			victim, earliest, found = a, until, true
		}
	}
	if len(l.until) >= l.max && found {
		delete(l.until, victim)
	}
}
