// Package stage admits submitted transactions into the pool the node loop
// drains once per block.
package stage

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"chronicles.ai/internal/protocol"
	"chronicles.ai/internal/sim/action"
	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/tuning"
)

// Tx is a signed action waiting for a block.
type Tx struct {
	ID         uuid.UUID
	Signer     address.Address
	Nonce      uint64
	Action     []byte
	TypeID     string
	ReceivedAt time.Time
}

// Rejection is returned by Stage; Code is a protocol error code.
type Rejection struct {
	Code string
	Msg  string
}

func (r *Rejection) Error() string { return r.Code + ": " + r.Msg }

func reject(code, msg string) *Rejection { return &Rejection{Code: code, Msg: msg} }

type Pool struct {
	reg  *action.Registry
	cfg  tuning.Admission
	bans BanList
	log  zerolog.Logger
	now  func() time.Time

	mu        sync.Mutex
	pending   map[address.Address][]Tx
	nextNonce map[address.Address]uint64
	limiters  map[address.Address]*rate.Limiter
	size      int
}

type Option func(*Pool)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(p *Pool) { p.now = now } }

func NewPool(reg *action.Registry, cfg tuning.Admission, bans BanList, log zerolog.Logger, opts ...Option) *Pool {
	if bans == nil {
		bans = NewTTLBanList(cfg.MaxBans)
	}
	p := &Pool{
		reg:       reg,
		cfg:       cfg,
		bans:      bans,
		log:       log.With().Str("component", "stage").Logger(),
		now:       time.Now,
		pending:   make(map[address.Address][]Tx),
		nextNonce: make(map[address.Address]uint64),
		limiters:  make(map[address.Address]*rate.Limiter),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pool) Bans() BanList { return p.bans }

// Stage admits tx for the block at nextHeight. The returned Tx carries the
// assigned id and decoded type id.
func (p *Pool) Stage(tx Tx, nextHeight int64) (Tx, error) {
	now := p.now()
	if p.bans.Banned(tx.Signer, now) {
		return tx, reject(protocol.ErrBlocked, "signer is banned")
	}

	a, err := p.reg.Decode(tx.Action)
	if err != nil {
		return tx, reject(protocol.ErrBadRequest, err.Error())
	}
	tx.TypeID = a.TypeID()
	// obsoleteAt + grace <= nextHeight, written so NeverObsolete cannot overflow.
	if obsoleteAt, ok := p.reg.ObsoleteAt(tx.TypeID); ok && obsoleteAt <= nextHeight-p.cfg.ObsoleteGrace {
		return tx, reject(protocol.ErrObsolete, tx.TypeID+" is obsolete")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.limiterLocked(tx.Signer).AllowN(now, 1) {
		return tx, reject(protocol.ErrRateLimit, "too many submissions")
	}
	if tx.Nonce < p.nextNonce[tx.Signer] {
		return tx, reject(protocol.ErrConflict, "nonce already used")
	}
	queue := p.pending[tx.Signer]
	for _, q := range queue {
		if q.Nonce == tx.Nonce {
			return tx, reject(protocol.ErrConflict, "nonce already staged")
		}
	}
	if p.cfg.QuotaPerSigner > 0 && len(queue) >= p.cfg.QuotaPerSigner {
		if p.cfg.BanSeconds > 0 {
			p.bans.Ban(tx.Signer, now.Add(time.Duration(p.cfg.BanSeconds)*time.Second))
			p.log.Info().Str("signer", tx.Signer.Hex()).Int("ban_seconds", p.cfg.BanSeconds).Msg("signer over quota, banned")
		}
		return tx, reject(protocol.ErrQuota, "per-signer quota reached")
	}

	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.ReceivedAt = now
	p.pending[tx.Signer] = append(queue, tx)
	p.size++
	p.log.Debug().Str("tx_id", tx.ID.String()).Str("signer", tx.Signer.Hex()).Uint64("nonce", tx.Nonce).Str("type_id", tx.TypeID).Msg("staged")
	return tx, nil
}

func (p *Pool) limiterLocked(a address.Address) *rate.Limiter {
	l, ok := p.limiters[a]
	if !ok {
		limit := rate.Inf
		if p.cfg.SignerRatePerSec > 0 {
			limit = rate.Limit(p.cfg.SignerRatePerSec)
		}
		burst := p.cfg.SignerBurst
		if burst <= 0 {
			burst = 1
		}
		l = rate.NewLimiter(limit, burst)
		p.limiters[a] = l
	}
	return l
}

// Take removes and returns up to max staged transactions, ordered by signer
// then nonce. Expired transactions are dropped. A signer's nonces below the
// highest taken one can no longer be staged.
func (p *Pool) Take(max int) []Tx {
	now := p.now()
	p.mu.Lock()
	defer p.mu.Unlock()

	signers := make([]address.Address, 0, len(p.pending))
	for a := range p.pending {
		signers = append(signers, a)
	}
	address.Sort(signers)

	lifetime := time.Duration(p.cfg.TxLifetimeSeconds) * time.Second
	var out []Tx
	for _, a := range signers {
		queue := p.pending[a]
		sort.Slice(queue, func(i, j int) bool { return queue[i].Nonce < queue[j].Nonce })

		kept := queue[:0]
		for _, tx := range queue {
			switch {
			case lifetime > 0 && now.Sub(tx.ReceivedAt) >= lifetime:
				p.size--
				p.log.Debug().Str("tx_id", tx.ID.String()).Msg("staged tx expired")
			case max > 0 && len(out) >= max:
				kept = append(kept, tx)
			default:
				out = append(out, tx)
				p.size--
				p.nextNonce[a] = tx.Nonce + 1
			}
		}
		if len(kept) == 0 {
			delete(p.pending, a)
		} else {
			p.pending[a] = kept
		}
	}
	return out
}

func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// NextNonce is the smallest nonce signer may still stage.
func (p *Pool) NextNonce(a address.Address) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextNonce[a]
}
