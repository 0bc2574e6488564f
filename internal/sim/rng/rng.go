// Package rng is the seeded random source of a single execution. Draw i of
// seed s is At(s, i); nothing else influences the output.
package rng

import (
	"math/bits"

	"github.com/google/uuid"
)

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// At is draw index i of seed.
func At(seed int64, i uint64) uint64 {
	return mix64(uint64(seed) ^ mix64(i*0xc2b2ae3d27d4eb4f))
}

// Random is not safe for concurrent use; each execution owns one.
type Random struct {
	seed  int64
	draws uint64
}

func New(seed int64) *Random { return &Random{seed: seed} }

func (r *Random) Seed() int64 { return r.seed }

// Draws is the number of values consumed so far.
func (r *Random) Draws() uint64 { return r.draws }

func (r *Random) Uint64() uint64 {
	v := At(r.seed, r.draws)
	r.draws++
	return v
}

// Intn returns a value in [0, n). n must be positive.
func (r *Random) Intn(n int) int {
	if n <= 0 {
		panic("rng: Intn with non-positive n")
	}
	hi, _ := bits.Mul64(r.Uint64(), uint64(n))
	return int(hi)
}

// Int63n returns a value in [0, n). n must be positive.
func (r *Random) Int63n(n int64) int64 {
	if n <= 0 {
		panic("rng: Int63n with non-positive n")
	}
	hi, _ := bits.Mul64(r.Uint64(), uint64(n))
	return int64(hi)
}

// Next returns a value in [min, max).
func (r *Random) Next(min, max int) int {
	if max <= min {
		panic("rng: empty range")
	}
	return min + r.Intn(max-min)
}

// UUID builds a version 4 UUID from two draws.
func (r *Random) UUID() uuid.UUID {
	var u uuid.UUID
	a, b := r.Uint64(), r.Uint64()
	for i := 0; i < 8; i++ {
		u[i] = byte(a >> (56 - 8*i))
		u[8+i] = byte(b >> (56 - 8*i))
	}
	u[6] = (u[6] & 0x0f) | 0x40
	u[8] = (u[8] & 0x3f) | 0x80
	return u
}
