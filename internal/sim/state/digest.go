package state

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"chronicles.ai/internal/sim/encoding"
)

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteBytes(h hashWriter, tmp *[8]byte, b []byte) {
	digestWriteU64(h, tmp, uint64(len(b)))
	h.Write(b)
}

// StateRoot is a SHA-256 over every live state and every non-zero balance in
// address order.
func (w *World) StateRoot() [32]byte {
	h := sha256.New()
	var tmp [8]byte

	addrs := w.Addresses()
	h.Write([]byte("states"))
	digestWriteU64(h, &tmp, uint64(len(addrs)))
	for _, a := range addrs {
		v, _ := w.Get(a)
		h.Write(a[:])
		digestWriteBytes(h, &tmp, encoding.MustEncode(v))
	}

	bals := w.Balances()
	h.Write([]byte("balances"))
	digestWriteU64(h, &tmp, uint64(len(bals)))
	for _, b := range bals {
		h.Write(b.Address[:])
		digestWriteBytes(h, &tmp, []byte(b.Amount.Currency.ID()))
		digestWriteBytes(h, &tmp, b.Amount.Raw().Bytes())
		if b.Amount.Sign() < 0 {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (w *World) StateRootHex() string {
	r := w.StateRoot()
	return hex.EncodeToString(r[:])
}
