package model

import (
	"github.com/ethereum/go-ethereum/crypto"

	"chronicles.ai/internal/sim/address"
	"chronicles.ai/internal/sim/encoding"
	"chronicles.ai/internal/sim/state"
)

// PendingActivation is an invitation: whoever can sign Nonce with the key
// behind PublicKey may activate an account.
type PendingActivation struct {
	Address   address.Address
	Nonce     []byte
	PublicKey []byte
}

// PendingActivationAddress derives from the address of the public key.
func PendingActivationAddress(publicKey []byte) (address.Address, error) {
	pub, err := crypto.UnmarshalPubkey(publicKey)
	if err != nil {
		return address.Zero, err
	}
	return address.Derive(crypto.PubkeyToAddress(*pub), address.LabelPendingActivation), nil
}

// Verify checks a 64 or 65 byte secp256k1 signature over Keccak256(nonce).
func (p PendingActivation) Verify(sig []byte) bool {
	if len(sig) == crypto.SignatureLength {
		sig = sig[:crypto.SignatureLength-1]
	}
	if len(sig) != crypto.SignatureLength-1 {
		return false
	}
	return crypto.VerifySignature(p.PublicKey, crypto.Keccak256(p.Nonce), sig)
}

func (p PendingActivation) ToValue() encoding.Map {
	return encoding.NewMap(
		kv("address", address.ToValue(p.Address)),
		kv("nonce", encoding.Binary(p.Nonce)),
		kv("publicKey", encoding.Binary(p.PublicKey)),
	)
}

func LoadPendingActivation(w *state.World, a address.Address) (PendingActivation, error) {
	var p PendingActivation
	m, err := loadMap(w, a, "pending activation")
	if err != nil {
		return p, err
	}
	if p.Address, err = addrAt(m, "address"); err != nil {
		return p, err
	}
	if p.Nonce, err = m.Binary("nonce"); err != nil {
		return p, err
	}
	if p.PublicKey, err = m.Binary("publicKey"); err != nil {
		return p, err
	}
	return p, nil
}

// ActivatedAccounts is the sorted set of activated agents.
type ActivatedAccounts struct {
	Accounts []address.Address
}

func LoadActivatedAccounts(w *state.World) (*ActivatedAccounts, error) {
	m, err := loadMap(w, address.ActivatedAccounts, "activated accounts")
	if err != nil {
		return nil, err
	}
	v, err := m.Value("accounts")
	if err != nil {
		return nil, err
	}
	list, err := address.ListFromValue(v)
	if err != nil {
		return nil, err
	}
	return &ActivatedAccounts{Accounts: list}, nil
}

func (a *ActivatedAccounts) Add(acct address.Address) {
	a.Accounts = address.Dedup(append(a.Accounts, acct))
}

func (a *ActivatedAccounts) Contains(acct address.Address) bool {
	for _, x := range a.Accounts {
		if x == acct {
			return true
		}
	}
	return false
}

func (a *ActivatedAccounts) ToValue() encoding.Map {
	return encoding.NewMap(kv("accounts", address.ListValue(a.Accounts)))
}

func (a *ActivatedAccounts) Save(w *state.World) *state.World {
	return w.Set(address.ActivatedAccounts, a.ToValue())
}
