// Package record defines the ledger records the engine operates on: the
// Network registry, liquidity Pools, LPT share accounts, and the fungible
// Holdings the reference token service keeps custody in. Records are stored
// behind a small envelope carrying the record kind and the storage domain
// that owns the slot; payloads are fixed-offset little-endian.
package record

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Address identifies an account, record slot, mint or authority.
type Address [32]byte

// IsZero reports whether the address is all zeroes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String returns the hex form of the address.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// AddressFromHex parses a 64-character hex string into an Address.
func AddressFromHex(s string) (Address, error) {
	var a Address
	raw, err := hex.DecodeString(s)
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if len(raw) != len(a) {
		return a, fmt.Errorf("invalid address length %d, want %d", len(raw), len(a))
	}
	copy(a[:], raw)
	return a, nil
}

// MarshalJSON renders the address as a hex string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON parses an address from its hex string form.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := AddressFromHex(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Kind identifies a record layout.
type Kind uint8

const (
	KindNetwork Kind = iota + 1
	KindPool
	KindLPTAccount
	KindHolding
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "Network"
	case KindPool:
		return "Pool"
	case KindLPTAccount:
		return "LPTAccount"
	case KindHolding:
		return "Holding"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// envelopeHeaderSize is the kind byte plus the owning program address.
const envelopeHeaderSize = 1 + 32

// EncodeEnvelope wraps a record payload with its kind and storage domain.
func EncodeEnvelope(kind Kind, program Address, payload []byte) []byte {
	out := make([]byte, 0, envelopeHeaderSize+len(payload))
	out = append(out, byte(kind))
	out = append(out, program[:]...)
	out = append(out, payload...)
	return out
}

// DecodeEnvelope splits stored bytes into kind, storage domain and payload.
func DecodeEnvelope(data []byte) (Kind, Address, []byte, error) {
	if len(data) < envelopeHeaderSize {
		return 0, Address{}, nil, fmt.Errorf("record envelope too short: %d bytes", len(data))
	}
	var program Address
	copy(program[:], data[1:envelopeHeaderSize])
	return Kind(data[0]), program, data[envelopeHeaderSize:], nil
}
