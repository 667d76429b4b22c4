package record

import (
	"fmt"

	"github.com/holiman/uint256"
)

// LPTAccountSize is the encoded payload size of an LPT account record.
const LPTAccountSize = 32 + 32 + 16 + 1

// LPTAccount holds one owner's share balance against a pool. The balance
// never exceeds the pool's total supply; the account is destroyed only at
// exactly zero.
type LPTAccount struct {
	Owner       Address
	Pool        Address
	LPT         *uint256.Int
	Initialized bool
}

// NewLPTAccount returns an uninitialized account with a zero balance.
func NewLPTAccount() *LPTAccount {
	return &LPTAccount{LPT: uint256.NewInt(0)}
}

func (a *LPTAccount) IsInitialized() bool {
	return a.Initialized
}

func (a *LPTAccount) Validate() error {
	if a.LPT == nil {
		return fmt.Errorf("lpt balance is nil")
	}
	if a.LPT.BitLen() > 128 {
		return fmt.Errorf("lpt balance exceeds 128 bits")
	}
	return nil
}

// Encode serializes the LPT account payload.
func (a *LPTAccount) Encode() []byte {
	out := make([]byte, LPTAccountSize)
	offset := 0
	copy(out[offset:offset+32], a.Owner[:])
	offset += 32
	copy(out[offset:offset+32], a.Pool[:])
	offset += 32
	putU128(out[offset:offset+16], a.LPT)
	offset += 16
	if a.Initialized {
		out[offset] = 1
	}
	return out
}

// DecodeLPTAccount parses an LPT account payload.
func DecodeLPTAccount(data []byte) (*LPTAccount, error) {
	if len(data) != LPTAccountSize {
		return nil, fmt.Errorf("lpt payload is %d bytes, want %d", len(data), LPTAccountSize)
	}
	a := &LPTAccount{}
	offset := 0
	copy(a.Owner[:], data[offset:offset+32])
	offset += 32
	copy(a.Pool[:], data[offset:offset+32])
	offset += 32
	a.LPT = getU128(data[offset : offset+16])
	offset += 16
	flag, err := decodeBool(data[offset])
	if err != nil {
		return nil, fmt.Errorf("lpt initialized flag: %w", err)
	}
	a.Initialized = flag
	return a, nil
}
