package record

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// PoolSize is the encoded payload size of a pool record.
const PoolSize = 32 + 32 + 32 + 32 + 8 + 16 + 8 + 1

// Pool custodies the reserve of one asset and tracks the LP shares
// outstanding against it. Reserve and shares move together on liquidity
// operations; swaps and settlement-fee withdrawals move the reserve alone.
type Pool struct {
	Owner       Address
	Network     Address
	Mint        Address
	Treasury    Address
	Reserve     uint64
	LPT         *uint256.Int
	FeeRate     uint64
	Initialized bool
}

// NewPool returns an uninitialized pool with a zero share supply.
func NewPool() *Pool {
	return &Pool{LPT: uint256.NewInt(0)}
}

func (p *Pool) IsInitialized() bool {
	return p.Initialized
}

func (p *Pool) Validate() error {
	if p.LPT == nil {
		return fmt.Errorf("pool share supply is nil")
	}
	if p.LPT.BitLen() > 128 {
		return fmt.Errorf("pool share supply exceeds 128 bits")
	}
	return nil
}

// Encode serializes the pool payload.
func (p *Pool) Encode() []byte {
	out := make([]byte, PoolSize)
	offset := 0
	copy(out[offset:offset+32], p.Owner[:])
	offset += 32
	copy(out[offset:offset+32], p.Network[:])
	offset += 32
	copy(out[offset:offset+32], p.Mint[:])
	offset += 32
	copy(out[offset:offset+32], p.Treasury[:])
	offset += 32
	binary.LittleEndian.PutUint64(out[offset:offset+8], p.Reserve)
	offset += 8
	putU128(out[offset:offset+16], p.LPT)
	offset += 16
	binary.LittleEndian.PutUint64(out[offset:offset+8], p.FeeRate)
	offset += 8
	if p.Initialized {
		out[offset] = 1
	}
	return out
}

// DecodePool parses a pool payload.
func DecodePool(data []byte) (*Pool, error) {
	if len(data) != PoolSize {
		return nil, fmt.Errorf("pool payload is %d bytes, want %d", len(data), PoolSize)
	}
	p := &Pool{}
	offset := 0
	copy(p.Owner[:], data[offset:offset+32])
	offset += 32
	copy(p.Network[:], data[offset:offset+32])
	offset += 32
	copy(p.Mint[:], data[offset:offset+32])
	offset += 32
	copy(p.Treasury[:], data[offset:offset+32])
	offset += 32
	p.Reserve = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	p.LPT = getU128(data[offset : offset+16])
	offset += 16
	p.FeeRate = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	flag, err := decodeBool(data[offset])
	if err != nil {
		return nil, fmt.Errorf("pool initialized flag: %w", err)
	}
	p.Initialized = flag
	return p, nil
}

// putU128 writes the low 128 bits of v little-endian. Callers keep v within
// range; records never hold wider values.
func putU128(dst []byte, v *uint256.Int) {
	binary.LittleEndian.PutUint64(dst[0:8], v[0])
	binary.LittleEndian.PutUint64(dst[8:16], v[1])
}

// getU128 reads a little-endian 128-bit value.
func getU128(src []byte) *uint256.Int {
	return &uint256.Int{
		binary.LittleEndian.Uint64(src[0:8]),
		binary.LittleEndian.Uint64(src[8:16]),
		0,
		0,
	}
}

func decodeBool(b byte) (bool, error) {
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("invalid flag byte %d", b)
	}
}
