package record

import (
	"encoding/binary"
	"fmt"
)

// HoldingSize is the encoded payload size of a holding record.
const HoldingSize = 32 + 32 + 8 + 1

// Holding is a fungible balance in the token service's storage domain. Pool
// treasuries are holdings owned by the pool's derived authority; trader
// source and destination accounts are holdings owned by their signer.
type Holding struct {
	Owner       Address
	Mint        Address
	Amount      uint64
	Initialized bool
}

func (h *Holding) IsInitialized() bool {
	return h.Initialized
}

// Encode serializes the holding payload.
func (h *Holding) Encode() []byte {
	out := make([]byte, HoldingSize)
	offset := 0
	copy(out[offset:offset+32], h.Owner[:])
	offset += 32
	copy(out[offset:offset+32], h.Mint[:])
	offset += 32
	binary.LittleEndian.PutUint64(out[offset:offset+8], h.Amount)
	offset += 8
	if h.Initialized {
		out[offset] = 1
	}
	return out
}

// DecodeHolding parses a holding payload.
func DecodeHolding(data []byte) (*Holding, error) {
	if len(data) != HoldingSize {
		return nil, fmt.Errorf("holding payload is %d bytes, want %d", len(data), HoldingSize)
	}
	h := &Holding{}
	offset := 0
	copy(h.Owner[:], data[offset:offset+32])
	offset += 32
	copy(h.Mint[:], data[offset:offset+32])
	offset += 32
	h.Amount = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	flag, err := decodeBool(data[offset])
	if err != nil {
		return nil, fmt.Errorf("holding initialized flag: %w", err)
	}
	h.Initialized = flag
	return h, nil
}
