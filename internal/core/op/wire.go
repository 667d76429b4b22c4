package op

import (
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"
)

// Tag identifies an operation on the wire. The payload is the tag byte
// followed by a fixed little-endian parameter block; trailing bytes beyond
// the block are ignored. Tags 0 through 4, 6 and 7 match the legacy
// encoding; Transfer, InitializeNetwork and ClosePool take the vacant
// values.
type Tag uint8

const (
	TagInitializePool    Tag = 0
	TagInitializeLPT     Tag = 1
	TagAddLiquidity      Tag = 2
	TagRemoveLiquidity   Tag = 3
	TagSwap              Tag = 4
	TagTransfer          Tag = 5
	TagVote              Tag = 6
	TagCloseLPT          Tag = 7
	TagInitializeNetwork Tag = 8
	TagClosePool         Tag = 9
)

func (t Tag) String() string {
	switch t {
	case TagInitializePool:
		return "InitializePool"
	case TagInitializeLPT:
		return "InitializeLPT"
	case TagAddLiquidity:
		return "AddLiquidity"
	case TagRemoveLiquidity:
		return "RemoveLiquidity"
	case TagSwap:
		return "Swap"
	case TagTransfer:
		return "Transfer"
	case TagVote:
		return "Vote"
	case TagCloseLPT:
		return "CloseLPT"
	case TagInitializeNetwork:
		return "InitializeNetwork"
	case TagClosePool:
		return "ClosePool"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// Decode parses a wire payload into its typed operation. The account slots
// still need to be bound separately.
func Decode(data []byte) (Operation, error) {
	if len(data) == 0 {
		return nil, ErrShortPayload
	}
	operation, err := New(Tag(data[0]))
	if err != nil {
		return nil, err
	}
	if err := operation.DecodeData(data[1:]); err != nil {
		return nil, err
	}
	return operation, nil
}

// Encode serializes an operation back to its wire payload.
func Encode(operation Operation) []byte {
	return append([]byte{byte(operation.Tag())}, operation.EncodeData()...)
}

// DecodeU64 reads a little-endian uint64 parameter from the head of a
// payload.
func DecodeU64(payload []byte) (uint64, error) {
	if len(payload) < 8 {
		return 0, ErrShortPayload
	}
	return binary.LittleEndian.Uint64(payload[:8]), nil
}

// EncodeU64 appends a little-endian uint64 parameter.
func EncodeU64(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

// DecodeU128 reads a 16-byte little-endian unsigned parameter from the head
// of a payload. The result fits 128 bits by construction.
func DecodeU128(payload []byte) (*uint256.Int, error) {
	if len(payload) < 16 {
		return nil, ErrShortPayload
	}
	v := new(uint256.Int)
	v[0] = binary.LittleEndian.Uint64(payload[0:8])
	v[1] = binary.LittleEndian.Uint64(payload[8:16])
	return v, nil
}

// EncodeU128 appends a 16-byte little-endian unsigned parameter. Values
// wider than 128 bits are truncated; callers keep them in range.
func EncodeU128(dst []byte, v *uint256.Int) []byte {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], v[0])
	binary.LittleEndian.PutUint64(buf[8:16], v[1])
	return append(dst, buf[:]...)
}
