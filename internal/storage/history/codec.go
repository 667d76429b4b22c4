package history

import (
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/LeJamon/goswapd/internal/core/op"
)

// cborHandle is shared by the log and the event feed so both emit the same
// canonical bytes for a given change set.
var cborHandle = func() *codec.CborHandle {
	h := new(codec.CborHandle)
	h.Canonical = true
	return h
}()

// EncodeMetadata serializes apply metadata to canonical CBOR. Nil metadata
// encodes to nil.
func EncodeMetadata(meta *op.Metadata) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, cborHandle).Encode(meta); err != nil {
		return nil, fmt.Errorf("history: encode metadata: %w", err)
	}
	return buf, nil
}

// DecodeMetadata parses CBOR apply metadata. Empty input decodes to nil.
func DecodeMetadata(data []byte) (*op.Metadata, error) {
	if len(data) == 0 {
		return nil, nil
	}
	meta := new(op.Metadata)
	if err := codec.NewDecoderBytes(data, cborHandle).Decode(meta); err != nil {
		return nil, fmt.Errorf("history: decode metadata: %w", err)
	}
	return meta, nil
}
