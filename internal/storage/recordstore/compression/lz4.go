package compression

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4"
)

// NoCompressor is a pass-through codec.
type NoCompressor struct{}

// Name returns the name of the compressor.
func (c *NoCompressor) Name() string {
	return "none"
}

// Compress returns a copy of the data unchanged.
func (c *NoCompressor) Compress(data []byte) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// Decompress returns a copy of the data unchanged.
func (c *NoCompressor) Decompress(data []byte) ([]byte, error) {
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// LZ4Compressor frames values as a 4-byte little-endian uncompressed size,
// a flag byte, and either an LZ4 block or, when compression does not help,
// the raw bytes.
type LZ4Compressor struct{}

const (
	lz4HeaderSize = 5
	lz4FlagRaw    = 0
	lz4FlagBlock  = 1
)

// Name returns the name of the compressor.
func (c *LZ4Compressor) Name() string {
	return "lz4"
}

// Compress compresses data into the framed LZ4 form.
func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	out := make([]byte, lz4HeaderSize, lz4HeaderSize+len(data))
	binary.LittleEndian.PutUint32(out[:4], uint32(len(data)))

	if len(data) > 0 {
		compressed := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compression failed: %w", err)
		}
		if n > 0 && n < len(data) {
			out[4] = lz4FlagBlock
			return append(out, compressed[:n]...), nil
		}
	}

	// Incompressible or empty values are stored raw behind the header.
	out[4] = lz4FlagRaw
	return append(out, data...), nil
}

// Decompress decodes the framed LZ4 form.
func (c *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) < lz4HeaderSize {
		return nil, fmt.Errorf("lz4 frame too short: %d bytes", len(data))
	}
	size := binary.LittleEndian.Uint32(data[:4])
	flag := data[4]
	payload := data[lz4HeaderSize:]

	switch flag {
	case lz4FlagRaw:
		if uint32(len(payload)) != size {
			return nil, fmt.Errorf("lz4 raw frame size mismatch: header %d, payload %d", size, len(payload))
		}
		result := make([]byte, len(payload))
		copy(result, payload)
		return result, nil

	case lz4FlagBlock:
		result := make([]byte, size)
		n, err := lz4.UncompressBlock(payload, result)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if uint32(n) != size {
			return nil, fmt.Errorf("lz4 frame size mismatch: header %d, decoded %d", size, n)
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unknown lz4 frame flag %d", flag)
	}
}
