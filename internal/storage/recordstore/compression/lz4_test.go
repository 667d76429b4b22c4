package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLZ4RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"short", []byte("pool")},
		{"repetitive", bytes.Repeat([]byte("reserve"), 200)},
		{"zeros", make([]byte, 4096)},
		{"incompressible", func() []byte {
			data := make([]byte, 256)
			for i := range data {
				data[i] = byte(i*131 + 17)
			}
			return data
		}()},
	}

	c := &LZ4Compressor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compressed, err := c.Compress(tt.data)
			require.NoError(t, err)

			decompressed, err := c.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, tt.data, decompressed)
		})
	}
}

func TestLZ4CompressesRepetitiveData(t *testing.T) {
	c := &LZ4Compressor{}
	data := bytes.Repeat([]byte("liquidity"), 500)

	compressed, err := c.Compress(data)
	require.NoError(t, err)
	assert.Less(t, len(compressed), len(data))
}

func TestLZ4RejectsTruncatedFrames(t *testing.T) {
	c := &LZ4Compressor{}

	_, err := c.Decompress([]byte{1, 2})
	assert.Error(t, err)

	compressed, err := c.Compress(bytes.Repeat([]byte("x"), 100))
	require.NoError(t, err)
	_, err = c.Decompress(compressed[:len(compressed)-3])
	assert.Error(t, err)
}

func TestNoCompressorCopies(t *testing.T) {
	c := &NoCompressor{}
	data := []byte("treasury")

	out, err := c.Compress(data)
	require.NoError(t, err)
	require.Equal(t, data, out)

	// The output must be independent of the input buffer.
	data[0] = 'X'
	assert.Equal(t, byte('t'), out[0])
}

func TestRegistry(t *testing.T) {
	assert.True(t, IsAvailable("none"))
	assert.True(t, IsAvailable("lz4"))
	assert.False(t, IsAvailable("zstd"))

	c, err := Get("lz4")
	require.NoError(t, err)
	assert.Equal(t, "lz4", c.Name())

	_, err = Get("zstd")
	assert.Error(t, err)

	assert.ElementsMatch(t, []string{"none", "lz4"}, Available())
}
