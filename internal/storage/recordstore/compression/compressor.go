// Package compression provides the blob codecs the record store can run
// its values through before they hit a backend.
package compression

import (
	"fmt"
	"sync"
)

// Compressor is a blob codec. Compress and Decompress are exact inverses;
// a store must keep using the codec it was written with.
type Compressor interface {
	// Name returns the name of the compression algorithm.
	Name() string

	// Compress encodes the input data.
	Compress(data []byte) ([]byte, error)

	// Decompress decodes data produced by Compress.
	Decompress(data []byte) ([]byte, error)
}

// Factory is a function that creates a new compressor instance.
type Factory func() Compressor

var (
	mu          sync.RWMutex
	compressors = make(map[string]Factory)
)

// Register registers a compressor factory with the given name.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	compressors[name] = factory
}

// Get returns a new compressor instance for the given name.
func Get(name string) (Compressor, error) {
	mu.RLock()
	factory, ok := compressors[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}

	return factory(), nil
}

// Available returns a list of available compressor names.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(compressors))
	for name := range compressors {
		names = append(names, name)
	}
	return names
}

// IsAvailable checks if a compressor with the given name is available.
func IsAvailable(name string) bool {
	mu.RLock()
	_, ok := compressors[name]
	mu.RUnlock()
	return ok
}

// init registers the built-in compressors.
func init() {
	Register("none", func() Compressor { return &NoCompressor{} })
	Register("lz4", func() Compressor { return &LZ4Compressor{} })
}
