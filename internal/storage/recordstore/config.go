package recordstore

import (
	"fmt"

	"github.com/LeJamon/goswapd/internal/storage/recordstore/compression"
)

// Config selects and tunes a record store.
type Config struct {
	// Backend names the storage backend: "memory", "pebble" or
	// "goleveldb".
	Backend string

	// Path is the data directory for durable backends.
	Path string

	// CacheSize is the number of values the front cache keeps. Zero
	// disables the cache.
	CacheSize int

	// Compression names the blob codec values run through: "none" or
	// "lz4". A store must keep the codec it was created with.
	Compression string
}

// DefaultConfig returns the durable defaults.
func DefaultConfig() Config {
	return Config{
		Backend:     "pebble",
		CacheSize:   4096,
		Compression: "none",
	}
}

// Validate checks the configuration against the registered backends and
// compressors.
func (c Config) Validate() error {
	if !IsBackendAvailable(c.Backend) {
		return fmt.Errorf("unknown backend %q (available: %v)", c.Backend, AvailableBackends())
	}
	if c.Compression != "" && !compression.IsAvailable(c.Compression) {
		return fmt.Errorf("unknown compression %q (available: %v)", c.Compression, compression.Available())
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative")
	}
	return nil
}
