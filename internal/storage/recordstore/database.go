package recordstore

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/storage/recordstore/compression"
)

// Database is the front every consumer goes through: a backend selected by
// name, an optional compression codec on values, a front cache of
// uncompressed values, and counters.
type Database struct {
	backend    Backend
	compressor compression.Compressor
	cache      *lru.Cache[record.Address, []byte]

	reads       atomic.Uint64
	writes      atomic.Uint64
	deletes     atomic.Uint64
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
	readBytes   atomic.Uint64
	writeBytes  atomic.Uint64
}

// Open creates the configured backend and wraps it in a Database.
func Open(config Config) (*Database, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	backend, err := CreateBackend(config.Backend, config)
	if err != nil {
		return nil, err
	}

	name := config.Compression
	if name == "" {
		name = "none"
	}
	compressor, err := compression.Get(name)
	if err != nil {
		backend.Close()
		return nil, err
	}

	db := &Database{backend: backend, compressor: compressor}
	if config.CacheSize > 0 {
		cache, err := lru.New[record.Address, []byte](config.CacheSize)
		if err != nil {
			backend.Close()
			return nil, err
		}
		db.cache = cache
	}

	log.Printf("recordstore: opened %s backend (compression %s, cache %d)",
		backend.Name(), compressor.Name(), config.CacheSize)
	return db, nil
}

// Get returns the value stored under key, or ErrNotFound.
func (d *Database) Get(ctx context.Context, key record.Address) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.reads.Add(1)

	if d.cache != nil {
		if value, ok := d.cache.Get(key); ok {
			d.cacheHits.Add(1)
			out := make([]byte, len(value))
			copy(out, value)
			return out, nil
		}
		d.cacheMisses.Add(1)
	}

	stored, err := d.backend.Get(key[:])
	if err != nil {
		return nil, err
	}
	value, err := d.compressor.Decompress(stored)
	if err != nil {
		return nil, fmt.Errorf("corrupt value under %s: %w", key, err)
	}
	d.readBytes.Add(uint64(len(value)))

	if d.cache != nil {
		d.cache.Add(key, append([]byte(nil), value...))
	}
	return value, nil
}

// Has reports whether a value is stored under key.
func (d *Database) Has(ctx context.Context, key record.Address) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if d.cache != nil && d.cache.Contains(key) {
		return true, nil
	}
	return d.backend.Has(key[:])
}

// Put stores a value under key.
func (d *Database) Put(ctx context.Context, key record.Address, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	compressed, err := d.compressor.Compress(value)
	if err != nil {
		return err
	}
	if err := d.backend.Put(key[:], compressed); err != nil {
		return err
	}
	d.writes.Add(1)
	d.writeBytes.Add(uint64(len(value)))

	if d.cache != nil {
		d.cache.Add(key, append([]byte(nil), value...))
	}
	return nil
}

// Delete removes the value stored under key.
func (d *Database) Delete(ctx context.Context, key record.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.backend.Delete(key[:]); err != nil {
		return err
	}
	d.deletes.Add(1)

	if d.cache != nil {
		d.cache.Remove(key)
	}
	return nil
}

// ForEach visits every stored record with its uncompressed value, bypassing
// the cache. Iteration order is backend-specific; fn errors abort the scan.
func (d *Database) ForEach(ctx context.Context, fn func(key record.Address, value []byte) error) error {
	return d.backend.ForEach(func(key, value []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var addr record.Address
		if len(key) != len(addr) {
			return fmt.Errorf("malformed key of length %d", len(key))
		}
		copy(addr[:], key)

		decompressed, err := d.compressor.Decompress(value)
		if err != nil {
			return fmt.Errorf("corrupt value under %s: %w", addr, err)
		}
		return fn(addr, decompressed)
	})
}

// Close closes the underlying backend.
func (d *Database) Close() error {
	log.Printf("recordstore: closing %s backend", d.backend.Name())
	return d.backend.Close()
}

// Statistics is a snapshot of the database counters.
type Statistics struct {
	Backend     string `json:"backend"`
	Compression string `json:"compression"`
	Reads       uint64 `json:"reads"`
	Writes      uint64 `json:"writes"`
	Deletes     uint64 `json:"deletes"`
	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`
	ReadBytes   uint64 `json:"read_bytes"`
	WriteBytes  uint64 `json:"write_bytes"`
}

// Stats returns a snapshot of the database counters.
func (d *Database) Stats() Statistics {
	return Statistics{
		Backend:     d.backend.Name(),
		Compression: d.compressor.Name(),
		Reads:       d.reads.Load(),
		Writes:      d.writes.Load(),
		Deletes:     d.deletes.Load(),
		CacheHits:   d.cacheHits.Load(),
		CacheMisses: d.cacheMisses.Load(),
		ReadBytes:   d.readBytes.Load(),
		WriteBytes:  d.writeBytes.Load(),
	}
}

// String returns a compact rendering of the statistics.
func (s Statistics) String() string {
	hitRate := float64(0)
	if lookups := s.CacheHits + s.CacheMisses; lookups > 0 {
		hitRate = float64(s.CacheHits) / float64(lookups) * 100
	}
	return fmt.Sprintf("backend=%s reads=%d writes=%d deletes=%d cache_hit_rate=%.1f%%",
		s.Backend, s.Reads, s.Writes, s.Deletes, hitRate)
}
