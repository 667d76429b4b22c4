package recordstore

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"
)

// PebbleBackend stores records in a pebble LSM database. It is the default
// durable backend.
type PebbleBackend struct {
	db *pebble.DB
}

// NewPebbleBackend opens (or creates) a pebble database under the
// configured path.
func NewPebbleBackend(config Config) (Backend, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("pebble backend requires a data path")
	}

	db, err := pebble.Open(filepath.Join(config.Path, "records"), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble database: %w", err)
	}

	return &PebbleBackend{db: db}, nil
}

func (b *PebbleBackend) Name() string { return "pebble" }

func (b *PebbleBackend) Get(key []byte) ([]byte, error) {
	if b.db == nil {
		return nil, ErrClosed
	}

	value, closer, err := b.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (b *PebbleBackend) Has(key []byte) (bool, error) {
	if b.db == nil {
		return false, ErrClosed
	}

	_, closer, err := b.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	closer.Close()
	return true, nil
}

func (b *PebbleBackend) Put(key, value []byte) error {
	if b.db == nil {
		return ErrClosed
	}
	return b.db.Set(key, value, pebble.Sync)
}

func (b *PebbleBackend) Delete(key []byte) error {
	if b.db == nil {
		return ErrClosed
	}
	return b.db.Delete(key, pebble.Sync)
}

func (b *PebbleBackend) ForEach(fn func(key, value []byte) error) error {
	if b.db == nil {
		return ErrClosed
	}

	iter, err := b.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (b *PebbleBackend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func init() {
	RegisterBackend("pebble", NewPebbleBackend)
}
