package recordstore

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBBackend stores records in a goleveldb database. It is the
// alternate durable backend for deployments that prefer it over pebble.
type LevelDBBackend struct {
	db *leveldb.DB
}

var levelDBWriteOptions = &opt.WriteOptions{Sync: true}

// NewLevelDBBackend opens (or creates) a leveldb database under the
// configured path.
func NewLevelDBBackend(config Config) (Backend, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("goleveldb backend requires a data path")
	}

	db, err := leveldb.OpenFile(filepath.Join(config.Path, "records"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb database: %w", err)
	}

	return &LevelDBBackend{db: db}, nil
}

func (b *LevelDBBackend) Name() string { return "goleveldb" }

func (b *LevelDBBackend) Get(key []byte) ([]byte, error) {
	if b.db == nil {
		return nil, ErrClosed
	}

	value, err := b.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (b *LevelDBBackend) Has(key []byte) (bool, error) {
	if b.db == nil {
		return false, ErrClosed
	}
	return b.db.Has(key, nil)
}

func (b *LevelDBBackend) Put(key, value []byte) error {
	if b.db == nil {
		return ErrClosed
	}
	return b.db.Put(key, value, levelDBWriteOptions)
}

func (b *LevelDBBackend) Delete(key []byte) error {
	if b.db == nil {
		return ErrClosed
	}
	return b.db.Delete(key, levelDBWriteOptions)
}

func (b *LevelDBBackend) ForEach(fn func(key, value []byte) error) error {
	if b.db == nil {
		return ErrClosed
	}

	iter := b.db.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		if err := fn(iter.Key(), iter.Value()); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (b *LevelDBBackend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func init() {
	RegisterBackend("goleveldb", NewLevelDBBackend)
}
