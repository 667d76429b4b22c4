// Package ledger binds the record store to the engine: it is the base view
// operations commit into, and the keeper of the applied-sequence counter.
package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/storage/recordstore"
)

// ErrExists is returned when inserting under an occupied key.
var ErrExists = errors.New("record already exists")

// ErrMissing is returned when updating or erasing an absent key.
var ErrMissing = errors.New("record does not exist")

// Ledger exposes durable record state. All methods go straight to the
// record store; staging and rollback live in the state table layered on
// top during an apply.
type Ledger struct {
	store *recordstore.Database
}

// New wraps an open record store.
func New(store *recordstore.Database) *Ledger {
	return &Ledger{store: store}
}

// Read returns the envelope stored under key, or nil when absent.
func (l *Ledger) Read(key record.Address) ([]byte, error) {
	data, err := l.store.Get(context.Background(), key)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// Exists reports whether a record is stored under key.
func (l *Ledger) Exists(key record.Address) (bool, error) {
	return l.store.Has(context.Background(), key)
}

// Insert stores a new record. The key must be vacant.
func (l *Ledger) Insert(key record.Address, data []byte) error {
	exists, err := l.store.Has(context.Background(), key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrExists, key)
	}
	return l.store.Put(context.Background(), key, data)
}

// Update replaces the record stored under key. The key must be occupied.
func (l *Ledger) Update(key record.Address, data []byte) error {
	exists, err := l.store.Has(context.Background(), key)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrMissing, key)
	}
	return l.store.Put(context.Background(), key, data)
}

// Erase removes the record stored under key. The key must be occupied.
func (l *Ledger) Erase(key record.Address) error {
	exists, err := l.store.Has(context.Background(), key)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrMissing, key)
	}
	return l.store.Delete(context.Background(), key)
}

// NextSequence advances the applied-operation counter and returns the new
// value. The counter lives in its own singleton slot, outside any
// operation's staged writes; the engine advances it only for operations it
// is about to commit.
func (l *Ledger) NextSequence() (uint64, error) {
	key := keys.SequenceKey()

	var next uint64 = 1
	data, err := l.store.Get(context.Background(), key)
	switch {
	case err == nil:
		if len(data) != 8 {
			return 0, fmt.Errorf("corrupt sequence slot: %d bytes", len(data))
		}
		next = binary.LittleEndian.Uint64(data) + 1
	case errors.Is(err, recordstore.ErrNotFound):
	default:
		return 0, err
	}

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, next)
	if err := l.store.Put(context.Background(), key, buf); err != nil {
		return 0, err
	}
	return next, nil
}

// Sequence returns the last applied sequence number without advancing it.
func (l *Ledger) Sequence() (uint64, error) {
	data, err := l.store.Get(context.Background(), keys.SequenceKey())
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("corrupt sequence slot: %d bytes", len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}

// Stats returns a snapshot of the underlying store counters.
func (l *Ledger) Stats() recordstore.Statistics {
	return l.store.Stats()
}

// ForEach visits every stored record, the sequence singleton included.
// Iteration order is store-specific.
func (l *Ledger) ForEach(ctx context.Context, fn func(key record.Address, data []byte) error) error {
	return l.store.ForEach(ctx, fn)
}
