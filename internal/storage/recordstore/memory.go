package recordstore

import "sync"

// MemoryBackend keeps everything in a map. It is the backend for tests and
// ephemeral runs; nothing survives a restart.
type MemoryBackend struct {
	mu     sync.RWMutex
	items  map[string][]byte
	closed bool
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(config Config) (Backend, error) {
	return &MemoryBackend{items: make(map[string][]byte)}, nil
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) Get(key []byte) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, ErrClosed
	}
	value, ok := b.items[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (b *MemoryBackend) Has(key []byte) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return false, ErrClosed
	}
	_, ok := b.items[string(key)]
	return ok, nil
}

func (b *MemoryBackend) Put(key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.items[string(key)] = append([]byte(nil), value...)
	return nil
}

func (b *MemoryBackend) Delete(key []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	delete(b.items, string(key))
	return nil
}

func (b *MemoryBackend) ForEach(fn func(key, value []byte) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	for key, value := range b.items {
		if err := fn([]byte(key), value); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.items = nil
	return nil
}

func init() {
	RegisterBackend("memory", NewMemoryBackend)
}
