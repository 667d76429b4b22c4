// Package recordstore persists record envelopes in a pluggable key-value
// backend, with an optional compression codec and a small front cache.
package recordstore

import (
	"fmt"
	"sort"
	"sync"
)

// Backend is a raw key-value store. Values are opaque; compression and
// caching happen in the Database front.
type Backend interface {
	// Name returns the backend's registered name.
	Name() string

	// Get returns the value stored under key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Has reports whether key is present.
	Has(key []byte) (bool, error)

	// Put stores a value under key, replacing any previous value.
	Put(key, value []byte) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// ForEach visits every key-value pair. Iteration order is
	// backend-specific.
	ForEach(fn func(key, value []byte) error) error

	// Close releases the backend's resources.
	Close() error
}

// BackendFactory creates an opened backend from a configuration.
type BackendFactory func(config Config) (Backend, error)

var (
	backendMu        sync.RWMutex
	backendFactories = make(map[string]BackendFactory)
)

// RegisterBackend registers a backend factory with the given name.
func RegisterBackend(name string, factory BackendFactory) {
	backendMu.Lock()
	defer backendMu.Unlock()
	backendFactories[name] = factory
}

// CreateBackend creates a new backend instance for the given name and
// configuration.
func CreateBackend(name string, config Config) (Backend, error) {
	backendMu.RLock()
	factory, ok := backendFactories[name]
	backendMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown backend: %s", name)
	}

	return factory(config)
}

// AvailableBackends returns the sorted list of registered backend names.
func AvailableBackends() []string {
	backendMu.RLock()
	defer backendMu.RUnlock()

	names := make([]string, 0, len(backendFactories))
	for name := range backendFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsBackendAvailable checks if a backend with the given name is registered.
func IsBackendAvailable(name string) bool {
	backendMu.RLock()
	_, ok := backendFactories[name]
	backendMu.RUnlock()
	return ok
}
