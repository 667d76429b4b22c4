package op

import "github.com/LeJamon/goswapd/internal/core/ledger/record"

// View provides read/write access to record state. Handlers always run
// against a StateTable; the ledger itself is the base view the table
// commits into.
type View interface {
	// Read returns the stored envelope for key, or nil when the key is
	// absent. A nil error with nil data means "not found".
	Read(key record.Address) ([]byte, error)

	// Exists reports whether a record is stored under key.
	Exists(key record.Address) (bool, error)

	// Insert adds a new record. It fails if the key is already present.
	Insert(key record.Address, data []byte) error

	// Update replaces the record stored under key.
	Update(key record.Address, data []byte) error

	// Erase removes the record stored under key.
	Erase(key record.Address) error
}
