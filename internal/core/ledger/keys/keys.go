// Package keys derives the well-known addresses of the engine: the storage
// domain identifiers, per-pool treasury authorities, and singleton metadata
// slots. Derivations are space-tagged Sha512Half hashes, so any two inputs
// that differ in space or payload land on distinct keys.
package keys

import (
	"encoding/binary"

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	crypto "github.com/LeJamon/goswapd/internal/crypto/common"
)

// Space identifiers for key derivation.
const (
	spaceProgram   uint16 = 'g' // storage domain identifiers
	spaceAuthority uint16 = 'A' // pool treasury authorities
	spaceSequence  uint16 = 's' // applied-sequence singleton
)

var (
	// EngineProgram owns network, pool and LPT account slots.
	EngineProgram = indexHash(spaceProgram, []byte("swapd.engine"))

	// TokenProgram owns holding slots.
	TokenProgram = indexHash(spaceProgram, []byte("swapd.token"))
)

// indexHash computes a derived address by hashing the space and data.
func indexHash(space uint16, data ...[]byte) record.Address {
	spaceBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(spaceBytes, space)

	inputs := make([][]byte, 0, len(data)+1)
	inputs = append(inputs, spaceBytes)
	inputs = append(inputs, data...)

	return record.Address(crypto.Sha512Half(inputs...))
}

// PoolAuthority derives the capability address that signs for a pool's
// treasury. Handlers recompute it and compare it against the authority
// presented with an operation; only the engine can produce withdrawals
// under it.
func PoolAuthority(pool record.Address) record.Address {
	return indexHash(spaceAuthority, pool[:], EngineProgram[:])
}

// SequenceKey is the singleton slot the ledger keeps its applied-operation
// sequence counter under.
func SequenceKey() record.Address {
	return indexHash(spaceSequence)
}
