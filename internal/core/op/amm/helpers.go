// Package amm implements the pool operations: network and pool
// construction, liquidity provision, share transfers, swaps and account
// closes. Every handler writes through the staged view it is handed, so a
// late failure rolls back everything the operation touched, custody moves
// included.
package amm

import (
	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

// checkDomain verifies that an occupied slot belongs to the engine's
// storage domain. Vacant slots pass; what vacancy means is up to the
// caller.
func checkDomain(v op.View, key record.Address) op.Result {
	data, err := v.Read(key)
	if err != nil {
		return op.Internal
	}
	if data == nil {
		return op.Success
	}
	_, program, _, err := record.DecodeEnvelope(data)
	if err != nil {
		return op.Internal
	}
	if program != keys.EngineProgram {
		return op.IncorrectProgramID
	}
	return op.Success
}

// vacantForCreate checks a slot about to be constructed. The store only
// ever holds initialized records, so any occupant of the right kind means
// the constructor already ran.
func vacantForCreate(v op.View, key record.Address, kind record.Kind) op.Result {
	data, err := v.Read(key)
	if err != nil {
		return op.Internal
	}
	if data == nil {
		return op.Success
	}
	k, program, _, err := record.DecodeEnvelope(data)
	if err != nil {
		return op.Internal
	}
	if program != keys.EngineProgram {
		return op.IncorrectProgramID
	}
	if k != kind {
		return op.Internal
	}
	return op.ConstructorOnce
}

// readRecord fetches and unwraps an engine-domain record of the expected
// kind. Absent slots return NotInitialized.
func readRecord(v op.View, key record.Address, kind record.Kind) ([]byte, op.Result) {
	data, err := v.Read(key)
	if err != nil {
		return nil, op.Internal
	}
	if data == nil {
		return nil, op.NotInitialized
	}
	k, program, payload, err := record.DecodeEnvelope(data)
	if err != nil {
		return nil, op.Internal
	}
	if program != keys.EngineProgram {
		return nil, op.IncorrectProgramID
	}
	if k != kind {
		return nil, op.Internal
	}
	return payload, op.Success
}

// loadNetwork reads an initialized network record.
func loadNetwork(v op.View, key record.Address) (*record.Network, op.Result) {
	payload, res := readRecord(v, key, record.KindNetwork)
	if res != op.Success {
		return nil, res
	}
	network, err := record.DecodeNetwork(payload)
	if err != nil {
		return nil, op.Internal
	}
	if !network.IsInitialized() {
		return nil, op.NotInitialized
	}
	return network, op.Success
}

// loadPool reads an initialized pool record.
func loadPool(v op.View, key record.Address) (*record.Pool, op.Result) {
	payload, res := readRecord(v, key, record.KindPool)
	if res != op.Success {
		return nil, res
	}
	pool, err := record.DecodePool(payload)
	if err != nil {
		return nil, op.Internal
	}
	if !pool.IsInitialized() {
		return nil, op.NotInitialized
	}
	return pool, op.Success
}

// loadLPTAccount reads an initialized LPT account record.
func loadLPTAccount(v op.View, key record.Address) (*record.LPTAccount, op.Result) {
	payload, res := readRecord(v, key, record.KindLPTAccount)
	if res != op.Success {
		return nil, res
	}
	account, err := record.DecodeLPTAccount(payload)
	if err != nil {
		return nil, op.Internal
	}
	if !account.IsInitialized() {
		return nil, op.NotInitialized
	}
	return account, op.Success
}

// insertRecord stores a freshly constructed record in the engine domain.
func insertRecord(v op.View, key record.Address, kind record.Kind, payload []byte) op.Result {
	if err := v.Insert(key, record.EncodeEnvelope(kind, keys.EngineProgram, payload)); err != nil {
		return op.Internal
	}
	return op.Success
}

// updateRecord rewrites an existing engine-domain record.
func updateRecord(v op.View, key record.Address, kind record.Kind, payload []byte) op.Result {
	if err := v.Update(key, record.EncodeEnvelope(kind, keys.EngineProgram, payload)); err != nil {
		return op.Internal
	}
	return op.Success
}
