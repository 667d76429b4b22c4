// Package token is the reference token transfer service: fungible balances
// kept as Holding records in their own storage domain. The engine only
// depends on the op.TokenMover interface; this implementation writes through
// whatever view it is handed, so moves staged during an operation roll back
// with it.
package token

import (
	"github.com/LeJamon/goswapd/internal/core/arith"
	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

// Mover moves balances between Holding records.
type Mover struct {
	program record.Address
}

// NewMover returns a mover bound to the token storage domain.
func NewMover() *Mover {
	return &Mover{program: keys.TokenProgram}
}

// CreateAccount initializes a zero-balance holding for mint, owned by
// owner, at the given slot.
func (m *Mover) CreateAccount(v op.View, account, mint, owner record.Address) op.Result {
	data, err := v.Read(account)
	if err != nil {
		return op.Internal
	}
	if data != nil {
		_, program, _, err := record.DecodeEnvelope(data)
		if err != nil {
			return op.Internal
		}
		if program != m.program {
			return op.IncorrectProgramID
		}
		return op.ConstructorOnce
	}

	holding := &record.Holding{
		Owner:       owner,
		Mint:        mint,
		Amount:      0,
		Initialized: true,
	}
	if err := v.Insert(account, record.EncodeEnvelope(record.KindHolding, m.program, holding.Encode())); err != nil {
		return op.Internal
	}
	return op.Success
}

// Deposit moves amount from a holding owned by signer into to.
func (m *Mover) Deposit(v op.View, from, to record.Address, amount uint64, signer record.Address) op.Result {
	return m.transfer(v, from, to, amount, signer)
}

// Withdraw moves amount out of a holding owned by authority into to.
func (m *Mover) Withdraw(v op.View, from, to record.Address, amount uint64, authority record.Address) op.Result {
	return m.transfer(v, from, to, amount, authority)
}

// Close erases a drained holding owned by authority. dest is the reclaim
// destination callers record in metadata; the reference mover has no
// balance left to move there.
func (m *Mover) Close(v op.View, account, dest record.Address, authority record.Address) op.Result {
	holding, res := m.load(v, account)
	if res != op.Success {
		return res
	}
	if holding.Owner != authority {
		return op.InvalidOwner
	}
	if holding.Amount != 0 {
		return op.ZeroValue
	}
	if err := v.Erase(account); err != nil {
		return op.Internal
	}
	return op.Success
}

// transfer moves amount between two holdings of the same mint. actor must
// own the source.
func (m *Mover) transfer(v op.View, from, to record.Address, amount uint64, actor record.Address) op.Result {
	if from == to {
		// Self transfer: the checks apply, the balance does not move.
		holding, res := m.load(v, from)
		if res != op.Success {
			return res
		}
		if holding.Owner != actor {
			return op.InvalidOwner
		}
		if holding.Amount < amount {
			return op.InsufficientFunds
		}
		return op.Success
	}

	src, res := m.load(v, from)
	if res != op.Success {
		return res
	}
	dst, res := m.load(v, to)
	if res != op.Success {
		return res
	}

	if src.Owner != actor {
		return op.InvalidOwner
	}
	if src.Mint != dst.Mint {
		return op.UnmatchedPool
	}
	if src.Amount < amount {
		return op.InsufficientFunds
	}

	grown, ok := arith.Add64(dst.Amount, amount)
	if !ok {
		return op.Overflow
	}
	src.Amount -= amount
	dst.Amount = grown

	if res := m.store(v, from, src); res != op.Success {
		return res
	}
	return m.store(v, to, dst)
}

func (m *Mover) load(v op.View, key record.Address) (*record.Holding, op.Result) {
	data, err := v.Read(key)
	if err != nil {
		return nil, op.Internal
	}
	if data == nil {
		return nil, op.NotInitialized
	}
	kind, program, payload, err := record.DecodeEnvelope(data)
	if err != nil {
		return nil, op.Internal
	}
	if program != m.program {
		return nil, op.IncorrectProgramID
	}
	if kind != record.KindHolding {
		return nil, op.Internal
	}
	holding, err := record.DecodeHolding(payload)
	if err != nil {
		return nil, op.Internal
	}
	if !holding.IsInitialized() {
		return nil, op.NotInitialized
	}
	return holding, op.Success
}

func (m *Mover) store(v op.View, key record.Address, holding *record.Holding) op.Result {
	if err := v.Update(key, record.EncodeEnvelope(record.KindHolding, m.program, holding.Encode())); err != nil {
		return op.Internal
	}
	return op.Success
}
