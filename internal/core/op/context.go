package op

import "github.com/LeJamon/goswapd/internal/core/ledger/record"

//go:generate mockgen -destination mocks/token_mover.go -package mocks github.com/LeJamon/goswapd/internal/core/op TokenMover

// TokenMover moves fungible balances on behalf of the engine. The reference
// implementation lives in internal/core/token; handlers only ever see this
// interface, and every method writes through the view it is handed, so
// custody moves stage and roll back together with record writes.
type TokenMover interface {
	// CreateAccount initializes a zero-balance account for mint, owned by
	// owner, at the given slot.
	CreateAccount(v View, account, mint, owner record.Address) Result

	// Deposit moves amount from an account owned by signer into to. The
	// caller is responsible for having checked signer actually signed.
	Deposit(v View, from, to record.Address, amount uint64, signer record.Address) Result

	// Withdraw moves amount out of an account owned by authority into to.
	Withdraw(v View, from, to record.Address, amount uint64, authority record.Address) Result

	// Close removes an account owned by authority. The balance must be
	// zero.
	Close(v View, account, dest record.Address, authority record.Address) Result
}

// ApplyContext carries everything a handler may touch while applying: the
// staged view, the token mover bound to it, and the metadata under
// construction.
type ApplyContext struct {
	View     View
	Tokens   TokenMover
	Metadata *Metadata
}
