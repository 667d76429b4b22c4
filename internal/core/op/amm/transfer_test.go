package amm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

type transferFixture struct {
	pool      *poolFixture
	recipient record.Address
	account   record.Address
}

func setupTransfer(e *env) *transferFixture {
	network := e.createNetwork("net")
	pool := e.createPool(network, "primary", record.PrimaryMint, 1_000_000, 500_000)

	f := &transferFixture{
		pool:      pool,
		recipient: addr("recipient"),
		account:   addr("recipient/lpt"),
	}
	e.ok(e.submit(op.TagInitializeLPT, nil, signer(f.recipient), ref(pool.key), signer(f.account)))
	return f
}

func TestTransfer(t *testing.T) {
	e := newEnv(t)
	f := setupTransfer(e)

	e.ok(e.submit(op.TagTransfer, op.EncodeU128(nil, u128(120_000)),
		signer(f.pool.owner), ref(f.pool.account), ref(f.account)))

	assert.Equal(t, u128(380_000), e.lptAccount(f.pool.account).LPT)
	assert.Equal(t, u128(120_000), e.lptAccount(f.account).LPT)

	// The pool supply does not move on share transfers.
	assert.Equal(t, u128(500_000), e.pool(f.pool.key).LPT)
}

func TestTransferToSelf(t *testing.T) {
	e := newEnv(t)
	f := setupTransfer(e)

	before := e.snapshot(f.pool.account)
	result := e.ok(e.submit(op.TagTransfer, op.EncodeU128(nil, u128(120_000)),
		signer(f.pool.owner), ref(f.pool.account), ref(f.pool.account)))

	assert.Empty(t, result.Metadata.Changes)
	e.requireUnchanged(before)
}

func TestTransferZeroValue(t *testing.T) {
	e := newEnv(t)
	f := setupTransfer(e)

	e.fail(e.submit(op.TagTransfer, op.EncodeU128(nil, u128(0)),
		signer(f.pool.owner), ref(f.pool.account), ref(f.account)), op.ZeroValue)
}

func TestTransferInsufficientShares(t *testing.T) {
	e := newEnv(t)
	f := setupTransfer(e)

	e.fail(e.submit(op.TagTransfer, op.EncodeU128(nil, u128(500_001)),
		signer(f.pool.owner), ref(f.pool.account), ref(f.account)), op.InsufficientFunds)
}

func TestTransferRequiresSourceOwner(t *testing.T) {
	e := newEnv(t)
	f := setupTransfer(e)

	// The recipient cannot pull shares out of the creator's account.
	e.fail(e.submit(op.TagTransfer, op.EncodeU128(nil, u128(1)),
		signer(f.recipient), ref(f.pool.account), ref(f.account)), op.InvalidOwner)
}

func TestTransferAcrossPools(t *testing.T) {
	e := newEnv(t)
	f := setupTransfer(e)

	strayKey := addr("recipient/stray")
	e.ok(e.submit(op.TagInitializeLPT, nil, signer(f.recipient), ref(addr("other-pool")), signer(strayKey)))

	e.fail(e.submit(op.TagTransfer, op.EncodeU128(nil, u128(1)),
		signer(f.pool.owner), ref(f.pool.account), ref(strayKey)), op.UnmatchedPool)
}

func TestTransferMissingDestination(t *testing.T) {
	e := newEnv(t)
	f := setupTransfer(e)

	e.fail(e.submit(op.TagTransfer, op.EncodeU128(nil, u128(1)),
		signer(f.pool.owner), ref(f.pool.account), ref(addr("nowhere"))), op.NotInitialized)
}
