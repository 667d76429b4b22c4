package amm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

type removeLiquidityFixture struct {
	pool        *poolFixture
	destination record.Address
}

func setupRemoveLiquidity(e *env) *removeLiquidityFixture {
	network := e.createNetwork("net")
	pool := e.createPool(network, "primary", record.PrimaryMint, 1_000_000, 500_000)

	destination := addr("owner/payout")
	e.seedHolding(destination, pool.owner, record.PrimaryMint, 0)
	return &removeLiquidityFixture{pool: pool, destination: destination}
}

func (f *removeLiquidityFixture) submit(e *env, lpt uint64) op.ApplyResult {
	return e.submit(op.TagRemoveLiquidity, op.EncodeU128(nil, u128(lpt)),
		signer(f.pool.owner), ref(f.pool.key), ref(f.pool.treasury),
		ref(f.pool.account), ref(f.destination), ref(f.pool.authority))
}

func TestRemoveLiquidity(t *testing.T) {
	e := newEnv(t)
	f := setupRemoveLiquidity(e)

	e.ok(f.submit(e, 100_000))

	// payout = floor(1_000_000 * 100_000 / 500_000) = 200_000
	pool := e.pool(f.pool.key)
	assert.Equal(t, uint64(800_000), pool.Reserve)
	assert.Equal(t, u128(400_000), pool.LPT)

	assert.Equal(t, u128(400_000), e.lptAccount(f.pool.account).LPT)
	assert.Equal(t, uint64(800_000), e.holding(f.pool.treasury).Amount)
	assert.Equal(t, uint64(200_000), e.holding(f.destination).Amount)
}

func TestRemoveLiquidityFullDrain(t *testing.T) {
	e := newEnv(t)
	f := setupRemoveLiquidity(e)

	e.ok(f.submit(e, 500_000))

	pool := e.pool(f.pool.key)
	assert.Zero(t, pool.Reserve)
	assert.True(t, pool.LPT.IsZero())
	assert.True(t, e.lptAccount(f.pool.account).LPT.IsZero())
	assert.Zero(t, e.holding(f.pool.treasury).Amount)
	assert.Equal(t, uint64(1_000_000), e.holding(f.destination).Amount)
}

func TestRemoveLiquidityRoundsDown(t *testing.T) {
	e := newEnv(t)
	f := setupRemoveLiquidity(e)

	e.ok(f.submit(e, 3))

	// payout = floor(1_000_000 * 3 / 500_000) = 6
	pool := e.pool(f.pool.key)
	assert.Equal(t, uint64(999_994), pool.Reserve)
	assert.Equal(t, u128(499_997), pool.LPT)
	assert.Equal(t, uint64(6), e.holding(f.destination).Amount)
}

func TestRemoveLiquidityZeroValue(t *testing.T) {
	e := newEnv(t)
	f := setupRemoveLiquidity(e)

	e.fail(f.submit(e, 0), op.ZeroValue)
}

func TestRemoveLiquidityInsufficientShares(t *testing.T) {
	e := newEnv(t)
	f := setupRemoveLiquidity(e)

	e.fail(f.submit(e, 500_001), op.InsufficientFunds)
}

func TestRemoveLiquidityWrongAuthority(t *testing.T) {
	e := newEnv(t)
	f := setupRemoveLiquidity(e)

	result := e.submit(op.TagRemoveLiquidity, op.EncodeU128(nil, u128(100_000)),
		signer(f.pool.owner), ref(f.pool.key), ref(f.pool.treasury),
		ref(f.pool.account), ref(f.destination), ref(addr("impostor")))
	e.fail(result, op.InvalidOwner)
}

func TestRemoveLiquidityRollsBackOnFailedPayout(t *testing.T) {
	e := newEnv(t)
	f := setupRemoveLiquidity(e)

	before := e.snapshot(f.pool.key, f.pool.treasury, f.pool.account)
	result := e.submit(op.TagRemoveLiquidity, op.EncodeU128(nil, u128(100_000)),
		signer(f.pool.owner), ref(f.pool.key), ref(f.pool.treasury),
		ref(f.pool.account), ref(addr("no-destination")), ref(f.pool.authority))
	e.fail(result, op.NotInitialized)
	e.requireUnchanged(before)
}
