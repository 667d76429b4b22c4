package amm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

type swapTrader struct {
	key     record.Address
	alpha   record.Address
	beta    record.Address
	primary record.Address
}

func setupSwapTrader(e *env, market *marketFixture, alpha, beta, primary uint64) *swapTrader {
	trader := &swapTrader{
		key:     addr("trader"),
		alpha:   addr("trader/alpha"),
		beta:    addr("trader/beta"),
		primary: addr("trader/primary"),
	}
	e.seedHolding(trader.alpha, trader.key, market.alpha.mint, alpha)
	e.seedHolding(trader.beta, trader.key, market.beta.mint, beta)
	e.seedHolding(trader.primary, trader.key, record.PrimaryMint, primary)
	return trader
}

func seedVault(e *env) record.Address {
	vault := addr("vault")
	e.seedHolding(vault, addr("treasurer"), record.PrimaryMint, 0)
	return vault
}

func TestSwapCrossPools(t *testing.T) {
	e := newEnv(t)
	market := e.createMarket("m")
	trader := setupSwapTrader(e, market, 1_000_000, 0, 0)
	vault := seedVault(e)

	result := e.ok(e.swap(trader.key, 1_000_000, market.alpha, market.beta, market.primary,
		trader.alpha, trader.beta, vault))

	// bid: 500_000_000 + 1_000_000
	assert.Equal(t, uint64(501_000_000), e.pool(market.alpha.key).Reserve)

	// curve: floor(200_000_000 * 500_000_000 / 501_000_000) = 199_600_798
	// gross 399_202, fee 998, earn 199, payout 398_005
	ask := e.pool(market.beta.key)
	assert.Equal(t, uint64(199_601_995), ask.Reserve)
	assert.Equal(t, u128(400_000_000), ask.LPT)
	assert.Equal(t, uint64(398_005), e.holding(trader.beta).Amount)

	// settlement: floor(1_000_000_000 * 199_601_796 / 199_601_995) leaves 997
	settle := e.pool(market.primary.key)
	assert.Equal(t, uint64(999_999_003), settle.Reserve)
	assert.Equal(t, u128(1_000_000_000), settle.LPT)
	assert.Equal(t, uint64(997), e.holding(vault).Amount)

	// Treasuries track their pool reserves exactly.
	assert.Equal(t, uint64(501_000_000), e.holding(market.alpha.treasury).Amount)
	assert.Equal(t, uint64(199_601_995), e.holding(market.beta.treasury).Amount)
	assert.Equal(t, uint64(999_999_003), e.holding(market.primary.treasury).Amount)
	assert.Zero(t, e.holding(trader.alpha).Amount)

	// Nine records move: three pools, three treasuries, source, destination
	// and vault.
	require.NotNil(t, result.Metadata)
	assert.Len(t, result.Metadata.Changes, 9)
	for _, change := range result.Metadata.Changes {
		assert.Equal(t, op.ChangeModified, change.Action)
	}
}

func TestSwapSellPrimarySettlesAgainstBidPool(t *testing.T) {
	e := newEnv(t)
	market := e.createMarket("m")
	trader := setupSwapTrader(e, market, 0, 0, 2_000_000)
	vault := seedVault(e)

	e.ok(e.swap(trader.key, 2_000_000, market.primary, market.alpha, market.primary,
		trader.primary, trader.alpha, vault))

	// curve: floor(500_000_000 * 1_000_000_000 / 1_002_000_000) = 499_001_996
	// gross 998_004, fee 2_495, earn 499, payout 995_010
	assert.Equal(t, uint64(499_004_990), e.pool(market.alpha.key).Reserve)
	assert.Equal(t, uint64(995_010), e.holding(trader.alpha).Amount)

	// The settlement pool is the bid pool: the conversion prices against
	// the deposited reserve, 1_002_000_000, not the stale 1_000_000_000.
	assert.Equal(t, uint64(1_001_998_998), e.pool(market.primary.key).Reserve)
	assert.Equal(t, uint64(1_002), e.holding(vault).Amount)
	assert.Equal(t, uint64(1_001_998_998), e.holding(market.primary.treasury).Amount)
	assert.Zero(t, e.holding(trader.primary).Amount)
}

func TestSwapBuyPrimaryWaivesEarn(t *testing.T) {
	e := newEnv(t)
	market := e.createMarket("m")
	trader := setupSwapTrader(e, market, 1_000_000, 0, 0)
	vault := seedVault(e)

	e.ok(e.swap(trader.key, 1_000_000, market.alpha, market.primary, market.primary,
		trader.alpha, trader.primary, vault))

	// curve: floor(1_000_000_000 * 500_000_000 / 501_000_000) = 998_003_992
	// gross 1_996_008, fee 4_990, earn waived, payout 1_991_018
	assert.Equal(t, uint64(501_000_000), e.pool(market.alpha.key).Reserve)
	assert.Equal(t, uint64(998_008_982), e.pool(market.primary.key).Reserve)
	assert.Equal(t, uint64(1_991_018), e.holding(trader.primary).Amount)
	assert.Zero(t, e.holding(vault).Amount)
}

func TestSwapIdenticalPoolsIsNoop(t *testing.T) {
	e := newEnv(t)
	market := e.createMarket("m")
	trader := setupSwapTrader(e, market, 1_000_000, 0, 0)
	vault := seedVault(e)

	before := e.snapshot(market.alpha.key, market.alpha.treasury, trader.alpha)
	result := e.ok(e.swap(trader.key, 1_000_000, market.alpha, market.alpha, market.primary,
		trader.alpha, trader.alpha, vault))

	assert.Empty(t, result.Metadata.Changes)
	e.requireUnchanged(before)
}

func TestSwapZeroAmount(t *testing.T) {
	e := newEnv(t)
	market := e.createMarket("m")
	trader := setupSwapTrader(e, market, 1_000_000, 0, 0)
	vault := seedVault(e)

	e.fail(e.swap(trader.key, 0, market.alpha, market.beta, market.primary,
		trader.alpha, trader.beta, vault), op.ZeroValue)
}

func TestSwapAcrossNetworks(t *testing.T) {
	e := newEnv(t)
	market := e.createMarket("m")
	other := e.createNetwork("other")
	foreign := e.createPool(other, "other/primary", record.PrimaryMint, 1_000_000_000, 1_000_000_000)

	trader := setupSwapTrader(e, market, 1_000_000, 0, 0)
	vault := seedVault(e)

	e.fail(e.swap(trader.key, 1_000_000, market.alpha, market.beta, foreign,
		trader.alpha, trader.beta, vault), op.IncorrectNetworkID)
}

func TestSwapOwnership(t *testing.T) {
	e := newEnv(t)
	market := e.createMarket("m")
	trader := setupSwapTrader(e, market, 1_000_000, 0, 0)
	vault := seedVault(e)

	t.Run("owner unsigned", func(t *testing.T) {
		result := e.submit(op.TagSwap, op.EncodeU64(nil, 1_000_000),
			ref(trader.key),
			ref(market.alpha.key), ref(market.alpha.treasury), ref(trader.alpha),
			ref(market.beta.key), ref(market.beta.treasury), ref(trader.beta), ref(market.beta.authority),
			ref(market.primary.key), ref(market.primary.treasury), ref(vault), ref(market.primary.authority))
		e.fail(result, op.InvalidOwner)
	})

	t.Run("wrong bid treasury", func(t *testing.T) {
		result := e.submit(op.TagSwap, op.EncodeU64(nil, 1_000_000),
			signer(trader.key),
			ref(market.alpha.key), ref(market.beta.treasury), ref(trader.alpha),
			ref(market.beta.key), ref(market.beta.treasury), ref(trader.beta), ref(market.beta.authority),
			ref(market.primary.key), ref(market.primary.treasury), ref(vault), ref(market.primary.authority))
		e.fail(result, op.InvalidOwner)
	})

	t.Run("wrong ask authority", func(t *testing.T) {
		result := e.submit(op.TagSwap, op.EncodeU64(nil, 1_000_000),
			signer(trader.key),
			ref(market.alpha.key), ref(market.alpha.treasury), ref(trader.alpha),
			ref(market.beta.key), ref(market.beta.treasury), ref(trader.beta), ref(addr("impostor")),
			ref(market.primary.key), ref(market.primary.treasury), ref(vault), ref(market.primary.authority))
		e.fail(result, op.InvalidOwner)
	})
}

func TestSwapMissingPool(t *testing.T) {
	e := newEnv(t)
	market := e.createMarket("m")
	trader := setupSwapTrader(e, market, 1_000_000, 0, 0)
	vault := seedVault(e)

	ghost := &poolFixture{
		key:       addr("ghost/pool"),
		treasury:  addr("ghost/treasury"),
		authority: addr("ghost/authority"),
	}
	e.fail(e.swap(trader.key, 1_000_000, ghost, market.beta, market.primary,
		trader.alpha, trader.beta, vault), op.NotInitialized)
}

func TestSwapRollsBackOnFailedPayout(t *testing.T) {
	e := newEnv(t)
	market := e.createMarket("m")
	trader := setupSwapTrader(e, market, 1_000_000, 0, 0)
	vault := seedVault(e)

	before := e.snapshot(market.alpha.key, market.alpha.treasury, market.beta.key,
		market.beta.treasury, market.primary.key, trader.alpha)

	// No destination account: the ask withdrawal fails after the bid leg
	// already ran, and the bid leg must roll back with it.
	e.fail(e.swap(trader.key, 1_000_000, market.alpha, market.beta, market.primary,
		trader.alpha, addr("nowhere"), vault), op.NotInitialized)
	e.requireUnchanged(before)
}

func TestSwapOverflowingDeposit(t *testing.T) {
	e := newEnv(t)
	network := e.createNetwork("net")
	e.createPool(network, "primary", record.PrimaryMint, 1_000_000_000, 1_000_000_000)
	big := e.createPool(network, "big", network.mints[0], math.MaxUint64-10, 1_000_000)
	beta := e.createPool(network, "beta", network.mints[1], 200_000_000, 400_000_000)

	trader := addr("trader")
	source := addr("trader/big")
	destination := addr("trader/beta")
	e.seedHolding(source, trader, network.mints[0], 100)
	e.seedHolding(destination, trader, network.mints[1], 0)
	vault := seedVault(e)

	e.fail(e.swap(trader, 100, big, beta, big, source, destination, vault), op.Overflow)
}
