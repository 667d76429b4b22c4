package amm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
)

// books tracks every record a scenario touches, so the bookkeeping
// invariants can be re-verified after each step: a pool's share supply
// equals the sum over its accounts, its treasury holds exactly its reserve,
// and no unit of any mint appears or disappears.
type books struct {
	pools    []*poolFixture
	accounts map[record.Address][]record.Address
	holdings map[record.Address][]record.Address
	totals   map[record.Address]uint64
}

func (b *books) capture(e *env) {
	b.totals = make(map[record.Address]uint64)
	for mint, keys := range b.holdings {
		var total uint64
		for _, key := range keys {
			total += e.holding(key).Amount
		}
		b.totals[mint] = total
	}
}

func (b *books) verify(e *env) {
	e.t.Helper()
	for _, pool := range b.pools {
		state := e.pool(pool.key)

		sum := new(uint256.Int)
		for _, key := range b.accounts[pool.key] {
			sum.Add(sum, e.lptAccount(key).LPT)
		}
		require.Equal(e.t, state.LPT, sum, "share supply of %s out of balance", pool.key)
		require.Equal(e.t, state.Reserve, e.holding(state.Treasury).Amount,
			"treasury of %s does not match its reserve", pool.key)
	}
	for mint, keys := range b.holdings {
		var total uint64
		for _, key := range keys {
			total += e.holding(key).Amount
		}
		require.Equal(e.t, b.totals[mint], total, "mint %s not conserved", mint)
	}
}

func TestBookkeepingAcrossOperations(t *testing.T) {
	e := newEnv(t)
	market := e.createMarket("m")

	provider := addr("provider")
	providerSource := addr("provider/source")
	providerPayout := addr("provider/payout")
	providerLPT := addr("provider/lpt")
	providerLPT2 := addr("provider/lpt-2")
	e.seedHolding(providerSource, provider, market.alpha.mint, 10_000_000)
	e.seedHolding(providerPayout, provider, market.alpha.mint, 0)
	e.ok(e.submit(op.TagInitializeLPT, nil, signer(provider), ref(market.alpha.key), signer(providerLPT)))
	e.ok(e.submit(op.TagInitializeLPT, nil, signer(provider), ref(market.alpha.key), signer(providerLPT2)))

	trader := setupSwapTrader(e, market, 1_000_000, 0, 0)
	vault := seedVault(e)

	b := &books{
		pools: []*poolFixture{market.primary, market.alpha, market.beta},
		accounts: map[record.Address][]record.Address{
			market.primary.key: {market.primary.account},
			market.alpha.key:   {market.alpha.account, providerLPT, providerLPT2},
			market.beta.key:    {market.beta.account},
		},
		holdings: map[record.Address][]record.Address{
			record.PrimaryMint: {market.primary.source, market.primary.treasury, trader.primary, vault},
			market.alpha.mint:  {market.alpha.source, market.alpha.treasury, providerSource, providerPayout, trader.alpha},
			market.beta.mint:   {market.beta.source, market.beta.treasury, trader.beta},
		},
	}
	b.capture(e)
	b.verify(e)

	// Provide liquidity.
	e.ok(e.submit(op.TagAddLiquidity, op.EncodeU64(nil, 10_000_000),
		signer(provider), ref(market.alpha.key), ref(market.alpha.treasury), ref(providerLPT), ref(providerSource)))
	b.verify(e)

	// Trade around the triangle.
	e.ok(e.swap(trader.key, 1_000_000, market.alpha, market.beta, market.primary,
		trader.alpha, trader.beta, vault))
	b.verify(e)

	betaBalance := e.holding(trader.beta).Amount
	require.NotZero(t, betaBalance)
	e.ok(e.swap(trader.key, betaBalance, market.beta, market.primary, market.primary,
		trader.beta, trader.primary, vault))
	b.verify(e)

	primaryBalance := e.holding(trader.primary).Amount
	require.NotZero(t, primaryBalance)
	e.ok(e.swap(trader.key, primaryBalance, market.primary, market.alpha, market.primary,
		trader.primary, trader.alpha, vault))
	b.verify(e)

	// Move shares between the provider's accounts.
	shares := e.lptAccount(providerLPT).LPT
	require.False(t, shares.IsZero())
	half := new(uint256.Int).Rsh(shares, 1)
	e.ok(e.submit(op.TagTransfer, op.EncodeU128(nil, half),
		signer(provider), ref(providerLPT), ref(providerLPT2)))
	b.verify(e)

	// Withdraw part of the position.
	e.ok(e.submit(op.TagRemoveLiquidity, op.EncodeU128(nil, half),
		signer(provider), ref(market.alpha.key), ref(market.alpha.treasury),
		ref(providerLPT2), ref(providerPayout), ref(market.alpha.authority)))
	b.verify(e)
}
