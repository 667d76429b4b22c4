package amm

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
	"github.com/LeJamon/goswapd/internal/core/op/mocks"
)

// mockedEngine runs submissions against the same ledger as e with the token
// mover swapped out, so tests can pin the exact custody calls a handler
// makes and fail them at will.
func mockedEngine(e *env, mover op.TokenMover) *op.Engine {
	return op.NewEngine(e.ledger, op.EngineConfig{Tokens: mover, Sequence: e.ledger})
}

func TestAddLiquidityForwardsDepositToMover(t *testing.T) {
	e := newEnv(t)
	f := setupAddLiquidity(e, 750_000)

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mover := mocks.NewMockTokenMover(ctrl)

	// The deposit is debited from the provider's source under the
	// provider's own signature, never the pool authority.
	mover.EXPECT().
		Deposit(gomock.Any(), f.source, f.pool.treasury, uint64(750_000), f.provider).
		Return(op.InsufficientFunds)

	result := mockedEngine(e, mover).Apply(op.Submission{
		Program: keys.EngineProgram,
		Accounts: []op.AccountRef{signer(f.provider), ref(f.pool.key),
			ref(f.pool.treasury), ref(f.account), ref(f.source)},
		Data: append([]byte{byte(op.TagAddLiquidity)}, op.EncodeU64(nil, 750_000)...),
	})
	require.Equal(t, op.InsufficientFunds, result.Result)
	require.False(t, result.Applied)
}

func TestRemoveLiquidityRollsBackWhenWithdrawFails(t *testing.T) {
	e := newEnv(t)
	network := e.createNetwork("net")
	f := e.createPool(network, "primary", record.PrimaryMint, 1_000_000, 500_000)
	destination := addr("primary/payout")

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mover := mocks.NewMockTokenMover(ctrl)

	// payout = floor(1_000_000 * 200_000 / 500_000) = 400_000, withdrawn
	// from the treasury under the pool's derived authority.
	mover.EXPECT().
		Withdraw(gomock.Any(), f.treasury, destination, uint64(400_000), f.authority).
		Return(op.Internal)

	before := e.snapshot(f.key, f.account)
	result := mockedEngine(e, mover).Apply(op.Submission{
		Program: keys.EngineProgram,
		Accounts: []op.AccountRef{signer(f.owner), ref(f.key), ref(f.treasury),
			ref(f.account), ref(destination), ref(f.authority)},
		Data: append([]byte{byte(op.TagRemoveLiquidity)}, op.EncodeU128(nil, u128(200_000))...),
	})
	require.Equal(t, op.Internal, result.Result)
	require.False(t, result.Applied)

	// The share burn and pool update staged before the withdraw must not
	// survive the failure.
	e.requireUnchanged(before)
}
