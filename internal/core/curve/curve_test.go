package curve

import (
	"math"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shares(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func TestCurve(t *testing.T) {
	tt := []struct {
		description string
		newSrc      uint64
		oldSrc      uint64
		tgt         uint64
		want        uint64
		ok          bool
	}{
		{"doubling source halves target", 2000, 1000, 500, 250, true},
		{"unchanged source keeps target", 1000, 1000, 777, 777, true},
		{"quotient floors", 7, 3, 1000, 428, true},
		{"large reserves stay exact", 1_500_000, 1_000_000, 900_000, 600_000, true},
		{"zero new source", 0, 1000, 500, 0, false},
		{"shrinking source can overflow target", 1, 2, math.MaxUint64, 0, false},
	}
	for _, tc := range tt {
		t.Run(tc.description, func(t *testing.T) {
			got, ok := Curve(tc.newSrc, tc.oldSrc, shares(10), tc.tgt, shares(10))
			require.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}

func TestCurveRequiresLiveSupplies(t *testing.T) {
	_, ok := Curve(2000, 1000, shares(0), 500, shares(10))
	require.False(t, ok, "empty source pool has no rate")

	_, ok = Curve(2000, 1000, shares(10), 500, shares(0))
	require.False(t, ok, "empty target pool has no rate")

	_, ok = Curve(2000, 1000, nil, 500, shares(10))
	require.False(t, ok)
}

func TestCurvePreservesProduct(t *testing.T) {
	// newTgt*newSrc stays within one newSrc of tgt*oldSrc (floor rounding).
	const oldSrc, tgt = 1_000_000, 750_000
	for _, amount := range []uint64{1, 13, 999, 250_000, 1_000_000} {
		newSrc := oldSrc + amount
		newTgt, ok := Curve(newSrc, oldSrc, shares(5), tgt, shares(7))
		require.True(t, ok)

		before := new(uint256.Int).Mul(uint256.NewInt(tgt), uint256.NewInt(oldSrc))
		after := new(uint256.Int).Mul(uint256.NewInt(newTgt), uint256.NewInt(newSrc))
		diff := new(uint256.Int).Sub(before, after)
		assert.True(t, diff.CmpUint64(newSrc) < 0,
			"amount=%d: product drifted by %s, newSrc=%d", amount, diff, newSrc)
		assert.LessOrEqual(t, newTgt, uint64(tgt), "target reserve never grows on a buy")
	}
}

func TestApplyFee(t *testing.T) {
	t.Run("standard split", func(t *testing.T) {
		// gross = 1_000_000: fee 0.25% = 2500, earn 0.05% = 500
		withFee, payout, fee, earn, ok := ApplyFee(9_000_000, 10_000_000, false)
		require.True(t, ok)
		assert.Equal(t, uint64(2500), fee)
		assert.Equal(t, uint64(500), earn)
		assert.Equal(t, uint64(997_000), payout)
		assert.Equal(t, uint64(9_002_500), withFee)
	})

	t.Run("primary target waives earn", func(t *testing.T) {
		withFee, payout, fee, earn, ok := ApplyFee(9_000_000, 10_000_000, true)
		require.True(t, ok)
		assert.Equal(t, uint64(2500), fee)
		assert.Zero(t, earn)
		assert.Equal(t, uint64(997_500), payout)
		assert.Equal(t, uint64(9_002_500), withFee)
	})

	t.Run("reserve growth fails", func(t *testing.T) {
		_, _, _, _, ok := ApplyFee(10_000_001, 10_000_000, false)
		require.False(t, ok)
	})

	t.Run("zero gross is a zero split", func(t *testing.T) {
		withFee, payout, fee, earn, ok := ApplyFee(10_000_000, 10_000_000, false)
		require.True(t, ok)
		assert.Zero(t, fee)
		assert.Zero(t, earn)
		assert.Zero(t, payout)
		assert.Equal(t, uint64(10_000_000), withFee)
	})

	t.Run("fee floors to zero below rate granularity", func(t *testing.T) {
		_, payout, fee, earn, ok := ApplyFee(10_000_000-399, 10_000_000, false)
		require.True(t, ok)
		assert.Zero(t, fee)
		assert.Zero(t, earn)
		assert.Equal(t, uint64(399), payout)
	})

	t.Run("both cuts positive once gross clears both rates", func(t *testing.T) {
		_, _, fee, earn, ok := ApplyFee(10_000_000-2000, 10_000_000, false)
		require.True(t, ok)
		assert.Equal(t, uint64(5), fee)
		assert.Equal(t, uint64(1), earn)
	})
}

func TestApplyFeeConservesValue(t *testing.T) {
	// withFee + payout + earn == oldReserve for every split.
	old := uint64(10_000_000)
	for _, gross := range []uint64{1, 399, 400, 1999, 2000, 654_321, old} {
		withFee, payout, _, earn, ok := ApplyFee(old-gross, old, false)
		require.True(t, ok, "gross=%d", gross)
		assert.Equal(t, old, withFee+payout+earn, "gross=%d", gross)
	}
}
