// Package curve prices reserve moves across pools and splits swap output
// into payout, trading fee and protocol earn.
package curve

import (
	"github.com/holiman/uint256"

	"github.com/LeJamon/goswapd/internal/core/arith"
)

// Curve computes the target pool's new reserve after the source pool's
// reserve moves from oldSrc to newSrc with both share supplies fixed.
// Holding the supplies constant, preserving the cross-pool rate anchored by
// reserve-per-share reduces to preserving the product of the two reserves:
//
//	newTgt = floor(tgtReserve * oldSrc / newSrc)
//
// It fails when either share supply is zero (an empty pool has no defined
// rate), when newSrc is zero, or when the result does not fit 64 bits.
func Curve(newSrc, oldSrc uint64, srcShares *uint256.Int, tgtReserve uint64, tgtShares *uint256.Int) (uint64, bool) {
	if srcShares == nil || tgtShares == nil || srcShares.IsZero() || tgtShares.IsZero() {
		return 0, false
	}
	product, ok := arith.Mul128(arith.U128(tgtReserve), arith.U128(oldSrc))
	if !ok {
		return 0, false
	}
	quotient, ok := arith.Div128(product, arith.U128(newSrc))
	if !ok {
		return 0, false
	}
	return arith.ToU64(quotient)
}
