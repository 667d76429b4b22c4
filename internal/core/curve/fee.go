package curve

import (
	"github.com/LeJamon/goswapd/internal/core/arith"
)

// fee = 2500000/1000000000 = 0.25%
// earn = 500000/1000000000 = 0.05%
const (
	FeeNumerator   uint64 = 2_500_000
	EarnNumerator  uint64 = 500_000
	FeeDenominator uint64 = 1_000_000_000
)

// ApplyFee splits the gross output of a swap. newReserve is the ask pool's
// reserve as priced by the curve, before fees; oldReserve its reserve before
// the swap. The trading fee compounds back into the reserve; the earn fee is
// the protocol's cut, waived when the bought asset is the primary asset.
//
// Returns the reserve with the fee folded in, the trader payout, and both
// fee components. Fails if the reserve grew (no gross output) or any step
// overflows.
func ApplyFee(newReserve, oldReserve uint64, primaryTarget bool) (withFee, payout, fee, earn uint64, ok bool) {
	gross, ok := arith.Sub64(oldReserve, newReserve)
	if !ok {
		return 0, 0, 0, 0, false
	}
	fee, ok = feeCut(gross, FeeNumerator)
	if !ok {
		return 0, 0, 0, 0, false
	}
	earn, ok = feeCut(gross, EarnNumerator)
	if !ok {
		return 0, 0, 0, 0, false
	}
	if primaryTarget {
		earn = 0
	}
	withFee, ok = arith.Add64(newReserve, fee)
	if !ok {
		return 0, 0, 0, 0, false
	}
	payout, ok = arith.Sub64(gross, fee)
	if !ok {
		return 0, 0, 0, 0, false
	}
	payout, ok = arith.Sub64(payout, earn)
	if !ok {
		return 0, 0, 0, 0, false
	}
	return withFee, payout, fee, earn, true
}

// feeCut computes floor(gross * numerator / FeeDenominator) in 128-bit
// intermediates.
func feeCut(gross, numerator uint64) (uint64, bool) {
	product, ok := arith.Mul128(arith.U128(gross), arith.U128(numerator))
	if !ok {
		return 0, false
	}
	quotient, ok := arith.Div128(product, arith.U128(FeeDenominator))
	if !ok {
		return 0, false
	}
	return arith.ToU64(quotient)
}
