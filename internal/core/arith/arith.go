// Package arith provides checked fixed-width arithmetic over the unsigned
// 64- and 128-bit magnitudes the engine operates on. Every function returns
// an ok flag instead of wrapping; false covers overflow, underflow and
// division by zero uniformly.
package arith

import (
	"math/bits"

	"github.com/holiman/uint256"
)

// Add64 returns a+b, failing on overflow.
func Add64(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// Sub64 returns a-b, failing on underflow.
func Sub64(a, b uint64) (uint64, bool) {
	diff, borrow := bits.Sub64(a, b, 0)
	return diff, borrow == 0
}

// Mul64 returns a*b, failing on overflow.
func Mul64(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

// Div64 returns a/b rounded toward zero, failing on a zero divisor.
func Div64(a, b uint64) (uint64, bool) {
	if b == 0 {
		return 0, false
	}
	return a / b, true
}

// FitsU128 reports whether v is within the 128-bit range.
func FitsU128(v *uint256.Int) bool {
	return v.BitLen() <= 128
}

// U128 builds a 128-bit value from a 64-bit one.
func U128(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

// Add128 returns a+b under 128-bit semantics, failing on overflow.
func Add128(a, b *uint256.Int) (*uint256.Int, bool) {
	if !FitsU128(a) || !FitsU128(b) {
		return nil, false
	}
	sum := new(uint256.Int).Add(a, b)
	if !FitsU128(sum) {
		return nil, false
	}
	return sum, true
}

// Sub128 returns a-b under 128-bit semantics, failing on underflow.
func Sub128(a, b *uint256.Int) (*uint256.Int, bool) {
	if !FitsU128(a) || !FitsU128(b) || a.Lt(b) {
		return nil, false
	}
	return new(uint256.Int).Sub(a, b), true
}

// Mul128 returns a*b under 128-bit semantics, failing when the product
// exceeds the 128-bit range.
func Mul128(a, b *uint256.Int) (*uint256.Int, bool) {
	if !FitsU128(a) || !FitsU128(b) {
		return nil, false
	}
	product := new(uint256.Int).Mul(a, b)
	if !FitsU128(product) {
		return nil, false
	}
	return product, true
}

// Div128 returns a/b rounded toward zero under 128-bit semantics, failing
// on a zero divisor.
func Div128(a, b *uint256.Int) (*uint256.Int, bool) {
	if !FitsU128(a) || !FitsU128(b) || b.IsZero() {
		return nil, false
	}
	return new(uint256.Int).Div(a, b), true
}

// ToU64 narrows a 128-bit value to 64 bits, failing when it does not fit.
func ToU64(v *uint256.Int) (uint64, bool) {
	if !v.IsUint64() {
		return 0, false
	}
	return v.Uint64(), true
}
