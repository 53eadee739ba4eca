// Package safemath provides overflow-aware integer helpers.
//
// Checked* functions return ErrOverflow instead of wrapping.
// Saturating* functions clamp at the type bounds.
package safemath

import (
	"errors"
	"math"

	"github.com/ryanavella/wide"
)

var ErrOverflow = errors.New("integer overflow")

func CheckedAddU64(a, b uint64) (uint64, error) {
	c := a + b
	if c < a {
		return 0, ErrOverflow
	}
	return c, nil
}

func CheckedSubU64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

func CheckedAddI64(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, ErrOverflow
	}
	return a + b, nil
}

func SaturatingSubU64(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// CheckedMulU128 multiplies in 128 bits. wide.Uint128 multiplication wraps,
// so the product is verified by dividing it back out.
func CheckedMulU128(a, b wide.Uint128) (wide.Uint128, error) {
	zero := wide.Uint128FromUint64(0)
	if a == zero || b == zero {
		return zero, nil
	}
	c := a.Mul(b)
	if c.Div(a) != b {
		return zero, ErrOverflow
	}
	return c, nil
}

// CheckedDivU128 fails on a zero divisor rather than panicking.
func CheckedDivU128(a, b wide.Uint128) (wide.Uint128, error) {
	if b == wide.Uint128FromUint64(0) {
		return b, ErrOverflow
	}
	return a.Div(b), nil
}

// NarrowU128 converts back to 64 bits, failing if the value does not fit.
func NarrowU128(a wide.Uint128) (uint64, error) {
	if !a.IsUint64() {
		return 0, ErrOverflow
	}
	return a.Uint64(), nil
}
