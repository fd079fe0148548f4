package domain

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// ToCents converts a decimal currency amount to int64 cents. It rejects
// amounts with more than 2 decimal places instead of rounding them, and
// amounts that do not fit in int64 cents.
func ToCents(d decimal.Decimal) (int64, error) {
	cents := d.Mul(hundred)
	if !cents.IsInteger() {
		return 0, fmt.Errorf("monetary values must have at most 2 decimal places")
	}
	if cents.GreaterThan(maxCents) || cents.LessThan(minCents) {
		return 0, fmt.Errorf("monetary value %s is out of range", d)
	}
	return cents.IntPart(), nil
}

// FromCents converts int64 cents back to a decimal currency amount.
func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// MulCents returns price × qty for non-negative operands. ok is false when
// the product does not fit in int64.
func MulCents(price, qty int64) (int64, bool) {
	if price < 0 || qty < 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(price), uint64(qty))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

// AddCents returns a + b for non-negative operands. ok is false when the
// sum does not fit in int64.
func AddCents(a, b int64) (int64, bool) {
	if a < 0 || b < 0 || a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}
