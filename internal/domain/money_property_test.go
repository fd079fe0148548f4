package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"pgregory.net/rapid"
)

func TestProperty_MonetaryRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cents := rapid.Int64Range(-99_999_999_99, 99_999_999_99).Draw(t, "cents")

		got, err := ToCents(FromCents(cents))
		if err != nil {
			t.Fatalf("ToCents(FromCents(%d)) returned error: %v", cents, err)
		}
		if got != cents {
			t.Fatalf("round-trip failed: %d → %s → %d", cents, FromCents(cents), got)
		}
	})
}

func TestProperty_ToCentsRejectsExcessPrecision(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Build a value with a non-zero third decimal digit: mills / 1000.
		whole := rapid.Int64Range(-999_999, 999_999).Draw(t, "whole")
		d3 := rapid.Int64Range(1, 9).Draw(t, "d3")
		mills := whole*1000 + d3
		if whole < 0 {
			mills = whole*1000 - d3
		}

		if _, err := ToCents(decimal.New(mills, -3)); err == nil {
			t.Fatalf("ToCents(%s) should reject value with >2 decimal places", decimal.New(mills, -3))
		}
	})
}

func TestProperty_ToCentsRejectsOutOfRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// Whole-cent amounts strictly beyond int64 on either side.
		excess := decimal.NewFromInt(rapid.Int64Range(1, math.MaxInt64).Draw(t, "excess"))
		cents := maxCents.Add(excess)
		if rapid.Bool().Draw(t, "negative") {
			cents = minCents.Sub(excess)
		}
		amount := cents.Shift(-2)

		if got, err := ToCents(amount); err == nil {
			t.Fatalf("ToCents(%s) = %d, want out-of-range error", amount, got)
		}
	})
}

func TestProperty_MulCentsMatchesDecimal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		price := rapid.Int64Range(1, math.MaxInt64).Draw(t, "price")
		qty := rapid.Int64Range(1, math.MaxInt64).Draw(t, "qty")

		exact := decimal.NewFromInt(price).Mul(decimal.NewFromInt(qty))
		got, ok := MulCents(price, qty)
		if fits := !exact.GreaterThan(maxCents); ok != fits {
			t.Fatalf("MulCents(%d, %d) ok = %v, want %v", price, qty, ok, fits)
		}
		if ok && got != exact.IntPart() {
			t.Fatalf("MulCents(%d, %d) = %d, want %s", price, qty, got, exact)
		}
	})
}
