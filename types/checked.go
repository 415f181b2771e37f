package types

import "math"

// Overflow-checked integer arithmetic. Batch totals and payout shares are
// computed with these instead of the wrapping operators: an overflow reports
// failure to the caller rather than silently producing a wrong amount.

// CheckedAdd returns a+b and true, or 0 and false if the sum overflows int64.
func CheckedAdd(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// CheckedMul returns a×b and true, or 0 and false if the product overflows int64.
func CheckedMul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == math.MinInt64 && b == -1) || (a == -1 && b == math.MinInt64) {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

// MulDivFloor returns ⌊a×b/div⌋ and true, or 0 and false if div is zero or
// the numerator a×b overflows int64. The division truncates toward zero,
// which equals floor for the non-negative operands used throughout Granary.
func MulDivFloor(a, b, div int64) (int64, bool) {
	if div == 0 {
		return 0, false
	}
	n, ok := CheckedMul(a, b)
	if !ok {
		return 0, false
	}
	return n / div, true
}

// AddChecked adds two Money values with overflow detection.
// Panics if currencies don't match, like Add.
func (m Money) AddChecked(other Money) (Money, bool) {
	m.assertSameCurrency(other)
	amount, ok := CheckedAdd(m.Amount, other.Amount)
	if !ok {
		return Money{}, false
	}
	return Money{Amount: amount, Currency: m.Currency}, true
}

// MulChecked multiplies the Money by a quantity with overflow detection.
func (m Money) MulChecked(qty int64) (Money, bool) {
	amount, ok := CheckedMul(m.Amount, qty)
	if !ok {
		return Money{}, false
	}
	return Money{Amount: amount, Currency: m.Currency}, true
}

// ProRata returns the floor of m×part/whole: the proportional slice of m that
// a contribution of part units earns out of whole units. Reports false if
// whole is zero or the numerator overflows int64.
func (m Money) ProRata(part, whole int64) (Money, bool) {
	amount, ok := MulDivFloor(m.Amount, part, whole)
	if !ok {
		return Money{}, false
	}
	return Money{Amount: amount, Currency: m.Currency}, true
}
