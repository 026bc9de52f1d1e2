// Package money holds the fixed-point arithmetic used by the cash
// reconciliation ledgers. Amounts are decimal.Decimal throughout; float64
// accumulation drifts over long collection ledgers and is never used.
package money

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Add returns a + b.
func Add(a, b decimal.Decimal) decimal.Decimal {
	return a.Add(b)
}

// Sub returns a - b.
func Sub(a, b decimal.Decimal) decimal.Decimal {
	return a.Sub(b)
}

// Sum adds a list of amounts. An empty list sums to zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// PercentageOf returns value/total expressed as a percentage. A zero total
// yields zero rather than an error: an expected-cash of zero is a valid
// session outcome and must not break reporting.
func PercentageOf(value, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return value.Div(total).Mul(hundred)
}

// AccuracyRate returns (1 - |variance|/expected) * 100. With no expected
// cash there was nothing to miss, so the rate is 100.
func AccuracyRate(totalVariance, totalExpected decimal.Decimal) decimal.Decimal {
	if totalExpected.IsZero() {
		return hundred
	}
	return decimal.NewFromInt(1).Sub(totalVariance.Abs().Div(totalExpected)).Mul(hundred)
}
