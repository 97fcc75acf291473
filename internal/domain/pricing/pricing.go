// Package pricing computes cart totals and the loyalty discount. Every
// function is pure so pricing stays reproducible when auditing disputes.
package pricing

import "github.com/shopspring/decimal"

// loyaltyRate is the multiplier applied for loyalty-eligible customers (15% off).
var loyaltyRate = decimal.RequireFromString("0.85")

// Line is the priced portion of a cart entry.
type Line struct {
	Price    decimal.Decimal
	Quantity int
}

// Total returns the sum of price x quantity over all lines. Quantity and
// price sanity is the validator's job; Total only sums.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// ApplyLoyaltyDiscount reduces total by 15% when the caller is flagged
// eligible, rounding half-up to the nearest whole currency unit. Eligibility
// itself is decided upstream; this only applies the multiplier.
func ApplyLoyaltyDiscount(total decimal.Decimal, eligible bool) decimal.Decimal {
	if !eligible {
		return total
	}
	// Round(0) rounds half away from zero, which is half-up for the
	// non-negative amounts we deal with.
	return total.Mul(loyaltyRate).Round(0)
}
