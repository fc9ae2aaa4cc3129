package document

import "github.com/shopspring/decimal"

// AppliedDiscount is the part of headerDiscount that reaches the totals:
// zero for credit-type kinds and never more than gross.
func AppliedDiscount(headerDiscount, gross decimal.Decimal, k Kind) decimal.Decimal {
	if !k.DiscountApplies() || !gross.IsPositive() || !headerDiscount.IsPositive() {
		return decimal.Zero
	}
	return decimal.Min(headerDiscount, gross)
}

// DiscountFactor converts an absolute header discount into the multiplier
// applied uniformly to every line's subtotal and tax.
//
// The result lies in [0, 1]. A zero gross yields 1, since a discount on
// nothing has no effect.
func DiscountFactor(headerDiscount, gross decimal.Decimal, k Kind) decimal.Decimal {
	applied := AppliedDiscount(headerDiscount, gross, k)
	if applied.IsZero() {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(1).Sub(applied.Div(gross))
}
