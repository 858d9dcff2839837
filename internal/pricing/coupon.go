package pricing

import "github.com/shopspring/decimal"

// DiscountResult carries the outcome of applying a coupon to a fixed price.
type DiscountResult struct {
	OriginalAmount   decimal.Decimal
	DiscountedAmount decimal.Decimal
	Savings          decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// ApplyCoupon applies a fixed or percentage discount to a fixed-type price.
// Usage-type prices are never discounted here (tiered and package discounting
// happens upstream), so they return nil, as does an absent coupon. An
// unrecognised coupon type is a no-op discount rather than an error.
func ApplyCoupon(p Price, c *Coupon) *DiscountResult {
	if c == nil || p.Type != PriceTypeFixed {
		return nil
	}
	original := ParseAmount(p.Amount)
	discounted := original
	switch c.Type {
	case CouponTypeFixed:
		discounted = original.Sub(ParseAmount(orZero(c.AmountOff)))
		if discounted.IsNegative() {
			discounted = decimal.Zero
		}
	case CouponTypePercentage:
		off := ParseAmount(orZero(c.PercentageOff))
		discounted = original.Mul(decimal.NewFromInt(1).Sub(off.Div(oneHundred)))
	}
	return &DiscountResult{
		OriginalAmount:   original,
		DiscountedAmount: discounted,
		Savings:          original.Sub(discounted),
	}
}
