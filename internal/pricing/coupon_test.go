package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestApplyCouponPercentage(t *testing.T) {
	price := Price{Type: PriceTypeFixed, Amount: "100", Currency: "USD"}
	result := ApplyCoupon(price, &Coupon{Type: CouponTypePercentage, PercentageOff: "10"})
	if result == nil {
		t.Fatal("expected a discount result")
	}
	if !result.OriginalAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("unexpected original %s", result.OriginalAmount)
	}
	if !result.DiscountedAmount.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("unexpected discounted %s", result.DiscountedAmount)
	}
	if !result.Savings.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("unexpected savings %s", result.Savings)
	}
}

func TestApplyCouponFixedClamped(t *testing.T) {
	price := Price{Type: PriceTypeFixed, Amount: "50", Currency: "USD"}
	result := ApplyCoupon(price, &Coupon{Type: CouponTypeFixed, AmountOff: "1000"})
	if result == nil {
		t.Fatal("expected a discount result")
	}
	if !result.DiscountedAmount.IsZero() {
		t.Fatalf("discounted amount must clamp at zero, got %s", result.DiscountedAmount)
	}
	if !result.Savings.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("savings must never exceed the original, got %s", result.Savings)
	}
}

func TestApplyCouponFixed(t *testing.T) {
	price := Price{Type: PriceTypeFixed, Amount: "100", Currency: "USD"}
	result := ApplyCoupon(price, &Coupon{Type: CouponTypeFixed, AmountOff: "25.50"})
	if result == nil {
		t.Fatal("expected a discount result")
	}
	want, _ := decimal.NewFromString("74.5")
	if !result.DiscountedAmount.Equal(want) {
		t.Fatalf("unexpected discounted %s", result.DiscountedAmount)
	}
}

func TestApplyCouponUsagePrice(t *testing.T) {
	price := Price{Type: PriceTypeUsage, Amount: "100", Currency: "USD"}
	if result := ApplyCoupon(price, &Coupon{Type: CouponTypePercentage, PercentageOff: "10"}); result != nil {
		t.Fatalf("usage prices are never discounted, got %+v", result)
	}
}

func TestApplyCouponAbsent(t *testing.T) {
	price := Price{Type: PriceTypeFixed, Amount: "100", Currency: "USD"}
	if result := ApplyCoupon(price, nil); result != nil {
		t.Fatalf("missing coupon must return nil, got %+v", result)
	}
}

func TestApplyCouponUnknownType(t *testing.T) {
	price := Price{Type: PriceTypeFixed, Amount: "100", Currency: "USD"}
	result := ApplyCoupon(price, &Coupon{Type: CouponType("mystery"), AmountOff: "10"})
	if result == nil {
		t.Fatal("unknown coupon types are a no-op, not an error")
	}
	if !result.DiscountedAmount.Equal(result.OriginalAmount) {
		t.Fatalf("expected no-op discount, got %s", result.DiscountedAmount)
	}
	if !result.Savings.IsZero() {
		t.Fatalf("expected zero savings, got %s", result.Savings)
	}
}

func TestApplyCouponZeroPercent(t *testing.T) {
	price := Price{Type: PriceTypeFixed, Amount: "80", Currency: "USD"}
	result := ApplyCoupon(price, &Coupon{Type: CouponTypePercentage})
	if result == nil {
		t.Fatal("expected a discount result")
	}
	if !result.Savings.IsZero() {
		t.Fatalf("zero-percent coupons save nothing, got %s", result.Savings)
	}
}
