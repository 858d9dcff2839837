package pricing

import "testing"

func int64Ptr(v int64) *int64 { return &v }

func TestResolveDisplayFiat(t *testing.T) {
	price := Price{
		Type:          PriceTypeFixed,
		Amount:        "42",
		Currency:      "USD",
		PriceUnitType: PriceUnitTypeFiat,
		Tiers:         []Tier{{UpTo: int64Ptr(10), UnitAmount: "1"}},
	}
	display := ResolveDisplay(price, &PricingUnit{Code: "TOK", Symbol: "Ⓣ"})
	if display.Symbol != "$" {
		t.Fatalf("fiat prices must use the currency symbol, got %q", display.Symbol)
	}
	if display.Amount != "42" {
		t.Fatalf("expected amount 42, got %q", display.Amount)
	}
	if len(display.Tiers) != 1 {
		t.Fatalf("expected fiat tiers, got %v", display.Tiers)
	}
}

func TestResolveDisplayCustomPrefersUnitSymbol(t *testing.T) {
	price := Price{
		Currency:        "USD",
		PriceUnitType:   PriceUnitTypeCustom,
		PriceUnitConfig: &PriceUnitConfig{PriceUnit: "BTC", Amount: "0.002"},
	}
	display := ResolveDisplay(price, &PricingUnit{Code: "BTC", Symbol: "₿"})
	if display.Symbol != "₿" {
		t.Fatalf("expected pricing unit symbol, got %q", display.Symbol)
	}
}

func TestResolveDisplayCustomFallsBackToUnitCode(t *testing.T) {
	price := Price{
		Currency:        "USD",
		PriceUnitType:   PriceUnitTypeCustom,
		PriceUnitConfig: &PriceUnitConfig{PriceUnit: "TOK"},
	}
	if got := ResolveDisplay(price, nil).Symbol; got != "TOK" {
		t.Fatalf("expected unit code fallback, got %q", got)
	}
	// empty unit symbol is the same as no unit
	if got := ResolveDisplay(price, &PricingUnit{Code: "TOK"}).Symbol; got != "TOK" {
		t.Fatalf("expected unit code over empty symbol, got %q", got)
	}
}

func TestResolveDisplayAmountPrecedence(t *testing.T) {
	price := Price{
		Amount:          "10",
		Currency:        "USD",
		PriceUnitType:   PriceUnitTypeCustom,
		PriceUnitAmount: "250",
		PriceUnitConfig: &PriceUnitConfig{PriceUnit: "TOK", Amount: "200"},
	}
	if got := ResolveDisplay(price, nil).Amount; got != "250" {
		t.Fatalf("expected price_unit_amount to win, got %q", got)
	}
	price.PriceUnitAmount = ""
	if got := ResolveDisplay(price, nil).Amount; got != "200" {
		t.Fatalf("expected config amount, got %q", got)
	}
	price.PriceUnitConfig = nil
	if got := ResolveDisplay(price, nil).Amount; got != "10" {
		t.Fatalf("expected fiat amount fallback, got %q", got)
	}
	price.Amount = ""
	if got := ResolveDisplay(price, nil).Amount; got != "0" {
		t.Fatalf("expected literal zero fallback, got %q", got)
	}
}

func TestResolveDisplayCustomTiers(t *testing.T) {
	price := Price{
		PriceUnitType:  PriceUnitTypeCustom,
		Currency:       "USD",
		Tiers:          []Tier{{UnitAmount: "1"}},
		PriceUnitTiers: nil,
	}
	if got := ResolveDisplay(price, nil).Tiers; got != nil {
		t.Fatalf("custom prices without unit tiers must resolve nil, got %v", got)
	}
	price.PriceUnitTiers = []Tier{{UnitAmount: "9"}}
	display := ResolveDisplay(price, nil)
	if len(display.Tiers) != 1 || display.Tiers[0].UnitAmount != "9" {
		t.Fatalf("expected unit tiers, got %v", display.Tiers)
	}
}

func TestResolveDisplayUnknownCurrency(t *testing.T) {
	price := Price{Currency: "ZZZ", Amount: "5"}
	if got := ResolveDisplay(price, nil).Symbol; got != "ZZZ" {
		t.Fatalf("unknown currencies must fall back to the raw code, got %q", got)
	}
}
