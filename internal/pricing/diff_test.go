package pricing

import (
	"strings"
	"testing"
)

func basePrice() Price {
	return Price{
		Type:         PriceTypeFixed,
		BillingModel: BillingModelFlatFee,
		Amount:       "40",
		Currency:     "USD",
	}
}

func TestDiffOverrideEmpty(t *testing.T) {
	if lines := DiffOverride(basePrice(), PriceOverride{}, nil); len(lines) != 0 {
		t.Fatalf("expected no changes, got %v", lines)
	}
}

func TestDiffOverrideAmountOnly(t *testing.T) {
	lines := DiffOverride(basePrice(), PriceOverride{Amount: "50"}, nil)
	if len(lines) != 1 {
		t.Fatalf("expected exactly one entry, got %v", lines)
	}
	if lines[0] != "Amount: $40 → $50" {
		t.Fatalf("unexpected entry %q", lines[0])
	}
}

func TestDiffOverrideAmountEqualIsSilent(t *testing.T) {
	if lines := DiffOverride(basePrice(), PriceOverride{Amount: "40"}, nil); len(lines) != 0 {
		t.Fatalf("identical amount must not report, got %v", lines)
	}
	// raw string comparison: differently formatted equals are reported
	lines := DiffOverride(basePrice(), PriceOverride{Amount: "40.00"}, nil)
	if len(lines) != 1 {
		t.Fatalf("expected formatting delta to report, got %v", lines)
	}
}

func TestDiffOverrideBillingModel(t *testing.T) {
	lines := DiffOverride(basePrice(), PriceOverride{BillingModel: BillingModelSlabTiered}, nil)
	if len(lines) != 1 || lines[0] != "Billing Model: Flat Fee → Slab Tiered" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestDiffOverrideTierMode(t *testing.T) {
	base := basePrice()
	base.TierMode = TierModeVolume
	lines := DiffOverride(base, PriceOverride{TierMode: TierModeSlab}, nil)
	if len(lines) != 1 || lines[0] != "Tier Mode: Volume → Slab" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestDiffOverrideQuantityGatedOnUsage(t *testing.T) {
	override := PriceOverride{Quantity: int64Ptr(5)}

	fixed := basePrice()
	lines := DiffOverride(fixed, override, nil)
	// a fixed price keeps its implicit quantity of 1, so only the generic
	// fallback fires
	if len(lines) != 1 || lines[0] != "Price configuration modified" {
		t.Fatalf("unexpected lines for fixed price %v", lines)
	}

	usage := basePrice()
	usage.Type = PriceTypeUsage
	lines = DiffOverride(usage, override, nil)
	if len(lines) != 1 || lines[0] != "Quantity: 1 → 5" {
		t.Fatalf("unexpected lines for usage price %v", lines)
	}

	lines = DiffOverride(usage, PriceOverride{Quantity: int64Ptr(1)}, nil)
	if len(lines) != 1 || lines[0] != "Price configuration modified" {
		t.Fatalf("quantity of one must not report, got %v", lines)
	}
}

func TestDiffOverridePackageSize(t *testing.T) {
	base := basePrice()
	base.BillingModel = BillingModelPackage
	base.TransformQuantity = &TransformQuantity{DivideBy: 5}
	lines := DiffOverride(base, PriceOverride{TransformQuantity: &TransformQuantity{DivideBy: 10}}, nil)
	if len(lines) != 1 || lines[0] != "Package Size: 5 units → 10 units" {
		t.Fatalf("unexpected lines %v", lines)
	}

	// not a package on either side: transform quantity is ignored
	lines = DiffOverride(basePrice(), PriceOverride{TransformQuantity: &TransformQuantity{DivideBy: 10}}, nil)
	if len(lines) != 1 || lines[0] != "Price configuration modified" {
		t.Fatalf("expected generic fallback, got %v", lines)
	}

	// switching to package counts, with the base divisor defaulting to 1
	lines = DiffOverride(basePrice(), PriceOverride{
		BillingModel:      BillingModelPackage,
		TransformQuantity: &TransformQuantity{DivideBy: 4},
	}, nil)
	found := false
	for _, line := range lines {
		if line == "Package Size: 1 units → 4 units" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected package size entry, got %v", lines)
	}
}

func TestDiffOverrideTierCountMismatch(t *testing.T) {
	base := basePrice()
	base.BillingModel = BillingModelTiered
	base.Tiers = []Tier{
		{UpTo: int64Ptr(100), UnitAmount: "2"},
		{UpTo: nil, UnitAmount: "1"},
	}
	override := PriceOverride{Tiers: []Tier{
		{UpTo: int64Ptr(50), UnitAmount: "3"},
		{UpTo: int64Ptr(100), UnitAmount: "2"},
		{UpTo: nil, UnitAmount: "1"},
	}}
	lines := DiffOverride(base, override, nil)
	if len(lines) != 1 {
		t.Fatalf("count mismatch must suppress per-tier detail, got %v", lines)
	}
	if lines[0] != "Tiers: 2 tiers → 3 tiers" {
		t.Fatalf("unexpected summary %q", lines[0])
	}
}

func TestDiffOverridePerTierChanges(t *testing.T) {
	base := basePrice()
	base.BillingModel = BillingModelTiered
	base.Tiers = []Tier{
		{UpTo: int64Ptr(100), UnitAmount: "2"},
		{UpTo: nil, UnitAmount: "1"},
	}
	override := PriceOverride{Tiers: []Tier{
		{UpTo: int64Ptr(200), UnitAmount: "2"},
		{UpTo: nil, UnitAmount: "0.5", FlatAmount: "10"},
	}}
	lines := DiffOverride(base, override, nil)
	if len(lines) != 2 {
		t.Fatalf("expected two tier lines, got %v", lines)
	}
	if lines[0] != "Tier 1: Up to (<=): 100 → 200" {
		t.Fatalf("unexpected first tier line %q", lines[0])
	}
	want := "Tier 2: From (>): 100 → 200, Per unit price: $1 → $0.5, Flat fee: $0 → $10"
	if lines[1] != want {
		t.Fatalf("unexpected second tier line %q", lines[1])
	}
}

func TestDiffOverrideTierStructureModified(t *testing.T) {
	base := basePrice()
	base.BillingModel = BillingModelTiered
	base.Tiers = []Tier{
		{UpTo: int64Ptr(100), UnitAmount: "2"},
		{UpTo: nil, UnitAmount: "1"},
	}
	// same shape, same values: tiers were patched but nothing differs
	override := PriceOverride{Tiers: append([]Tier(nil), base.Tiers...)}
	lines := DiffOverride(base, override, nil)
	if len(lines) != 1 || lines[0] != "Tier structure modified" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestDiffOverrideFallback(t *testing.T) {
	base := basePrice()
	base.TierMode = TierModeVolume
	// override present but every field matches the base
	lines := DiffOverride(base, PriceOverride{TierMode: TierModeVolume}, nil)
	if len(lines) != 1 || lines[0] != "Price configuration modified" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestDiffOverrideCustomUnitSymbol(t *testing.T) {
	base := basePrice()
	base.PriceUnitType = PriceUnitTypeCustom
	base.PriceUnitConfig = &PriceUnitConfig{PriceUnit: "TOK", Amount: "40"}
	lines := DiffOverride(base, PriceOverride{Amount: "55"}, &PricingUnit{Code: "TOK", Symbol: "Ⓣ"})
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "Amount: Ⓣ40 → Ⓣ55") {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestDetectSeparatesStructureFromRendering(t *testing.T) {
	base := basePrice()
	diff := Detect(base, PriceOverride{Amount: "50"}, nil)
	if len(diff.Fields) != 1 {
		t.Fatalf("expected one structured change, got %+v", diff)
	}
	change := diff.Fields[0]
	if change.Field != "Amount" || change.From != "$40" || change.To != "$50" {
		t.Fatalf("unexpected change %+v", change)
	}
}
