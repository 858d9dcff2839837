package pricing

import (
	"fmt"
	"strconv"
	"strings"
)

// Change is one detected difference between a base price and its override.
type Change struct {
	Field string
	From  string
	To    string
}

// TierChange groups the field-level differences of a single tier position.
// Added marks positions the base price has no tier for; their Fields carry
// only the new values.
type TierChange struct {
	Index  int
	Added  bool
	Fields []Change
}

// Diff is the structured result of comparing a base price against an
// override patch. Detection is separate from rendering so the rules stay
// independently testable.
type Diff struct {
	Fields     []Change
	TierCount  *Change
	TierDeltas []TierChange

	tiersPatched bool
	overridden   bool
}

// Empty reports whether no difference of any kind was detected.
func (d Diff) Empty() bool {
	return len(d.Fields) == 0 && d.TierCount == nil && len(d.TierDeltas) == 0 && !d.tiersPatched
}

// DiffOverride compares a base price against an override patch and returns
// ordered human-readable change lines. The pricing unit, when available,
// resolves the symbol used for amount rendering.
func DiffOverride(base Price, override PriceOverride, unit *PricingUnit) []string {
	return Detect(base, override, unit).Render()
}

type fieldRule func(base Price, override PriceOverride, symbol string) (Change, bool)

// fieldRules run in a fixed order; every rule that fires contributes a line.
// Comparisons are raw string equality on upstream fields: payloads are
// expected to be canonically formatted, so "100" vs "100.00" is reported as
// a change rather than silently normalised.
var fieldRules = []fieldRule{
	billingModelRule,
	tierModeRule,
	amountRule,
	quantityRule,
	packageSizeRule,
}

// Detect runs every diff rule and collects the structured changes.
func Detect(base Price, override PriceOverride, unit *PricingUnit) Diff {
	symbol := displaySymbol(base, unit)
	diff := Diff{overridden: !override.Empty()}
	for _, rule := range fieldRules {
		if change, ok := rule(base, override, symbol); ok {
			diff.Fields = append(diff.Fields, change)
		}
	}
	detectTierChanges(&diff, base, override, symbol)
	return diff
}

// Render turns the structured diff into display lines, falling back to a
// generic entry when an override is present but nothing concrete differed.
func (d Diff) Render() []string {
	var lines []string
	for _, change := range d.Fields {
		lines = append(lines, fmt.Sprintf("%s: %s → %s", change.Field, change.From, change.To))
	}
	switch {
	case d.TierCount != nil:
		lines = append(lines, fmt.Sprintf("%s: %s → %s", d.TierCount.Field, d.TierCount.From, d.TierCount.To))
	case len(d.TierDeltas) > 0:
		for _, tc := range d.TierDeltas {
			lines = append(lines, tc.render())
		}
	case d.tiersPatched:
		lines = append(lines, "Tier structure modified")
	}
	if len(lines) == 0 && d.overridden {
		lines = append(lines, "Price configuration modified")
	}
	return lines
}

func (tc TierChange) render() string {
	parts := make([]string, 0, len(tc.Fields))
	if tc.Added {
		for _, f := range tc.Fields {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.To))
		}
		return fmt.Sprintf("Tier %d added: %s", tc.Index+1, strings.Join(parts, ", "))
	}
	for _, f := range tc.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s → %s", f.Field, f.From, f.To))
	}
	return fmt.Sprintf("Tier %d: %s", tc.Index+1, strings.Join(parts, ", "))
}

func billingModelRule(base Price, override PriceOverride, _ string) (Change, bool) {
	if override.BillingModel == "" || override.BillingModel == base.BillingModel {
		return Change{}, false
	}
	return Change{
		Field: "Billing Model",
		From:  BillingModelLabel(base.BillingModel),
		To:    BillingModelLabel(override.BillingModel),
	}, true
}

func tierModeRule(base Price, override PriceOverride, _ string) (Change, bool) {
	if override.TierMode == "" || override.TierMode == base.TierMode {
		return Change{}, false
	}
	return Change{
		Field: "Tier Mode",
		From:  TierModeLabel(base.TierMode),
		To:    TierModeLabel(override.TierMode),
	}, true
}

func amountRule(base Price, override PriceOverride, symbol string) (Change, bool) {
	if override.Amount == "" || override.Amount == base.Amount {
		return Change{}, false
	}
	return Change{
		Field: "Amount",
		From:  symbol + FormatAmount(displayAmount(base)),
		To:    symbol + FormatAmount(override.Amount),
	}, true
}

// quantityRule only fires for usage prices: a fixed price carries an implicit
// quantity of 1 that is never itself overridden upstream.
func quantityRule(base Price, override PriceOverride, _ string) (Change, bool) {
	if override.Quantity == nil || *override.Quantity == 1 || base.Type != PriceTypeUsage {
		return Change{}, false
	}
	return Change{
		Field: "Quantity",
		From:  "1",
		To:    strconv.FormatInt(*override.Quantity, 10),
	}, true
}

func packageSizeRule(base Price, override PriceOverride, _ string) (Change, bool) {
	if override.TransformQuantity == nil {
		return Change{}, false
	}
	if base.BillingModel != BillingModelPackage && override.BillingModel != BillingModelPackage {
		return Change{}, false
	}
	baseDivide := int64(1)
	if base.TransformQuantity != nil && base.TransformQuantity.DivideBy != 0 {
		baseDivide = base.TransformQuantity.DivideBy
	}
	overrideDivide := override.TransformQuantity.DivideBy
	if baseDivide == overrideDivide {
		return Change{}, false
	}
	return Change{
		Field: "Package Size",
		From:  fmt.Sprintf("%d units", baseDivide),
		To:    fmt.Sprintf("%d units", overrideDivide),
	}, true
}

func detectTierChanges(diff *Diff, base Price, override PriceOverride, symbol string) {
	if len(override.Tiers) == 0 {
		return
	}
	diff.tiersPatched = true
	if len(base.Tiers) != len(override.Tiers) {
		diff.TierCount = &Change{
			Field: "Tiers",
			From:  fmt.Sprintf("%d tiers", len(base.Tiers)),
			To:    fmt.Sprintf("%d tiers", len(override.Tiers)),
		}
		return
	}
	for i := range override.Tiers {
		if i >= len(base.Tiers) {
			diff.TierDeltas = append(diff.TierDeltas, addedTier(override.Tiers, i, symbol))
			continue
		}
		fields := tierFieldChanges(base.Tiers, override.Tiers, i, symbol)
		if len(fields) > 0 {
			diff.TierDeltas = append(diff.TierDeltas, TierChange{Index: i, Fields: fields})
		}
	}
}

func tierFieldChanges(baseTiers, overrideTiers []Tier, i int, symbol string) []Change {
	var fields []Change
	baseTier := baseTiers[i]
	overrideTier := overrideTiers[i]

	baseFrom := TierLowerBound(baseTiers, i)
	overrideFrom := TierLowerBound(overrideTiers, i)
	if baseFrom != overrideFrom {
		fields = append(fields, Change{
			Field: "From (>)",
			From:  strconv.FormatInt(baseFrom, 10),
			To:    strconv.FormatInt(overrideFrom, 10),
		})
	}

	if !upToEqual(baseTier.UpTo, overrideTier.UpTo) {
		fields = append(fields, Change{
			Field: "Up to (<=)",
			From:  upToDisplay(baseTier.UpTo),
			To:    upToDisplay(overrideTier.UpTo),
		})
	}

	if baseTier.UnitAmount != overrideTier.UnitAmount {
		fields = append(fields, Change{
			Field: "Per unit price",
			From:  symbol + FormatAmount(baseTier.UnitAmount),
			To:    symbol + FormatAmount(overrideTier.UnitAmount),
		})
	}

	if orZero(baseTier.FlatAmount) != orZero(overrideTier.FlatAmount) {
		fields = append(fields, Change{
			Field: "Flat fee",
			From:  symbol + FormatAmount(orZero(baseTier.FlatAmount)),
			To:    symbol + FormatAmount(orZero(overrideTier.FlatAmount)),
		})
	}
	return fields
}

func addedTier(overrideTiers []Tier, i int, symbol string) TierChange {
	tier := overrideTiers[i]
	return TierChange{
		Index: i,
		Added: true,
		Fields: []Change{
			{Field: "From (>)", To: strconv.FormatInt(TierLowerBound(overrideTiers, i), 10)},
			{Field: "Up to (<=)", To: upToDisplay(tier.UpTo)},
			{Field: "Per unit price", To: symbol + FormatAmount(tier.UnitAmount)},
			{Field: "Flat fee", To: symbol + FormatAmount(orZero(tier.FlatAmount))},
		},
	}
}

func upToEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func upToDisplay(v *int64) string {
	if v == nil {
		return unboundedRange
	}
	return strconv.FormatInt(*v, 10)
}

func orZero(amount string) string {
	if amount == "" {
		return "0"
	}
	return amount
}

// BillingModelLabel renders the descriptive name of a billing model;
// unrecognised values pass through unchanged.
func BillingModelLabel(m BillingModel) string {
	switch m {
	case BillingModelFlatFee:
		return "Flat Fee"
	case BillingModelPackage:
		return "Package"
	case BillingModelTiered:
		return "Volume Tiered"
	case BillingModelSlabTiered:
		return "Slab Tiered"
	default:
		return string(m)
	}
}

// TierModeLabel renders the descriptive name of a tier mode.
func TierModeLabel(m TierMode) string {
	switch m {
	case TierModeVolume:
		return "Volume"
	case TierModeSlab:
		return "Slab"
	default:
		return string(m)
	}
}
