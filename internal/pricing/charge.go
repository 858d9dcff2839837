package pricing

import (
	"fmt"
	"strconv"
)

// unboundedRange is the rendered upper bound for the terminal tier.
const unboundedRange = "∞"

// FormatCharge renders the short human-readable charge headline for a price.
// Tiered models have no single amount, so the first tier's rate is the
// representative figure; FormatTierRanges supplies the full detail.
func FormatCharge(amount, symbol string, model BillingModel, tq *TransformQuantity, tiers []Tier) string {
	switch model {
	case BillingModelPackage:
		divideBy := int64(1)
		if tq != nil && tq.DivideBy > 0 {
			divideBy = tq.DivideBy
		}
		return fmt.Sprintf("%s%s / %d units", symbol, FormatAmount(amount), divideBy)
	case BillingModelTiered, BillingModelSlabTiered:
		unitAmount := "0"
		if len(tiers) > 0 && tiers[0].UnitAmount != "" {
			unitAmount = tiers[0].UnitAmount
		}
		return fmt.Sprintf("starts at %s%s per unit", symbol, FormatAmount(unitAmount))
	default:
		return symbol + FormatAmount(amount)
	}
}

// FormatChargeForPrice is the resolver-backed convenience form of
// FormatCharge used by the portal views.
func FormatChargeForPrice(p Price, unit *PricingUnit) string {
	display := ResolveDisplay(p, unit)
	return FormatCharge(display.Amount, display.Symbol, p.BillingModel, p.TransformQuantity, display.Tiers)
}

// TierLowerBound computes the displayed lower bound for the tier at index i.
// A nil upper bound on a preceding tier cannot normally occur; it is treated
// as zero to keep rendering total.
func TierLowerBound(tiers []Tier, i int) int64 {
	if i <= 0 || i > len(tiers) {
		return 0
	}
	prev := tiers[i-1].UpTo
	if prev == nil {
		return 0
	}
	return *prev
}

// TierUpperBound renders the displayed upper bound for the tier at index i.
// The final tier always renders as unbounded.
func TierUpperBound(tiers []Tier, i int) string {
	if i < 0 || i >= len(tiers) {
		return unboundedRange
	}
	if tiers[i].UpTo == nil || i == len(tiers)-1 {
		return unboundedRange
	}
	return strconv.FormatInt(*tiers[i].UpTo, 10)
}

// FormatTierRange renders one tier as a range line, appending the flat-fee
// suffix only when the tier carries a positive flat amount.
func FormatTierRange(symbol string, tiers []Tier, i int) string {
	if i < 0 || i >= len(tiers) {
		return ""
	}
	tier := tiers[i]
	line := fmt.Sprintf("%d - %s units: %s%s per unit",
		TierLowerBound(tiers, i), TierUpperBound(tiers, i), symbol, FormatAmount(tier.UnitAmount))
	if ParseAmount(tier.FlatAmount).IsPositive() {
		line += fmt.Sprintf(" + %s%s flat fee", symbol, FormatAmount(tier.FlatAmount))
	}
	return line
}

// FormatTierRanges renders every tier of an ordered tier list.
func FormatTierRanges(symbol string, tiers []Tier) []string {
	if len(tiers) == 0 {
		return nil
	}
	lines := make([]string, 0, len(tiers))
	for i := range tiers {
		lines = append(lines, FormatTierRange(symbol, tiers, i))
	}
	return lines
}
