package pricing

// Display is the resolved presentation view of a price: the symbol, amount
// string and tier list the formatters should use.
type Display struct {
	Symbol string
	Amount string
	Tiers  []Tier
}

// ResolveDisplay resolves the effective symbol, amount and tiers for a price,
// honouring custom pricing units over fiat currency. The pricing unit is
// optional; pass nil when the upstream response did not expand it.
//
// Symbol precedence: the pricing unit's own glyph, then the custom unit code
// from the price config, then the mapped currency symbol (raw code when the
// currency is unknown). Amount precedence for CUSTOM prices: the unit
// denominated amount, the config amount, the fiat amount, then "0".
func ResolveDisplay(p Price, unit *PricingUnit) Display {
	return Display{
		Symbol: displaySymbol(p, unit),
		Amount: displayAmount(p),
		Tiers:  displayTiers(p),
	}
}

func displaySymbol(p Price, unit *PricingUnit) string {
	if p.PriceUnitType == PriceUnitTypeCustom {
		if unit != nil && unit.Symbol != "" {
			return unit.Symbol
		}
		if p.PriceUnitConfig != nil && p.PriceUnitConfig.PriceUnit != "" {
			return p.PriceUnitConfig.PriceUnit
		}
	}
	return CurrencySymbol(p.Currency)
}

func displayAmount(p Price) string {
	if p.PriceUnitType == PriceUnitTypeCustom {
		if p.PriceUnitAmount != "" {
			return p.PriceUnitAmount
		}
		if p.PriceUnitConfig != nil && p.PriceUnitConfig.Amount != "" {
			return p.PriceUnitConfig.Amount
		}
	}
	if p.Amount != "" {
		return p.Amount
	}
	return "0"
}

func displayTiers(p Price) []Tier {
	if p.PriceUnitType == PriceUnitTypeCustom {
		return p.PriceUnitTiers
	}
	return p.Tiers
}
