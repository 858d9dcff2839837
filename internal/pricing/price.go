package pricing

import (
	"errors"
	"fmt"
)

// PriceType distinguishes one-off fixed charges from usage-metered charges.
type PriceType string

const (
	PriceTypeFixed PriceType = "FIXED"
	PriceTypeUsage PriceType = "USAGE"
)

// BillingModel describes the pricing shape of a charge.
type BillingModel string

const (
	BillingModelFlatFee    BillingModel = "FLAT_FEE"
	BillingModelPackage    BillingModel = "PACKAGE"
	BillingModelTiered     BillingModel = "TIERED"
	BillingModelSlabTiered BillingModel = "SLAB_TIERED"
)

// TierMode determines whether a single tier's rate applies to the whole
// quantity (volume) or each band prices only its own portion (slab).
type TierMode string

const (
	TierModeVolume TierMode = "VOLUME"
	TierModeSlab   TierMode = "SLAB"
)

// PriceUnitType indicates whether a price is denominated in a fiat currency
// or a custom pricing unit such as a token or credit.
type PriceUnitType string

const (
	PriceUnitTypeFiat   PriceUnitType = "FIAT"
	PriceUnitTypeCustom PriceUnitType = "CUSTOM"
)

// Tier is one band of a tiered price. A nil UpTo marks the final, unbounded
// tier. The lower bound of tier i is the upper bound of tier i-1; tier 0
// starts at zero.
type Tier struct {
	UpTo       *int64 `json:"up_to"`
	UnitAmount string `json:"unit_amount"`
	FlatAmount string `json:"flat_amount,omitempty"`
}

// TransformQuantity carries the package divisor for PACKAGE-model prices.
type TransformQuantity struct {
	DivideBy int64 `json:"divide_by"`
}

// PriceUnitConfig holds the custom-unit code and amount attached to a price
// when the unit is not a fiat currency.
type PriceUnitConfig struct {
	PriceUnit string `json:"price_unit"`
	Amount    string `json:"amount"`
}

// PricingUnit describes a custom unit of account referenced by CUSTOM prices.
type PricingUnit struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
}

// Price is the canonical definition of a charge as served by the billing API.
// Amounts are decimal strings; the struct is a read-only value object and is
// never mutated by this package.
type Price struct {
	ID                string             `json:"id,omitempty"`
	Type              PriceType          `json:"type"`
	BillingModel      BillingModel       `json:"billing_model"`
	TierMode          TierMode           `json:"tier_mode,omitempty"`
	Amount            string             `json:"amount"`
	Currency          string             `json:"currency"`
	DisplayAmount     string             `json:"display_amount,omitempty"`
	PriceUnitType     PriceUnitType      `json:"price_unit_type,omitempty"`
	PriceUnitConfig   *PriceUnitConfig   `json:"price_unit_config,omitempty"`
	PriceUnitAmount   string             `json:"price_unit_amount,omitempty"`
	PriceUnitTiers    []Tier             `json:"price_unit_tiers,omitempty"`
	Tiers             []Tier             `json:"tiers,omitempty"`
	TransformQuantity *TransformQuantity `json:"transform_quantity,omitempty"`
}

// PriceOverride is a partial patch applied at subscription-line-item level.
// Only present fields are considered overridden; zero-valued fields inherit
// from the base price.
type PriceOverride struct {
	BillingModel      BillingModel       `json:"billing_model,omitempty"`
	TierMode          TierMode           `json:"tier_mode,omitempty"`
	Amount            string             `json:"amount,omitempty"`
	Quantity          *int64             `json:"quantity,omitempty"`
	TransformQuantity *TransformQuantity `json:"transform_quantity,omitempty"`
	Tiers             []Tier             `json:"tiers,omitempty"`
}

// Empty reports whether the override patches nothing at all.
func (o PriceOverride) Empty() bool {
	return o.BillingModel == "" &&
		o.TierMode == "" &&
		o.Amount == "" &&
		o.Quantity == nil &&
		o.TransformQuantity == nil &&
		len(o.Tiers) == 0
}

// CouponType selects the discount formula.
type CouponType string

const (
	CouponTypeFixed      CouponType = "fixed"
	CouponTypePercentage CouponType = "percentage"
)

// Coupon is a discount definition applicable to fixed-type charges.
type Coupon struct {
	Name          string     `json:"name,omitempty"`
	Type          CouponType `json:"type"`
	AmountOff     string     `json:"amount_off,omitempty"`
	PercentageOff string     `json:"percentage_off,omitempty"`
}

// ErrMalformedTiers flags tier lists that violate the ordering invariants.
var ErrMalformedTiers = errors.New("pricing: malformed tier list")

// ValidateTiers checks the tier-list invariants: bounds strictly ascending
// and at most one unbounded tier, which must be last. The formatters degrade
// gracefully on bad data, so callers treat a failure as a data-integrity
// warning at ingestion rather than a hard error.
func ValidateTiers(tiers []Tier) error {
	var prev *int64
	for i, t := range tiers {
		if t.UpTo == nil {
			if i != len(tiers)-1 {
				return fmt.Errorf("%w: unbounded tier at index %d is not last", ErrMalformedTiers, i)
			}
			continue
		}
		if prev != nil && *t.UpTo <= *prev {
			return fmt.Errorf("%w: tier %d upper bound %d does not exceed %d", ErrMalformedTiers, i, *t.UpTo, *prev)
		}
		prev = t.UpTo
	}
	return nil
}
