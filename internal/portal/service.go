package portal

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/meterline/portal-api/internal/billing"
	"github.com/meterline/portal-api/internal/cache"
	"github.com/meterline/portal-api/internal/obs"
	"github.com/meterline/portal-api/internal/pricing"
)

// ChargeSummary is the rendered view of one subscription line item: the
// headline charge string, tier breakdown, override changes and any
// coupon discount, all pre-formatted for display.
type ChargeSummary struct {
	LineItemID  string    `json:"line_item_id"`
	DisplayName string    `json:"display_name"`
	Quantity    int64     `json:"quantity,omitempty"`
	Charge      string    `json:"charge"`
	TierMode    string    `json:"tier_mode,omitempty"`
	TierRanges  []string  `json:"tier_ranges,omitempty"`
	Overridden  bool      `json:"overridden,omitempty"`
	Changes     []string  `json:"changes,omitempty"`
	Discount    *Discount `json:"discount,omitempty"`
}

// Discount carries the formatted before/after amounts for a coupon.
type Discount struct {
	CouponName       string `json:"coupon_name,omitempty"`
	OriginalAmount   string `json:"original_amount"`
	DiscountedAmount string `json:"discounted_amount"`
	Savings          string `json:"savings"`
}

// SubscriptionView is a subscription with every line rendered for display.
type SubscriptionView struct {
	ID                 string          `json:"id"`
	PlanName           string          `json:"plan_name"`
	Status             string          `json:"status"`
	Currency           string          `json:"currency"`
	CurrentPeriodStart time.Time       `json:"current_period_start"`
	CurrentPeriodEnd   time.Time       `json:"current_period_end"`
	Lines              []ChargeSummary `json:"lines"`
}

// InvoiceView is an invoice row with formatted amounts.
type InvoiceView struct {
	ID         string     `json:"id"`
	Number     string     `json:"invoice_number"`
	Status     string     `json:"status"`
	AmountDue  string     `json:"amount_due"`
	AmountPaid string     `json:"amount_paid"`
	IssuedAt   time.Time  `json:"issued_at"`
	DueAt      *time.Time `json:"due_at,omitempty"`
}

// PaymentView is a payment row with a formatted amount.
type PaymentView struct {
	ID        string    `json:"id"`
	InvoiceID string    `json:"invoice_id"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Service renders billing data into portal views, reading through the
// Redis cache when one is configured.
type Service struct {
	Billing billing.Client
	Cache   *cache.Cache
	Log     zerolog.Logger
}

// Subscriptions returns the customer's subscriptions with every line item
// rendered: charge headline, tier ranges, override changes and discount.
func (s *Service) Subscriptions(ctx context.Context, customerID string) ([]SubscriptionView, error) {
	key := cache.KeySubscriptions(customerID)
	var views []SubscriptionView
	if s.cacheGet(ctx, "subscriptions", key, &views) {
		return views, nil
	}

	subs, err := s.Billing.Subscriptions(ctx, customerID)
	if err != nil {
		return nil, err
	}
	views = make([]SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, buildSubscriptionView(sub))
	}
	s.cacheSet(ctx, key, views)
	if s.Cache != nil {
		if err := s.Cache.TrackCustomer(ctx, customerID); err != nil {
			s.Log.Warn().Err(err).Str("customer_id", customerID).Msg("track customer failed")
		}
	}
	return views, nil
}

// Invoices returns the customer's invoice listing with formatted amounts.
func (s *Service) Invoices(ctx context.Context, customerID string) ([]InvoiceView, error) {
	key := cache.KeyInvoices(customerID)
	var views []InvoiceView
	if s.cacheGet(ctx, "invoices", key, &views) {
		return views, nil
	}

	invoices, err := s.Billing.Invoices(ctx, customerID)
	if err != nil {
		return nil, err
	}
	views = make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		symbol := pricing.CurrencySymbol(inv.Currency)
		views = append(views, InvoiceView{
			ID:         inv.ID,
			Number:     inv.Number,
			Status:     inv.Status,
			AmountDue:  symbol + pricing.FormatAmount(inv.AmountDue),
			AmountPaid: symbol + pricing.FormatAmount(inv.AmountPaid),
			IssuedAt:   inv.IssuedAt,
			DueAt:      inv.DueAt,
		})
	}
	s.cacheSet(ctx, key, views)
	return views, nil
}

// Payments returns the customer's payment history with formatted amounts.
func (s *Service) Payments(ctx context.Context, customerID string) ([]PaymentView, error) {
	key := cache.KeyPayments(customerID)
	var views []PaymentView
	if s.cacheGet(ctx, "payments", key, &views) {
		return views, nil
	}

	payments, err := s.Billing.Payments(ctx, customerID)
	if err != nil {
		return nil, err
	}
	views = make([]PaymentView, 0, len(payments))
	for _, p := range payments {
		symbol := pricing.CurrencySymbol(p.Currency)
		views = append(views, PaymentView{
			ID:        p.ID,
			InvoiceID: p.InvoiceID,
			Method:    p.Method,
			Status:    p.Status,
			Amount:    symbol + pricing.FormatAmount(p.Amount),
			CreatedAt: p.CreatedAt,
		})
	}
	s.cacheSet(ctx, key, views)
	return views, nil
}

// Refresh rebuilds the cached views for one customer. The worker calls this
// on a schedule so portal reads stay warm.
func (s *Service) Refresh(ctx context.Context, customerID string) error {
	if s.Cache != nil {
		if err := s.Cache.Delete(ctx,
			cache.KeySubscriptions(customerID),
			cache.KeyInvoices(customerID),
			cache.KeyPayments(customerID),
		); err != nil {
			return err
		}
	}
	if _, err := s.Subscriptions(ctx, customerID); err != nil {
		return err
	}
	if _, err := s.Invoices(ctx, customerID); err != nil {
		return err
	}
	_, err := s.Payments(ctx, customerID)
	return err
}

func (s *Service) cacheGet(ctx context.Context, resource, key string, dst any) bool {
	if s.Cache == nil {
		return false
	}
	hit, err := s.Cache.GetJSON(ctx, key, dst)
	if err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("portal cache read failed")
		return false
	}
	if obs.PortalCacheTotal != nil {
		result := "miss"
		if hit {
			result = "hit"
		}
		obs.PortalCacheTotal.WithLabelValues(resource, result).Inc()
	}
	return hit
}

func (s *Service) cacheSet(ctx context.Context, key string, v any) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.SetJSON(ctx, key, v); err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("portal cache write failed")
	}
}

func buildSubscriptionView(sub billing.Subscription) SubscriptionView {
	lines := make([]ChargeSummary, 0, len(sub.LineItems))
	for _, li := range sub.LineItems {
		lines = append(lines, BuildChargeSummary(li))
	}
	return SubscriptionView{
		ID:                 sub.ID,
		PlanName:           sub.PlanName,
		Status:             sub.Status,
		Currency:           sub.Currency,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
		Lines:              lines,
	}
}

// BuildChargeSummary renders one line item. Override fields that are present
// replace the base price's values before formatting; absent fields inherit.
// A coupon discount is only shown when the amount itself is not overridden.
func BuildChargeSummary(li billing.LineItem) ChargeSummary {
	base := li.Price
	display := pricing.ResolveDisplay(base, li.PricingUnit)

	overridden := li.Override != nil && !li.Override.Empty()

	model := base.BillingModel
	tierMode := base.TierMode
	amount := display.Amount
	tiers := display.Tiers
	tq := base.TransformQuantity
	amountOverridden := false
	if overridden {
		o := li.Override
		if o.BillingModel != "" {
			model = o.BillingModel
		}
		if o.TierMode != "" {
			tierMode = o.TierMode
		}
		if o.Amount != "" {
			amount = o.Amount
			amountOverridden = true
		}
		if len(o.Tiers) > 0 {
			tiers = o.Tiers
		}
		if o.TransformQuantity != nil {
			tq = o.TransformQuantity
		}
	}

	charge := pricing.FormatCharge(amount, display.Symbol, model, tq, tiers)
	if !knownBillingModel(model) && base.DisplayAmount != "" {
		charge = base.DisplayAmount
	}

	summary := ChargeSummary{
		LineItemID:  li.ID,
		DisplayName: li.DisplayName,
		Quantity:    li.Quantity,
		Charge:      charge,
		Overridden:  overridden,
	}

	if (model == pricing.BillingModelTiered || model == pricing.BillingModelSlabTiered) && len(tiers) > 0 {
		summary.TierMode = pricing.TierModeLabel(tierMode)
		summary.TierRanges = pricing.FormatTierRanges(display.Symbol, tiers)
	}

	if overridden {
		summary.Changes = pricing.DiffOverride(base, *li.Override, li.PricingUnit)
	}

	if li.Coupon != nil && !amountOverridden {
		if result := pricing.ApplyCoupon(base, li.Coupon); result != nil {
			summary.Discount = &Discount{
				CouponName:       li.Coupon.Name,
				OriginalAmount:   display.Symbol + pricing.FormatDecimal(result.OriginalAmount),
				DiscountedAmount: display.Symbol + pricing.FormatDecimal(result.DiscountedAmount),
				Savings:          display.Symbol + pricing.FormatDecimal(result.Savings),
			}
		}
	}

	return summary
}

func knownBillingModel(m pricing.BillingModel) bool {
	switch m {
	case pricing.BillingModelFlatFee, pricing.BillingModelPackage,
		pricing.BillingModelTiered, pricing.BillingModelSlabTiered:
		return true
	}
	return false
}
