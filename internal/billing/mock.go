package billing

import (
	"context"
	"time"

	"github.com/meterline/portal-api/internal/pricing"
)

// MockClient returns static billing data and is useful for development and
// tests without a live upstream.
type MockClient struct{}

var _ Client = MockClient{}

func mockPeriod() (time.Time, time.Time) {
	start := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Subscriptions returns one canned subscription with a flat, a package and a
// tiered line.
func (MockClient) Subscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	_ = ctx
	upTo := int64(1000)
	start, end := mockPeriod()
	return []Subscription{{
		ID:                 "sub_demo",
		CustomerID:         customerID,
		PlanName:           "Growth",
		Status:             "active",
		Currency:           "USD",
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		LineItems: []LineItem{
			{
				ID:          "li_base",
				DisplayName: "Platform fee",
				Quantity:    1,
				Price: pricing.Price{
					ID:           "price_base",
					Type:         pricing.PriceTypeFixed,
					BillingModel: pricing.BillingModelFlatFee,
					Amount:       "99",
					Currency:     "USD",
				},
			},
			{
				ID:          "li_msgs",
				DisplayName: "Messages",
				Quantity:    1,
				Price: pricing.Price{
					ID:                "price_msgs",
					Type:              pricing.PriceTypeUsage,
					BillingModel:      pricing.BillingModelPackage,
					Amount:            "10",
					Currency:          "USD",
					TransformQuantity: &pricing.TransformQuantity{DivideBy: 1000},
				},
			},
			{
				ID:          "li_compute",
				DisplayName: "Compute hours",
				Quantity:    1,
				Price: pricing.Price{
					ID:           "price_compute",
					Type:         pricing.PriceTypeUsage,
					BillingModel: pricing.BillingModelTiered,
					TierMode:     pricing.TierModeVolume,
					Currency:     "USD",
					Tiers: []pricing.Tier{
						{UpTo: &upTo, UnitAmount: "0.25"},
						{UpTo: nil, UnitAmount: "0.10"},
					},
				},
			},
		},
	}}, nil
}

// Invoices returns a short canned invoice history.
func (MockClient) Invoices(ctx context.Context, customerID string) ([]Invoice, error) {
	_, _ = ctx, customerID
	start, _ := mockPeriod()
	due := start.AddDate(0, 0, 14)
	return []Invoice{
		{ID: "inv_1", Number: "INV-2026-0042", Status: "paid", Currency: "USD", AmountDue: "342.50", AmountPaid: "342.50", IssuedAt: start.AddDate(0, -1, 0)},
		{ID: "inv_2", Number: "INV-2026-0057", Status: "open", Currency: "USD", AmountDue: "289.90", AmountPaid: "0", IssuedAt: start, DueAt: &due},
	}, nil
}

// Payments returns canned payments matching the mock invoices.
func (MockClient) Payments(ctx context.Context, customerID string) ([]Payment, error) {
	_, _ = ctx, customerID
	start, _ := mockPeriod()
	return []Payment{
		{ID: "pay_1", InvoiceID: "inv_1", Method: "card", Status: "succeeded", Amount: "342.50", Currency: "USD", CreatedAt: start.AddDate(0, -1, 2)},
	}, nil
}

// Usage returns a deterministic daily series between the bounds.
func (MockClient) Usage(ctx context.Context, customerID string, from, to time.Time) ([]UsageRecord, error) {
	_, _ = ctx, customerID
	var rows []UsageRecord
	for day := from.Truncate(24 * time.Hour); day.Before(to); day = day.AddDate(0, 0, 1) {
		rows = append(rows, UsageRecord{
			MeterID:     "meter_compute",
			MeterName:   "Compute hours",
			WindowStart: day,
			Quantity:    "12",
			Cost:        "3",
			Currency:    "USD",
		})
	}
	return rows, nil
}

// QuickBooksStatus reports a disconnected integration.
func (MockClient) QuickBooksStatus(ctx context.Context, customerID string) (QuickBooksStatus, error) {
	_, _ = ctx, customerID
	return QuickBooksStatus{Connected: false, Reason: "not_connected"}, nil
}

// QuickBooksConnectURL returns a static authorization URL embedding the state.
func (MockClient) QuickBooksConnectURL(ctx context.Context, customerID, redirectURI, state string) (string, error) {
	_, _, _ = ctx, customerID, redirectURI
	return "https://appcenter.intuit.com/connect/oauth2?state=" + state, nil
}

// QuickBooksDisconnect is a no-op.
func (MockClient) QuickBooksDisconnect(ctx context.Context, customerID string) error {
	_, _ = ctx, customerID
	return nil
}

// Ping always succeeds.
func (MockClient) Ping(ctx context.Context) error {
	_ = ctx
	return nil
}
