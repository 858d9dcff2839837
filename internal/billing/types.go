package billing

import (
	"time"

	"github.com/meterline/portal-api/internal/pricing"
)

// LineItem is one charge line of a subscription, carrying the base price
// plus the optional line-level override, coupon and pricing unit expansion.
type LineItem struct {
	ID          string                 `json:"id"`
	DisplayName string                 `json:"display_name"`
	Quantity    int64                  `json:"quantity"`
	Price       pricing.Price          `json:"price"`
	PricingUnit *pricing.PricingUnit   `json:"pricing_unit,omitempty"`
	Override    *pricing.PriceOverride `json:"price_override,omitempty"`
	Coupon      *pricing.Coupon        `json:"coupon,omitempty"`
}

// Subscription is a customer subscription as returned by the billing API.
type Subscription struct {
	ID                 string     `json:"id"`
	CustomerID         string     `json:"customer_id"`
	PlanName           string     `json:"plan_name"`
	Status             string     `json:"status"`
	Currency           string     `json:"currency"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	LineItems          []LineItem `json:"line_items"`
}

// Invoice summarises one invoice for the portal listing.
type Invoice struct {
	ID         string     `json:"id"`
	Number     string     `json:"invoice_number"`
	Status     string     `json:"status"`
	Currency   string     `json:"currency"`
	AmountDue  string     `json:"amount_due"`
	AmountPaid string     `json:"amount_paid"`
	IssuedAt   time.Time  `json:"issued_at"`
	DueAt      *time.Time `json:"due_at,omitempty"`
}

// Payment is a settled or pending payment against an invoice.
type Payment struct {
	ID        string    `json:"id"`
	InvoiceID string    `json:"invoice_id"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	Amount    string    `json:"amount"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// UsageRecord is one metered usage row, already aggregated per meter and
// window by the billing API.
type UsageRecord struct {
	MeterID     string    `json:"meter_id"`
	MeterName   string    `json:"meter_name"`
	WindowStart time.Time `json:"window_start"`
	Quantity    string    `json:"quantity"`
	Cost        string    `json:"cost"`
	Currency    string    `json:"currency"`
}

// QuickBooksStatus reports the state of a customer's accounting connection.
// Token exchange lives upstream; the portal only reads and relays state.
type QuickBooksStatus struct {
	Connected    bool       `json:"connected"`
	RealmID      string     `json:"realm_id,omitempty"`
	ConnectedAt  *time.Time `json:"connected_at,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}
