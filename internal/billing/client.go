package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/meterline/portal-api/internal/common"
	"github.com/meterline/portal-api/internal/pricing"
	"github.com/meterline/portal-api/internal/resilience"
)

// FetchTotal counts upstream billing API fetches by resource and outcome.
var FetchTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "billing_upstream_fetch_total",
	Help: "Count of upstream billing API fetches by resource and result.",
}, []string{"resource", "result"})

func init() {
	prometheus.MustRegister(FetchTotal)
}

// Client is the behaviour the portal needs from the billing API.
type Client interface {
	Subscriptions(ctx context.Context, customerID string) ([]Subscription, error)
	Invoices(ctx context.Context, customerID string) ([]Invoice, error)
	Payments(ctx context.Context, customerID string) ([]Payment, error)
	Usage(ctx context.Context, customerID string, from, to time.Time) ([]UsageRecord, error)
	QuickBooksStatus(ctx context.Context, customerID string) (QuickBooksStatus, error)
	QuickBooksConnectURL(ctx context.Context, customerID, redirectURI, state string) (string, error)
	QuickBooksDisconnect(ctx context.Context, customerID string) error
	Ping(ctx context.Context) error
}

// HTTPConfig tunes the HTTP billing client.
type HTTPConfig struct {
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	Jitter      float64
	Breaker     *resilience.Breaker
	Logger      zerolog.Logger
}

// HTTPClient talks to the remote billing API over REST. Outbound requests
// go through the resilience wrapper and an otelhttp-instrumented transport.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    resilience.HTTPClient
	logger  zerolog.Logger
}

// NewHTTPClient constructs the production billing client.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = resilience.NewBreaker(10, 0.5, 30*time.Second).WithTarget("billing-api")
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		logger:  cfg.Logger,
		http: resilience.HTTPClient{
			Client: &http.Client{
				Transport: otelhttp.NewTransport(http.DefaultTransport),
				Timeout:   timeout,
			},
			Breaker:     breaker,
			BaseBackoff: cfg.BaseBackoff,
			MaxAttempts: cfg.MaxAttempts,
			Jitter:      cfg.Jitter,
			Timeout:     timeout,
		},
	}
}

// envelope is the upstream response wrapper shared by list endpoints.
type envelope[T any] struct {
	Data T `json:"data"`
}

// Subscriptions fetches a customer's subscriptions with expanded prices,
// overrides, coupons and pricing units. Tier lists are validated at
// ingestion; malformed data is logged and passed through unchanged so the
// formatters can still degrade gracefully.
func (c *HTTPClient) Subscriptions(ctx context.Context, customerID string) ([]Subscription, error) {
	var subs []Subscription
	path := fmt.Sprintf("/v1/customers/%s/subscriptions?expand=price_override,coupon,pricing_unit", url.PathEscape(customerID))
	if err := c.getJSON(ctx, "subscriptions", path, &subs); err != nil {
		return nil, err
	}
	for _, sub := range subs {
		for _, item := range sub.LineItems {
			c.checkTiers(sub.ID, item)
		}
	}
	return subs, nil
}

// Invoices fetches the customer's invoice listing.
func (c *HTTPClient) Invoices(ctx context.Context, customerID string) ([]Invoice, error) {
	var invoices []Invoice
	path := fmt.Sprintf("/v1/customers/%s/invoices", url.PathEscape(customerID))
	if err := c.getJSON(ctx, "invoices", path, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// Payments fetches the customer's payment history.
func (c *HTTPClient) Payments(ctx context.Context, customerID string) ([]Payment, error) {
	var payments []Payment
	path := fmt.Sprintf("/v1/customers/%s/payments", url.PathEscape(customerID))
	if err := c.getJSON(ctx, "payments", path, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// Usage fetches aggregated usage rows for the window [from, to).
func (c *HTTPClient) Usage(ctx context.Context, customerID string, from, to time.Time) ([]UsageRecord, error) {
	var rows []UsageRecord
	query := url.Values{
		"from": {from.UTC().Format(time.RFC3339)},
		"to":   {to.UTC().Format(time.RFC3339)},
	}
	path := fmt.Sprintf("/v1/customers/%s/usage?%s", url.PathEscape(customerID), query.Encode())
	if err := c.getJSON(ctx, "usage", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// QuickBooksStatus reads the customer's accounting connection state.
func (c *HTTPClient) QuickBooksStatus(ctx context.Context, customerID string) (QuickBooksStatus, error) {
	var status QuickBooksStatus
	path := fmt.Sprintf("/v1/customers/%s/integrations/quickbooks", url.PathEscape(customerID))
	if err := c.getJSON(ctx, "quickbooks_status", path, &status); err != nil {
		return QuickBooksStatus{}, err
	}
	return status, nil
}

// QuickBooksConnectURL asks the upstream for an authorization URL carrying
// the portal's redirect URI and anti-forgery state.
func (c *HTTPClient) QuickBooksConnectURL(ctx context.Context, customerID, redirectURI, state string) (string, error) {
	payload := map[string]string{"redirect_uri": redirectURI, "state": state}
	var out struct {
		URL string `json:"url"`
	}
	path := fmt.Sprintf("/v1/customers/%s/integrations/quickbooks/connect", url.PathEscape(customerID))
	if err := c.doJSON(ctx, http.MethodPost, "quickbooks_connect", path, payload, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// QuickBooksDisconnect revokes the customer's accounting connection upstream.
func (c *HTTPClient) QuickBooksDisconnect(ctx context.Context, customerID string) error {
	path := fmt.Sprintf("/v1/customers/%s/integrations/quickbooks", url.PathEscape(customerID))
	return c.doJSON(ctx, http.MethodDelete, "quickbooks_disconnect", path, nil, nil)
}

// Ping probes upstream availability for readiness checks.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "ping", "/v1/health", nil, nil)
}

func (c *HTTPClient) getJSON(ctx context.Context, resource, path string, dst any) error {
	return c.doJSON(ctx, http.MethodGet, resource, path, nil, dst)
}

func (c *HTTPClient) checkTiers(subscriptionID string, item LineItem) {
	tiers := item.Price.Tiers
	if item.Override != nil && len(item.Override.Tiers) > 0 {
		tiers = item.Override.Tiers
	}
	if err := pricing.ValidateTiers(tiers); err != nil {
		c.logger.Warn().
			Err(err).
			Str("subscription_id", subscriptionID).
			Str("line_item_id", item.ID).
			Msg("malformed tier data from billing api")
	}
	if len(item.Price.PriceUnitTiers) > 0 {
		if err := pricing.ValidateTiers(item.Price.PriceUnitTiers); err != nil {
			c.logger.Warn().
				Err(err).
				Str("subscription_id", subscriptionID).
				Str("line_item_id", item.ID).
				Msg("malformed price unit tier data from billing api")
		}
	}
}

func (c *HTTPClient) doJSON(ctx context.Context, method, resource, path string, payload, dst any) error {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		FetchTotal.WithLabelValues(resource, "error").Inc()
		wrapped := fmt.Errorf("billing: %s %s: %w", method, path, err)
		switch {
		case errors.Is(err, resilience.ErrOpenCircuit):
			return common.NewAppError(common.CodeUpstreamError, "billing API temporarily unavailable", http.StatusServiceUnavailable, wrapped)
		case errors.Is(err, context.DeadlineExceeded):
			return common.NewAppError(common.CodeUpstreamTimeout, "billing API timed out", http.StatusGatewayTimeout, wrapped)
		default:
			return common.NewAppError(common.CodeUpstreamError, "billing API request failed", http.StatusBadGateway, wrapped)
		}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		FetchTotal.WithLabelValues(resource, "error").Inc()
		wrapped := fmt.Errorf("billing: %s %s: unexpected status %s", method, path, resp.Status)
		if resp.StatusCode == http.StatusNotFound {
			return common.NewAppError(common.CodeNotFound, "billing resource not found", http.StatusNotFound, wrapped)
		}
		return common.NewAppError(common.CodeUpstreamError, "billing API request failed", http.StatusBadGateway, wrapped)
	}
	FetchTotal.WithLabelValues(resource, "ok").Inc()
	if dst == nil {
		return nil
	}
	var env envelope[json.RawMessage]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("billing: decode %s response: %w", resource, err)
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		return fmt.Errorf("billing: decode %s payload: %w", resource, err)
	}
	return nil
}
