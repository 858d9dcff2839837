package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/meterline/portal-api/internal/billing"
	"github.com/meterline/portal-api/internal/pricing"
)

// Source defines the upstream access required for usage analytics.
type Source interface {
	Usage(ctx context.Context, customerID string, from, to time.Time) ([]billing.UsageRecord, error)
}

// DailyUsage is one day of usage aggregated across all meters.
type DailyUsage struct {
	Day      time.Time `json:"day"`
	Quantity string    `json:"quantity"`
	Cost     string    `json:"cost"`
}

// MeterTotal aggregates one meter over the requested window.
type MeterTotal struct {
	MeterID   string `json:"meter_id"`
	MeterName string `json:"meter_name"`
	Quantity  string `json:"quantity"`
	Cost      string `json:"cost"`
}

// UsageSummary is the full analytics payload for one customer and window.
type UsageSummary struct {
	From      time.Time    `json:"from"`
	To        time.Time    `json:"to"`
	Currency  string       `json:"currency,omitempty"`
	TotalCost string       `json:"total_cost"`
	Daily     []DailyUsage `json:"daily"`
	TopMeters []MeterTotal `json:"top_meters"`
}

// Service provides cached usage analytics over the billing API.
type Service struct {
	Q            Source
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// Summary aggregates usage rows between from (inclusive) and to (exclusive)
// into a daily series plus per-meter totals sorted by cost.
func (s *Service) Summary(ctx context.Context, customerID string, from, to time.Time, topLimit int) (UsageSummary, error) {
	if s == nil || s.Q == nil {
		return UsageSummary{}, fmt.Errorf("analytics service not configured")
	}
	if topLimit <= 0 {
		topLimit = 5
	}
	rows, err := s.rows(ctx, customerID, from, to)
	if err != nil {
		return UsageSummary{}, err
	}
	return aggregate(rows, from, to, topLimit), nil
}

func (s *Service) rows(ctx context.Context, customerID string, from, to time.Time) ([]billing.UsageRecord, error) {
	key := cacheKey("an", "usage", customerID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if rows, ok := s.fromCache(ctx, key); ok {
		return rows, nil
	}
	rows, err := s.Q.Usage(ctx, customerID, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

func aggregate(rows []billing.UsageRecord, from, to time.Time, topLimit int) UsageSummary {
	type bucket struct {
		qty  decimal.Decimal
		cost decimal.Decimal
	}
	days := map[time.Time]*bucket{}
	meters := map[string]*MeterTotal{}
	meterSums := map[string]*bucket{}
	total := decimal.Zero
	currency := ""

	for _, row := range rows {
		if currency == "" {
			currency = row.Currency
		}
		qty := pricing.ParseAmount(row.Quantity)
		cost := pricing.ParseAmount(row.Cost)
		total = total.Add(cost)

		day := row.WindowStart.UTC().Truncate(24 * time.Hour)
		b, ok := days[day]
		if !ok {
			b = &bucket{}
			days[day] = b
		}
		b.qty = b.qty.Add(qty)
		b.cost = b.cost.Add(cost)

		if _, ok := meters[row.MeterID]; !ok {
			meters[row.MeterID] = &MeterTotal{MeterID: row.MeterID, MeterName: row.MeterName}
			meterSums[row.MeterID] = &bucket{}
		}
		ms := meterSums[row.MeterID]
		ms.qty = ms.qty.Add(qty)
		ms.cost = ms.cost.Add(cost)
	}

	daily := make([]DailyUsage, 0, len(days))
	for day, b := range days {
		daily = append(daily, DailyUsage{
			Day:      day,
			Quantity: pricing.FormatDecimal(b.qty),
			Cost:     pricing.FormatDecimal(b.cost),
		})
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Day.Before(daily[j].Day) })

	top := make([]MeterTotal, 0, len(meters))
	for id, mt := range meters {
		sums := meterSums[id]
		mt.Quantity = pricing.FormatDecimal(sums.qty)
		mt.Cost = pricing.FormatDecimal(sums.cost)
		top = append(top, *mt)
	}
	sort.Slice(top, func(i, j int) bool {
		ci := pricing.ParseAmount(top[i].Cost)
		cj := pricing.ParseAmount(top[j].Cost)
		if !ci.Equal(cj) {
			return ci.GreaterThan(cj)
		}
		return top[i].MeterID < top[j].MeterID
	})
	if len(top) > topLimit {
		top = top[:topLimit]
	}

	return UsageSummary{
		From:      from,
		To:        to,
		Currency:  currency,
		TotalCost: pricing.FormatDecimal(total),
		Daily:     daily,
		TopMeters: top,
	}
}

func (s *Service) fromCache(ctx context.Context, key string) ([]billing.UsageRecord, bool) {
	if s.R == nil || s.TTL <= 0 {
		return nil, false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var rows []billing.UsageRecord
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
