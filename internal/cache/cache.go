package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps Redis helpers for JSON payloads fetched from the billing API.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New constructs a cache helper. A nil client or non-positive TTL disables
// caching; every method then degrades to a miss.
func New(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the
// key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || c.ttl <= 0 || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || c.ttl <= 0 || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Delete removes cached entries, ignoring missing keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// activeCustomersKey holds the set of customers seen recently. The refresh
// worker re-warms views for exactly this set.
const activeCustomersKey = "portal:customers:active"

// TrackCustomer records that a customer's views were served, so background
// refresh keeps them warm. The set expires when traffic stops entirely.
func (c *Cache) TrackCustomer(ctx context.Context, customerID string) error {
	if c == nil || c.client == nil || customerID == "" {
		return nil
	}
	if err := c.client.SAdd(ctx, activeCustomersKey, customerID).Err(); err != nil {
		return err
	}
	return c.client.Expire(ctx, activeCustomersKey, 48*time.Hour).Err()
}

// ActiveCustomers returns the customers eligible for background refresh.
func (c *Cache) ActiveCustomers(ctx context.Context) ([]string, error) {
	if c == nil || c.client == nil {
		return nil, nil
	}
	return c.client.SMembers(ctx, activeCustomersKey).Result()
}

// Key joins cache key parts with the conventional separator.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// KeySubscriptions returns the cache key for a customer's subscription view.
func KeySubscriptions(customerID string) string {
	return Key("portal", "subs", customerID)
}

// KeyInvoices returns the cache key for a customer's invoice listing.
func KeyInvoices(customerID string) string {
	return Key("portal", "invoices", customerID)
}

// KeyPayments returns the cache key for a customer's payment listing.
func KeyPayments(customerID string) string {
	return Key("portal", "payments", customerID)
}

// KeyUsage returns the cache key for an aggregated usage window.
func KeyUsage(customerID string, from, to time.Time) string {
	return Key("portal", "usage", customerID, from.Format("2006-01-02"), to.Format("2006-01-02"))
}
