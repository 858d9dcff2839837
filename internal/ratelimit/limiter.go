package ratelimit

import (
	"context"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Limiter wraps a ulule/limiter Redis store behind the middleware contract.
// The store is created lazily on first use.
type Limiter struct {
	Client *redis.Client
	Prefix string

	once  sync.Once
	store limiter.Store
	err   error
}

func (l *Limiter) init() {
	l.once.Do(func() {
		prefix := l.Prefix
		if prefix == "" {
			prefix = "ratelimit:"
		}
		l.store, l.err = limiterredis.NewStoreWithOptions(l.Client, limiter.StoreOptions{Prefix: prefix})
	})
}

// Allow registers an event for the given key and reports whether it is within
// the limit, along with the remaining budget and window reset time.
func (l *Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	l.init()
	if l.err != nil {
		return false, 0, time.Time{}, l.err
	}
	rate := limiter.Rate{Period: window, Limit: int64(max)}
	res, err := limiter.New(l.store, rate).Get(ctx, key)
	if err != nil {
		return false, 0, time.Time{}, err
	}
	return !res.Reached, int(res.Remaining), time.Unix(res.Reset, 0), nil
}
