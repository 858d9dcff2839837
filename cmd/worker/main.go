package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/meterline/portal-api/internal/billing"
	"github.com/meterline/portal-api/internal/cache"
	"github.com/meterline/portal-api/internal/config"
	"github.com/meterline/portal-api/internal/lock"
	"github.com/meterline/portal-api/internal/obs"
	"github.com/meterline/portal-api/internal/portal"
	"github.com/meterline/portal-api/internal/queue"
	"github.com/meterline/portal-api/internal/resilience"
)

const refreshTaskKind = "refresh"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics("portal", nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	billingClient := newBillingClient(cfg, logger)
	portalCache := cache.New(redisClient, cfg.CacheTTL)
	portalSvc := &portal.Service{Billing: billingClient, Cache: portalCache, Log: logger}

	enqueuer := queue.Enqueuer{
		R:           redisClient,
		Prefix:      "portal",
		DedupTTL:    cfg.RefreshInterval,
		MaxAttempts: cfg.RefreshMaxAttempts,
	}
	scheduler := refreshScheduler{
		Cache:    portalCache,
		Queue:    enqueuer,
		Locker:   lock.Locker{R: redisClient, RetryBackoff: 50 * time.Millisecond},
		Interval: cfg.RefreshInterval,
		Log:      logger,
	}
	go scheduler.run(ctx)

	refreshWorker := queue.Worker{
		R:                 redisClient,
		Prefix:            "portal",
		Kind:              refreshTaskKind,
		Concurrency:       4,
		VisibilityTimeout: 2 * time.Minute,
		SoftDeadline:      time.Minute,
		RetryBase:         5 * time.Second,
		RetryJitter:       0.2,
		Logger:            &logger,
		Handler: func(jobCtx context.Context, task queue.Task) error {
			return handleRefresh(jobCtx, portalSvc, task)
		},
	}

	logger.Info().Msg("worker starting")
	if err := refreshWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker stopped with error")
	} else {
		logger.Info().Msg("worker shutdown complete")
	}
}

func handleRefresh(ctx context.Context, svc *portal.Service, task queue.Task) error {
	customerID := string(task.Payload)
	start := time.Now()
	err := svc.Refresh(ctx, customerID)
	result := "ok"
	if err != nil {
		result = "error"
	}
	if obs.RefreshTasksTotal != nil {
		obs.RefreshTasksTotal.WithLabelValues(result).Inc()
	}
	if obs.RefreshTaskLatency != nil {
		obs.RefreshTaskLatency.WithLabelValues(result).Observe(float64(time.Since(start).Milliseconds()))
	}
	return err
}

// refreshScheduler enqueues one refresh task per recently seen customer on
// every tick. A Redis lock keeps concurrent workers from double scheduling.
type refreshScheduler struct {
	Cache    *cache.Cache
	Queue    queue.Enqueuer
	Locker   lock.Locker
	Interval time.Duration
	Log      zerolog.Logger
}

func (s refreshScheduler) run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := s.tick(ctx)
			if errors.Is(err, lock.ErrNotAcquired) || errors.Is(err, context.Canceled) {
				continue
			}
			if err != nil {
				s.Log.Error().Err(err).Msg("refresh schedule tick failed")
			}
		}
	}
}

func (s refreshScheduler) tick(ctx context.Context) error {
	return s.Locker.TryWithLock(ctx, "portal:refresh:schedule", s.Interval/2, func(lockCtx context.Context) error {
		customers, err := s.Cache.ActiveCustomers(lockCtx)
		if err != nil {
			return err
		}
		for _, customerID := range customers {
			task := queue.Task{
				Kind:           refreshTaskKind,
				Payload:        []byte(customerID),
				IdempotencyKey: customerID,
			}
			if err := s.Queue.Enqueue(lockCtx, task); err != nil {
				s.Log.Error().Err(err).Str("customer_id", customerID).Msg("enqueue refresh")
				continue
			}
		}
		if len(customers) > 0 {
			s.Log.Info().Int("customers", len(customers)).Msg("refresh tasks scheduled")
		}
		return nil
	})
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

func newBillingClient(cfg *config.Config, logger zerolog.Logger) billing.Client {
	if cfg.BillingMode == "mock" {
		logger.Warn().Msg("using mock billing client")
		return billing.MockClient{}
	}
	breaker := resilience.NewBreaker(cfg.BreakerMinRequests, cfg.BreakerFailureRatio, cfg.BreakerOpenFor).
		WithTarget("billing-api").
		WithLogger(logger)
	return billing.NewHTTPClient(billing.HTTPConfig{
		BaseURL:     cfg.BillingBaseURL,
		APIKey:      cfg.BillingAPIKey,
		Timeout:     cfg.BillingTimeout,
		MaxAttempts: cfg.UpstreamMaxAttempts,
		BaseBackoff: cfg.UpstreamBackoff,
		Jitter:      0.2,
		Breaker:     breaker,
		Logger:      logger,
	})
}
