package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PreviewTotal counts pricing preview requests by outcome.
	PreviewTotal *prometheus.CounterVec
	// PortalCacheTotal counts portal view cache lookups by resource and result.
	PortalCacheTotal *prometheus.CounterVec
	// QuickBooksRequestsTotal counts QuickBooks integration calls by operation outcome.
	QuickBooksRequestsTotal *prometheus.CounterVec
	// RefreshTasksTotal tracks background refresh task outcomes.
	RefreshTasksTotal *prometheus.CounterVec
	// RefreshTaskLatency records refresh task duration in milliseconds.
	RefreshTaskLatency *prometheus.HistogramVec
	// RefreshDLQ counts refresh tasks moved to the dead-letter queue.
	RefreshDLQ prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PreviewTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_preview_total",
			Help:      "Count of pricing preview requests by outcome.",
		}, []string{"result"})
		PortalCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "portal_cache_total",
			Help:      "Portal view cache lookups by resource and result.",
		}, []string{"resource", "result"})
		QuickBooksRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quickbooks_requests_total",
			Help:      "QuickBooks integration calls by operation and outcome.",
		}, []string{"operation", "result"})
		RefreshTasksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_tasks_total",
			Help:      "Background refresh task outcomes.",
		}, []string{"result"})
		RefreshTaskLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_task_duration_ms",
			Help:      "Latency for background refresh tasks in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"result"})
		RefreshDLQ = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_dlq_total",
			Help:      "Number of refresh tasks moved to the dead-letter queue.",
		})

		mustRegisterCollector(reg, PreviewTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PreviewTotal = v
			}
		})
		mustRegisterCollector(reg, PortalCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				PortalCacheTotal = v
			}
		})
		mustRegisterCollector(reg, QuickBooksRequestsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuickBooksRequestsTotal = v
			}
		})
		mustRegisterCollector(reg, RefreshTasksTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				RefreshTasksTotal = v
			}
		})
		mustRegisterCollector(reg, RefreshTaskLatency, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				RefreshTaskLatency = v
			}
		})
		mustRegisterCollector(reg, RefreshDLQ, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				RefreshDLQ = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
