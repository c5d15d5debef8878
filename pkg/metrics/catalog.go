package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics records catalog refreshes and public menu cache usage.
type CatalogMetrics struct {
	refreshDuration prometheus.Histogram
	refreshes       *prometheus.CounterVec
	lastRefresh     prometheus.Gauge
	entries         *prometheus.GaugeVec
	menuCache       *prometheus.CounterVec
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	refreshDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_refresh_duration_seconds",
		Help:    "Duration of catalog refreshes from the database in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_refresh_total",
		Help: "Catalog refresh attempts by result.",
	}, []string{"result"})
	lastRefresh := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_last_refresh_timestamp_seconds",
		Help: "Unix time of the last successful catalog refresh.",
	})
	entries := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "catalog_entries",
		Help: "Entries held in the catalog store by kind.",
	}, []string{"kind"})
	menuCache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "menu_cache_requests_total",
		Help: "Public menu cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(refreshDuration, refreshes, lastRefresh, entries, menuCache)
	return &CatalogMetrics{
		refreshDuration: refreshDuration,
		refreshes:       refreshes,
		lastRefresh:     lastRefresh,
		entries:         entries,
		menuCache:       menuCache,
	}
}

// ObserveRefresh records one refresh attempt.
func (c *CatalogMetrics) ObserveRefresh(duration time.Duration, err error) {
	if c == nil || c.refreshes == nil {
		return
	}
	c.refreshDuration.Observe(duration.Seconds())
	if err != nil {
		c.refreshes.WithLabelValues("failure").Inc()
		return
	}
	c.refreshes.WithLabelValues("success").Inc()
	c.lastRefresh.Set(float64(time.Now().Unix()))
}

// SetEntries publishes the current store size.
func (c *CatalogMetrics) SetEntries(items, sets, discounts int) {
	if c == nil || c.entries == nil {
		return
	}
	c.entries.WithLabelValues("item").Set(float64(items))
	c.entries.WithLabelValues("set").Set(float64(sets))
	c.entries.WithLabelValues("discount").Set(float64(discounts))
}

// IncMenuCache counts a cache lookup; result is hit, miss or error.
func (c *CatalogMetrics) IncMenuCache(result string) {
	if c == nil || c.menuCache == nil {
		return
	}
	if result == "" {
		result = "unknown"
	}
	c.menuCache.WithLabelValues(result).Inc()
}
