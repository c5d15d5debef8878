package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qr_menu_backend/pkg/metrics"
	"qr_menu_backend/pkg/utils"
)

const defaultPollInterval = 60 * time.Second

// PollerParams configure the refresh poller.
type PollerParams struct {
	Store    *Store
	Metrics  *metrics.CatalogMetrics
	Interval time.Duration
}

// Poller keeps the Store current by reloading it on a fixed cadence.
type Poller struct {
	store    *Store
	metrics  *metrics.CatalogMetrics
	interval time.Duration
}

// NewPoller builds a refresh poller.
func NewPoller(params PollerParams) (*Poller, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Poller{
		store:    params.Store,
		metrics:  params.Metrics,
		interval: interval,
	}, nil
}

// Run refreshes the store on every tick until the context is canceled.
// A failed refresh keeps serving the previous snapshot.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	utils.LogInfo("Catalog poller started", map[string]interface{}{"interval": p.interval.String()})
	for {
		select {
		case <-ctx.Done():
			utils.LogInfo("Catalog poller stopped")
			return ctx.Err()
		case <-ticker.C:
			_ = p.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce performs one refresh and records its outcome.
func (p *Poller) RefreshOnce(ctx context.Context) error {
	start := time.Now()
	err := p.store.Refresh(ctx)
	duration := time.Since(start)
	p.metrics.ObserveRefresh(duration, err)
	if errors.Is(err, ErrRefreshContended) {
		utils.LogWarn("Catalog refresh skipped; writes kept landing during the read", map[string]interface{}{
			"duration_ms": duration.Milliseconds(),
		})
		return err
	}
	if err != nil {
		utils.LogError(err, "Catalog refresh failed; serving previous snapshot", map[string]interface{}{
			"duration_ms": duration.Milliseconds(),
		})
		return err
	}
	items, sets, discounts := p.store.Counts()
	p.metrics.SetEntries(items, sets, discounts)
	utils.LogDebug("Catalog refreshed", map[string]interface{}{
		"items":       items,
		"sets":        sets,
		"discounts":   discounts,
		"duration_ms": duration.Milliseconds(),
	})
	return nil
}
