package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"qr_menu_backend/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPollerRequiresStore(t *testing.T) {
	_, err := NewPoller(PollerParams{})
	assert.Error(t, err)
}

func TestPollerRefreshOnceKeepsSnapshotOnFailure(t *testing.T) {
	src := seededSource()
	store := NewStore(src)
	p, err := NewPoller(PollerParams{Store: store, Metrics: metrics.NewCatalogMetrics(prometheus.NewRegistry())})
	require.NoError(t, err)

	require.NoError(t, p.RefreshOnce(context.Background()))

	src.setErr(errors.New("timeout"))
	assert.Error(t, p.RefreshOnce(context.Background()))

	items, _, _ := store.Counts()
	assert.Equal(t, 2, items)
}

func TestPollerRunRefreshesUntilCanceled(t *testing.T) {
	src := seededSource()
	store := NewStore(src)
	p, err := NewPoller(PollerParams{Store: store, Interval: 5 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	assert.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop after cancel")
	}
}
