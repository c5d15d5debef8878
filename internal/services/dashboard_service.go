package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qr_menu_backend/internal/catalog"
	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/repositories"
)

const dashboardRecentLimit = 5

// DashboardService builds the admin overview from the catalog store.
type DashboardService interface {
	GetSummary(ctx context.Context) (*models.DashboardSummary, error)
}

type dashboardService struct {
	store    *catalog.Store
	qrRepo   repositories.QRCodeRepository
	location *time.Location
	now      func() time.Time
}

func NewDashboardService(store *catalog.Store, qrRepo repositories.QRCodeRepository, location *time.Location) DashboardService {
	if location == nil {
		location = time.Local
	}
	return &dashboardService{store: store, qrRepo: qrRepo, location: location, now: time.Now}
}

func (s *dashboardService) GetSummary(ctx context.Context) (*models.DashboardSummary, error) {
	snap := s.store.Snapshot()
	now := s.now()
	at := models.TimeOfDayFrom(now.In(s.location))

	summary := &models.DashboardSummary{
		ItemsCount:     len(snap.Items),
		SetsCount:      len(snap.Sets),
		DiscountsCount: len(snap.Discounts),
		RecentItems:    []models.Item{},
		RecentSets:     []models.ResolvedSet{},
		GeneratedAt:    now.UTC(),
	}
	for _, item := range snap.Items {
		if item.IsAvailable {
			summary.AvailableItemsCount++
		}
	}
	for _, set := range snap.Sets {
		if set.IsAvailable {
			summary.AvailableSetsCount++
		}
	}
	for _, d := range snap.Discounts {
		if d.IsActive {
			summary.ActiveDiscountsCount++
		}
		if d.ActiveAt(at) {
			summary.DiscountsActiveNow++
		}
	}

	// Store lists are newest first.
	summary.RecentItems = append(summary.RecentItems, snap.Items[:min(dashboardRecentLimit, len(snap.Items))]...)
	summary.RecentSets = append(summary.RecentSets, snap.Sets[:min(dashboardRecentLimit, len(snap.Sets))]...)

	latest, err := s.qrRepo.GetLatest(ctx)
	switch {
	case err == nil:
		summary.LatestQRCode = latest
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, fmt.Errorf("failed to load latest QR code: %w", err)
	}
	return summary, nil
}
