package models

import "time"

// DashboardSummary holds key counters for the admin dashboard.
type DashboardSummary struct {
	ItemsCount           int           `json:"items_count"`
	AvailableItemsCount  int           `json:"available_items_count"`
	SetsCount            int           `json:"sets_count"`
	AvailableSetsCount   int           `json:"available_sets_count"`
	DiscountsCount       int           `json:"discounts_count"`
	ActiveDiscountsCount int           `json:"active_discounts_count"`
	DiscountsActiveNow   int           `json:"discounts_active_now"` // Switched on and inside their window right now
	LatestQRCode         *QRCode       `json:"latest_qr_code,omitempty"`
	RecentItems          []Item        `json:"recent_items"`
	RecentSets           []ResolvedSet `json:"recent_sets"`
	GeneratedAt          time.Time     `json:"generated_at"`
}
