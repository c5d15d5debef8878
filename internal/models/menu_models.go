package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item represents a single dish or drink on the menu
type Item struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Category    *string         `json:"category,omitempty" db:"category"` // Free-form; items without one are shown as uncategorized
	ImageURL    *string         `json:"image_url,omitempty" db:"image_url"`
	IsAvailable bool            `json:"is_available" db:"is_available"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Set is an administrator-priced bundle of items.
// TotalPrice is set by hand and never derived from the member prices.
type Set struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description *string         `json:"description,omitempty" db:"description"`
	TotalPrice  decimal.Decimal `json:"total_price" db:"total_price"`
	ImageURL    *string         `json:"image_url,omitempty" db:"image_url"`
	IsAvailable bool            `json:"is_available" db:"is_available"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	Memberships []SetMembership `json:"-"` // Ordered by Position
}

// SetMembership links an item into a set with a quantity
type SetMembership struct {
	ID       string `json:"id" db:"id"`
	SetID    string `json:"set_id" db:"set_id"`
	ItemID   string `json:"menu_item_id" db:"menu_item_id"`
	Quantity int    `json:"quantity" db:"quantity"`
	Position int    `json:"position" db:"position"`
}

// SetContent is a membership resolved against the current items.
// Item is nil when the referenced item no longer exists.
type SetContent struct {
	ItemID   string `json:"menu_item_id"`
	Quantity int    `json:"quantity"`
	Item     *Item  `json:"item"`
}

// ResolvedSet is a set together with its resolved contents, in membership order.
type ResolvedSet struct {
	Set
	Contents []SetContent `json:"items"`
}

// CloneMemberships returns a copy of the membership slice so callers can't alias store state.
func (s Set) CloneMemberships() []SetMembership {
	if s.Memberships == nil {
		return nil
	}
	out := make([]SetMembership, len(s.Memberships))
	copy(out, s.Memberships)
	return out
}

// ItemFilters defines the available filters for querying items.
type ItemFilters struct {
	Category  *string `form:"category"`
	Available *bool   `form:"available"`
	Search    *string `form:"search"` // Case-insensitive substring match on name
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}

// SetFilters defines the available filters for querying sets.
type SetFilters struct {
	Available *bool   `form:"available"`
	Search    *string `form:"search"`
	Page      int     `form:"page"`
	PageSize  int     `form:"page_size"`
}
