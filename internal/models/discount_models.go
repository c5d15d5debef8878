package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TargetKind defines what a discount applies to
type TargetKind string

const (
	TargetItem TargetKind = "item"
	TargetSet  TargetKind = "set"
)

// IsValidTargetKind checks if the provided string is a valid TargetKind.
func IsValidTargetKind(kind string) bool {
	switch TargetKind(kind) {
	case TargetItem, TargetSet:
		return true
	default:
		return false
	}
}

// DiscountTarget names exactly one item or one set.
type DiscountTarget struct {
	Kind TargetKind `json:"type"`
	ID   string     `json:"id"`
}

func ItemTarget(id string) DiscountTarget { return DiscountTarget{Kind: TargetItem, ID: id} }
func SetTarget(id string) DiscountTarget  { return DiscountTarget{Kind: TargetSet, ID: id} }

// NewDiscountTarget converts the two nullable storage/API fields into a target.
// Blank strings count as unset. Exactly one must be present.
func NewDiscountTarget(itemID, setID *string) (DiscountTarget, error) {
	hasItem := itemID != nil && strings.TrimSpace(*itemID) != ""
	hasSet := setID != nil && strings.TrimSpace(*setID) != ""
	switch {
	case hasItem && !hasSet:
		return ItemTarget(strings.TrimSpace(*itemID)), nil
	case hasSet && !hasItem:
		return SetTarget(strings.TrimSpace(*setID)), nil
	default:
		return DiscountTarget{}, ErrInvalidDiscountTarget
	}
}

// Columns returns the target as the (menu_item_id, set_id) pair, one of them nil.
func (t DiscountTarget) Columns() (itemID, setID *string) {
	id := t.ID
	switch t.Kind {
	case TargetItem:
		return &id, nil
	case TargetSet:
		return nil, &id
	default:
		return nil, nil
	}
}

func (t DiscountTarget) String() string {
	return string(t.Kind) + ":" + t.ID
}

// Discount is a percentage reduction on one item or set, active daily between StartTime and EndTime.
type Discount struct {
	ID         string          `json:"id" db:"id"`
	Target     DiscountTarget  `json:"target"`
	Percentage decimal.Decimal `json:"discount_percentage" db:"discount_percentage"`
	StartTime  TimeOfDay       `json:"start_time" db:"start_time"`
	EndTime    TimeOfDay       `json:"end_time" db:"end_time"`
	IsActive   bool            `json:"is_active" db:"is_active"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

var (
	minPercentage = decimal.Zero
	maxPercentage = decimal.NewFromInt(100)
)

// ValidPercentage reports whether the percentage is within 0..100 inclusive.
func ValidPercentage(p decimal.Decimal) bool {
	return p.GreaterThanOrEqual(minPercentage) && p.LessThanOrEqual(maxPercentage)
}

// ActiveAt reports whether the discount is switched on and its window contains now.
func (d Discount) ActiveAt(now TimeOfDay) bool {
	return d.IsActive && InWindow(now, d.StartTime, d.EndTime)
}

// WrapsMidnight reports a window that can never be active.
func (d Discount) WrapsMidnight() bool {
	return d.StartTime > d.EndTime
}

// MarshalJSON adds the flat menu_item_id / set_id fields clients already know.
func (d Discount) MarshalJSON() ([]byte, error) {
	type discountAlias Discount
	itemID, setID := d.Target.Columns()
	return json.Marshal(struct {
		discountAlias
		MenuItemID *string `json:"menu_item_id"`
		SetID      *string `json:"set_id"`
	}{discountAlias(d), itemID, setID})
}

// DiscountFilters defines the available filters for querying discounts.
type DiscountFilters struct {
	Active     *bool   `form:"active"`
	TargetType *string `form:"target_type"` // item or set
	Page       int     `form:"page"`
	PageSize   int     `form:"page_size"`
}
