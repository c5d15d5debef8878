// Package pricing computes effective prices of menu entries from time-windowed discounts.
// Everything here is pure and safe for concurrent use.
package pricing

import (
	"encoding/json"
	"errors"
	"fmt"

	"qr_menu_backend/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrTargetMismatch    = errors.New("discount target does not match priced entry")
	ErrMalformedDiscount = errors.New("discount percentage outside 0..100")
)

// TargetMismatchError is returned by Apply when a discount is applied to the wrong entry.
type TargetMismatchError struct {
	DiscountID string
	Discount   models.DiscountTarget
	Entry      models.DiscountTarget
}

func (e *TargetMismatchError) Error() string {
	return fmt.Sprintf("discount %s targets %s, not %s", e.DiscountID, e.Discount, e.Entry)
}

func (e *TargetMismatchError) Unwrap() error { return ErrTargetMismatch }

var hundred = decimal.NewFromInt(100)

// PriceResult is the outcome of pricing one entry.
// Percentage and DiscountID are nil when no discount applies.
type PriceResult struct {
	HasDiscount    bool
	OriginalPrice  decimal.Decimal
	EffectivePrice decimal.Decimal
	Percentage     *decimal.Decimal
	DiscountID     *string
}

// NoDiscount prices an entry at its base price.
func NoDiscount(base decimal.Decimal) PriceResult {
	return PriceResult{OriginalPrice: base, EffectivePrice: base}
}

// DiscountedPrice returns price reduced by pct percent, rounded to cents.
func DiscountedPrice(price, pct decimal.Decimal) decimal.Decimal {
	return price.Mul(hundred.Sub(pct)).Div(hundred).Round(2)
}

// Apply prices target with one specific discount at now.
// A discount that is switched off or outside its window yields the base price.
func Apply(d models.Discount, target models.DiscountTarget, base decimal.Decimal, now models.TimeOfDay) (PriceResult, error) {
	if d.Target != target {
		return NoDiscount(base), &TargetMismatchError{DiscountID: d.ID, Discount: d.Target, Entry: target}
	}
	if !models.ValidPercentage(d.Percentage) {
		return NoDiscount(base), fmt.Errorf("%w: discount %s has %s", ErrMalformedDiscount, d.ID, d.Percentage)
	}
	if !d.ActiveAt(now) {
		return NoDiscount(base), nil
	}

	pct := d.Percentage
	id := d.ID
	return PriceResult{
		HasDiscount:    true,
		OriginalPrice:  base,
		EffectivePrice: DiscountedPrice(base, pct),
		Percentage:     &pct,
		DiscountID:     &id,
	}, nil
}

// Resolve picks the first discount in collection order that is active at now and
// targets exactly this entry, and prices the entry with it.
// Malformed discounts are skipped, so Resolve never fails.
func Resolve(target models.DiscountTarget, base decimal.Decimal, now models.TimeOfDay, discounts []models.Discount) PriceResult {
	for _, d := range discounts {
		if d.Target != target || !d.ActiveAt(now) {
			continue
		}
		res, err := Apply(d, target, base, now)
		if err != nil {
			continue
		}
		return res
	}
	return NoDiscount(base)
}

type priceResultJSON struct {
	HasDiscount    bool         `json:"has_discount"`
	OriginalPrice  string       `json:"original_price"`
	EffectivePrice string       `json:"effective_price"`
	Percentage     *json.Number `json:"discount_percentage"`
	DiscountID     *string      `json:"discount_id"`
}

// MarshalJSON renders prices with exactly two decimals.
func (r PriceResult) MarshalJSON() ([]byte, error) {
	out := priceResultJSON{
		HasDiscount:    r.HasDiscount,
		OriginalPrice:  r.OriginalPrice.StringFixed(2),
		EffectivePrice: r.EffectivePrice.StringFixed(2),
		DiscountID:     r.DiscountID,
	}
	if r.Percentage != nil {
		n := json.Number(r.Percentage.String())
		out.Percentage = &n
	}
	return json.Marshal(out)
}
