package pricing

import (
	"qr_menu_backend/internal/models"
)

// PricedEntry is an item or set together with its price at a point in time.
type PricedEntry struct {
	Kind        models.TargetKind `json:"type"`
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	Category    *string           `json:"category,omitempty"`
	ImageURL    *string           `json:"image_url,omitempty"`
	IsAvailable bool              `json:"is_available"`
	Pricing     PriceResult       `json:"pricing"`
	Contents    []PricedContent   `json:"contents,omitempty"` // Sets only
}

// PricedContent describes one line of a priced set.
type PricedContent struct {
	ItemID     string `json:"menu_item_id"`
	Name       string `json:"name,omitempty"`
	Quantity   int    `json:"quantity"`
	Unresolved bool   `json:"unresolved,omitempty"` // The item was deleted after the set was saved
}

// PricedCatalog is the priced view of the whole catalog at one time of day.
type PricedCatalog struct {
	At    models.TimeOfDay `json:"at"`
	Items []PricedEntry    `json:"items"`
	Sets  []PricedEntry    `json:"sets"`
}

// PriceItem prices a single item.
func PriceItem(item models.Item, discounts []models.Discount, now models.TimeOfDay) PricedEntry {
	return PricedEntry{
		Kind:        models.TargetItem,
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		Category:    item.Category,
		ImageURL:    item.ImageURL,
		IsAvailable: item.IsAvailable,
		Pricing:     Resolve(models.ItemTarget(item.ID), item.Price, now, discounts),
	}
}

// PriceSet prices a single set at its administrator-set total price.
func PriceSet(set models.ResolvedSet, discounts []models.Discount, now models.TimeOfDay) PricedEntry {
	contents := make([]PricedContent, 0, len(set.Contents))
	for _, c := range set.Contents {
		pc := PricedContent{ItemID: c.ItemID, Quantity: c.Quantity}
		if c.Item != nil {
			pc.Name = c.Item.Name
		} else {
			pc.Unresolved = true
		}
		contents = append(contents, pc)
	}
	return PricedEntry{
		Kind:        models.TargetSet,
		ID:          set.ID,
		Name:        set.Name,
		Description: set.Description,
		ImageURL:    set.ImageURL,
		IsAvailable: set.IsAvailable,
		Pricing:     Resolve(models.SetTarget(set.ID), set.TotalPrice, now, discounts),
		Contents:    contents,
	}
}

// PriceItems prices items, preserving input order.
func PriceItems(items []models.Item, discounts []models.Discount, now models.TimeOfDay) []PricedEntry {
	out := make([]PricedEntry, 0, len(items))
	for _, item := range items {
		out = append(out, PriceItem(item, discounts, now))
	}
	return out
}

// PriceSets prices sets, preserving input order.
func PriceSets(sets []models.ResolvedSet, discounts []models.Discount, now models.TimeOfDay) []PricedEntry {
	out := make([]PricedEntry, 0, len(sets))
	for _, set := range sets {
		out = append(out, PriceSet(set, discounts, now))
	}
	return out
}

// PriceCatalog prices every item and set at now.
func PriceCatalog(items []models.Item, sets []models.ResolvedSet, discounts []models.Discount, now models.TimeOfDay) PricedCatalog {
	return PricedCatalog{
		At:    now,
		Items: PriceItems(items, discounts, now),
		Sets:  PriceSets(sets, discounts, now),
	}
}
