package repositories

import (
	"context"

	"qr_menu_backend/internal/models"
)

// CatalogSource loads the full catalog for the in-memory store.
type CatalogSource struct {
	items     ItemRepository
	sets      SetRepository
	discounts DiscountRepository
}

func NewCatalogSource(items ItemRepository, sets SetRepository, discounts DiscountRepository) *CatalogSource {
	return &CatalogSource{items: items, sets: sets, discounts: discounts}
}

func (s *CatalogSource) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.items.ListAll(ctx)
}

func (s *CatalogSource) ListSets(ctx context.Context) ([]models.Set, error) {
	return s.sets.ListAll(ctx)
}

func (s *CatalogSource) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	return s.discounts.ListAll(ctx)
}
