package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"qr_menu_backend/internal/catalog"
	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/repositories"
	"qr_menu_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Items ---
var (
	ErrItemNotFound = errors.New("menu item not found")
	ErrInvalidPrice = fmt.Errorf("%w: price must not be negative", models.ErrValidation)
)

// --- Item DTOs ---
type CreateItemRequest struct {
	Name        string           `json:"name" binding:"required,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"required"`
	Category    *string          `json:"category" binding:"omitempty,max=100"`
	ImageURL    *string          `json:"image_url"`
	IsAvailable *bool            `json:"is_available"` // Defaults to true
}

type UpdateItemRequest struct {
	Name        *string          `json:"name" binding:"omitempty,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category" binding:"omitempty,max=100"`
	ImageURL    *string          `json:"image_url"`
	IsAvailable *bool            `json:"is_available"`
}

// --- ItemService Interface ---
type ItemService interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*models.Item, error)
	GetItemByID(ctx context.Context, id string) (*models.Item, error)
	GetItems(ctx context.Context, filters models.ItemFilters) ([]models.Item, int, error)
	UpdateItem(ctx context.Context, id string, req UpdateItemRequest) (*models.Item, error)
	DeleteItem(ctx context.Context, id string) error
}

// --- itemService Implementation ---
type itemService struct {
	itemRepo repositories.ItemRepository
	tx       repositories.Transactor
	store    *catalog.Store
	cache    MenuCache
}

// NewItemService creates a new ItemService. Successful writes are mirrored into store
// and drop cached public menus; cache may be nil.
func NewItemService(itemRepo repositories.ItemRepository, tx repositories.Transactor, store *catalog.Store, cache MenuCache) ItemService {
	return &itemService{itemRepo: itemRepo, tx: tx, store: store, cache: cache}
}

func (s *itemService) CreateItem(ctx context.Context, req CreateItemRequest) (*models.Item, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: item name cannot be empty", models.ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, ErrInvalidPrice
	}

	item := &models.Item{
		Name:        name,
		Description: utils.TrimmedNullString(req.Description),
		Price:       *req.Price,
		Category:    utils.TrimmedNullString(req.Category),
		ImageURL:    utils.TrimmedNullString(req.ImageURL),
		IsAvailable: boolOr(req.IsAvailable, true),
	}
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.itemRepo.Create(ctx, exec, item)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create menu item: %w", err)
	}

	s.store.UpsertItem(*item)
	invalidateMenus(ctx, s.cache)
	utils.LogInfo("Menu item created", map[string]interface{}{"item_id": item.ID, "name": item.Name})
	return item, nil
}

func (s *itemService) GetItemByID(ctx context.Context, id string) (*models.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get menu item by ID: %w", err)
	}
	return item, nil
}

func (s *itemService) GetItems(ctx context.Context, filters models.ItemFilters) ([]models.Item, int, error) {
	filters.Page, filters.PageSize = normalizePage(filters.Page, filters.PageSize)
	items, total, err := s.itemRepo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, total, nil
}

func (s *itemService) UpdateItem(ctx context.Context, id string, req UpdateItemRequest) (*models.Item, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	item, err := s.GetItemByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: item name cannot be empty if provided", models.ErrValidation)
		}
		item.Name = name
	}
	if req.Description != nil {
		item.Description = utils.TrimmedNullString(req.Description)
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, ErrInvalidPrice
		}
		item.Price = *req.Price
	}
	if req.Category != nil {
		item.Category = utils.TrimmedNullString(req.Category)
	}
	if req.ImageURL != nil {
		item.ImageURL = utils.TrimmedNullString(req.ImageURL)
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.itemRepo.Update(ctx, exec, item)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update menu item: %w", err)
	}

	s.store.UpsertItem(*item)
	invalidateMenus(ctx, s.cache)
	return item, nil
}

// DeleteItem removes the item. Its discounts go with it; sets that contain it keep an unresolved line.
func (s *itemService) DeleteItem(ctx context.Context, id string) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.itemRepo.Delete(ctx, exec, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to delete menu item: %w", err)
	}

	s.store.RemoveItem(id)
	invalidateMenus(ctx, s.cache)
	utils.LogInfo("Menu item deleted", map[string]interface{}{"item_id": id})
	return nil
}
