package services

import (
	"context"
	"errors"
	"fmt"

	"qr_menu_backend/internal/catalog"
	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/pricing"
	"qr_menu_backend/internal/repositories"
	"qr_menu_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

// --- Custom Service Errors for Discounts ---
var (
	ErrDiscountNotFound       = errors.New("discount not found")
	ErrDiscountTargetNotFound = errors.New("discount target not found")
	ErrInvalidPercentage      = fmt.Errorf("%w: discount_percentage must be between 0 and 100", models.ErrValidation)
	ErrInvalidTimeWindow      = fmt.Errorf("%w: start_time and end_time must be HH:MM", models.ErrValidation)
)

// --- Discount DTOs ---

// CreateDiscountRequest names its target with exactly one of MenuItemID and SetID.
type CreateDiscountRequest struct {
	MenuItemID         *string          `json:"menu_item_id"`
	SetID              *string          `json:"set_id"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage" binding:"required"`
	StartTime          string           `json:"start_time" binding:"required"`
	EndTime            string           `json:"end_time" binding:"required"`
	IsActive           *bool            `json:"is_active"` // Defaults to true
}

// UpdateDiscountRequest retargets the discount when either target field is present.
type UpdateDiscountRequest struct {
	MenuItemID         *string          `json:"menu_item_id"`
	SetID              *string          `json:"set_id"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	StartTime          *string          `json:"start_time"`
	EndTime            *string          `json:"end_time"`
	IsActive           *bool            `json:"is_active"`
}

// DiscountPreview shows what a discount does to its own target at a given time.
type DiscountPreview struct {
	Discount   models.Discount     `json:"discount"`
	TargetName string              `json:"target_name"`
	At         models.TimeOfDay    `json:"at"`
	Pricing    pricing.PriceResult `json:"pricing"`
}

// --- DiscountService Interface ---
type DiscountService interface {
	CreateDiscount(ctx context.Context, req CreateDiscountRequest) (*models.Discount, error)
	GetDiscountByID(ctx context.Context, id string) (*models.Discount, error)
	GetDiscounts(ctx context.Context, filters models.DiscountFilters) ([]models.Discount, int, error)
	UpdateDiscount(ctx context.Context, id string, req UpdateDiscountRequest) (*models.Discount, error)
	DeleteDiscount(ctx context.Context, id string) error
	PreviewDiscount(ctx context.Context, id string, at models.TimeOfDay) (*DiscountPreview, error)
}

// --- discountService Implementation ---
type discountService struct {
	discountRepo repositories.DiscountRepository
	tx           repositories.Transactor
	store        *catalog.Store
	cache        MenuCache
}

// NewDiscountService creates a new DiscountService. Targets are checked against store.
func NewDiscountService(discountRepo repositories.DiscountRepository, tx repositories.Transactor, store *catalog.Store, cache MenuCache) DiscountService {
	return &discountService{discountRepo: discountRepo, tx: tx, store: store, cache: cache}
}

func parseWindow(start, end string) (models.TimeOfDay, models.TimeOfDay, error) {
	from, err := models.ParseTimeOfDay(start)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: start_time %q", ErrInvalidTimeWindow, start)
	}
	to, err := models.ParseTimeOfDay(end)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: end_time %q", ErrInvalidTimeWindow, end)
	}
	return from, to, nil
}

// checkDiscount validates the fields that are not covered by binding tags.
func (s *discountService) checkDiscount(d *models.Discount) error {
	if !models.ValidPercentage(d.Percentage) {
		return ErrInvalidPercentage
	}
	if !s.store.HasTarget(d.Target) {
		return fmt.Errorf("%w: %s", ErrDiscountTargetNotFound, d.Target)
	}
	if d.WrapsMidnight() {
		utils.LogWarn("Discount window wraps midnight and will never be active", map[string]interface{}{
			"discount_id": d.ID,
			"start_time":  d.StartTime.String(),
			"end_time":    d.EndTime.String(),
		})
	}
	return nil
}

func (s *discountService) CreateDiscount(ctx context.Context, req CreateDiscountRequest) (*models.Discount, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	target, err := models.NewDiscountTarget(req.MenuItemID, req.SetID)
	if err != nil {
		return nil, err
	}
	start, end, err := parseWindow(req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	discount := &models.Discount{
		Target:     target,
		Percentage: *req.DiscountPercentage,
		StartTime:  start,
		EndTime:    end,
		IsActive:   boolOr(req.IsActive, true),
	}
	if err := s.checkDiscount(discount); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.discountRepo.Create(ctx, exec, discount)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrForeignKey) {
			return nil, fmt.Errorf("%w: %s", ErrDiscountTargetNotFound, target)
		}
		return nil, fmt.Errorf("failed to create discount: %w", err)
	}

	s.store.UpsertDiscount(*discount)
	invalidateMenus(ctx, s.cache)
	utils.LogInfo("Discount created", map[string]interface{}{"discount_id": discount.ID, "target": target.String()})
	return discount, nil
}

func (s *discountService) GetDiscountByID(ctx context.Context, id string) (*models.Discount, error) {
	discount, err := s.discountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDiscountNotFound
		}
		return nil, fmt.Errorf("failed to get discount by ID: %w", err)
	}
	return discount, nil
}

func (s *discountService) GetDiscounts(ctx context.Context, filters models.DiscountFilters) ([]models.Discount, int, error) {
	if filters.TargetType != nil && !models.IsValidTargetKind(*filters.TargetType) {
		return nil, 0, fmt.Errorf("%w: target_type must be item or set", models.ErrValidation)
	}
	filters.Page, filters.PageSize = normalizePage(filters.Page, filters.PageSize)
	discounts, total, err := s.discountRepo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list discounts: %w", err)
	}
	return discounts, total, nil
}

func (s *discountService) UpdateDiscount(ctx context.Context, id string, req UpdateDiscountRequest) (*models.Discount, error) {
	discount, err := s.GetDiscountByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.MenuItemID != nil || req.SetID != nil {
		target, err := models.NewDiscountTarget(req.MenuItemID, req.SetID)
		if err != nil {
			return nil, err
		}
		discount.Target = target
	}
	if req.DiscountPercentage != nil {
		discount.Percentage = *req.DiscountPercentage
	}
	if req.StartTime != nil {
		if discount.StartTime, err = models.ParseTimeOfDay(*req.StartTime); err != nil {
			return nil, fmt.Errorf("%w: start_time %q", ErrInvalidTimeWindow, *req.StartTime)
		}
	}
	if req.EndTime != nil {
		if discount.EndTime, err = models.ParseTimeOfDay(*req.EndTime); err != nil {
			return nil, fmt.Errorf("%w: end_time %q", ErrInvalidTimeWindow, *req.EndTime)
		}
	}
	if req.IsActive != nil {
		discount.IsActive = *req.IsActive
	}
	if err := s.checkDiscount(discount); err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.discountRepo.Update(ctx, exec, discount)
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return nil, ErrDiscountNotFound
		case errors.Is(err, repositories.ErrForeignKey):
			return nil, fmt.Errorf("%w: %s", ErrDiscountTargetNotFound, discount.Target)
		}
		return nil, fmt.Errorf("failed to update discount: %w", err)
	}

	s.store.UpsertDiscount(*discount)
	invalidateMenus(ctx, s.cache)
	return discount, nil
}

func (s *discountService) DeleteDiscount(ctx context.Context, id string) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.discountRepo.Delete(ctx, exec, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrDiscountNotFound
		}
		return fmt.Errorf("failed to delete discount: %w", err)
	}
	s.store.RemoveDiscount(id)
	invalidateMenus(ctx, s.cache)
	return nil
}

// PreviewDiscount prices the discount's target at the given time using only this discount.
func (s *discountService) PreviewDiscount(ctx context.Context, id string, at models.TimeOfDay) (*DiscountPreview, error) {
	discount, err := s.GetDiscountByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		base decimal.Decimal
		name string
	)
	switch discount.Target.Kind {
	case models.TargetItem:
		item, ok := s.store.GetItem(discount.Target.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrDiscountTargetNotFound, discount.Target)
		}
		base, name = item.Price, item.Name
	case models.TargetSet:
		set, ok := s.store.GetSet(discount.Target.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrDiscountTargetNotFound, discount.Target)
		}
		base, name = set.TotalPrice, set.Name
	}

	result, err := pricing.Apply(*discount, discount.Target, base, at)
	if err != nil {
		if errors.Is(err, pricing.ErrMalformedDiscount) {
			return nil, ErrInvalidPercentage
		}
		return nil, fmt.Errorf("failed to preview discount: %w", err)
	}
	return &DiscountPreview{Discount: *discount, TargetName: name, At: at, Pricing: result}, nil
}
