package services

import (
	"context"
	"errors"
	"fmt"

	"qr_menu_backend/internal/catalog"
	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/repositories"
	"qr_menu_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

var ErrSetNotFound = errors.New("set not found")

// --- Set DTOs ---
type CreateSetRequest struct {
	Name        string                    `json:"name" binding:"required,max=255"`
	Description *string                   `json:"description"`
	TotalPrice  *decimal.Decimal          `json:"total_price" binding:"required"`
	ImageURL    *string                   `json:"image_url"`
	IsAvailable *bool                     `json:"is_available"` // Defaults to true
	Items       []catalog.MembershipInput `json:"items"`
}

// UpdateSetRequest changes only the fields that are present.
// Items replaces the whole composition when present; an empty list is rejected.
type UpdateSetRequest struct {
	Name        *string                   `json:"name" binding:"omitempty,max=255"`
	Description *string                   `json:"description"`
	TotalPrice  *decimal.Decimal          `json:"total_price"`
	ImageURL    *string                   `json:"image_url"`
	IsAvailable *bool                     `json:"is_available"`
	Items       []catalog.MembershipInput `json:"items"`
}

// Draft converts the request into a set draft for composition.
func (r CreateSetRequest) Draft() catalog.SetDraft {
	draft := catalog.SetDraft{
		Name:        r.Name,
		Description: utils.TrimmedNullString(r.Description),
		ImageURL:    utils.TrimmedNullString(r.ImageURL),
		IsAvailable: boolOr(r.IsAvailable, true),
	}
	if r.TotalPrice != nil {
		draft.TotalPrice = *r.TotalPrice
	}
	return draft
}

// --- SetService Interface ---
type SetService interface {
	CreateSet(ctx context.Context, req CreateSetRequest) (*models.ResolvedSet, error)
	GetSetByID(ctx context.Context, id string) (*models.ResolvedSet, error)
	GetSets(ctx context.Context, filters models.SetFilters) ([]models.ResolvedSet, int, error)
	UpdateSet(ctx context.Context, id string, req UpdateSetRequest) (*models.ResolvedSet, error)
	DeleteSet(ctx context.Context, id string) error
}

// --- setService Implementation ---
type setService struct {
	setRepo  repositories.SetRepository
	tx       repositories.Transactor
	store    *catalog.Store
	cache    MenuCache
	composer *catalog.Composer
}

// NewSetService creates a new SetService. Compositions are checked against the items in store.
// cache may be nil.
func NewSetService(setRepo repositories.SetRepository, tx repositories.Transactor, store *catalog.Store, cache MenuCache) SetService {
	return &setService{
		setRepo:  setRepo,
		tx:       tx,
		store:    store,
		cache:    cache,
		composer: catalog.NewComposer(store),
	}
}

func (s *setService) CreateSet(ctx context.Context, req CreateSetRequest) (*models.ResolvedSet, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	validated, err := s.composer.Compose(req.Draft(), req.Items)
	if err != nil {
		return nil, err
	}

	set := &models.Set{
		Name:        validated.Draft.Name,
		Description: validated.Draft.Description,
		TotalPrice:  validated.Draft.TotalPrice,
		ImageURL:    validated.Draft.ImageURL,
		IsAvailable: validated.Draft.IsAvailable,
	}
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.setRepo.Create(ctx, exec, set); err != nil {
			return err
		}
		lines, err := s.setRepo.ReplaceMemberships(ctx, exec, set.ID, validated.Memberships)
		if err != nil {
			return err
		}
		set.Memberships = lines
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create set: %w", err)
	}

	s.store.UpsertSet(*set)
	invalidateMenus(ctx, s.cache)
	utils.LogInfo("Set created", map[string]interface{}{"set_id": set.ID, "items": len(set.Memberships)})
	return s.resolve(*set), nil
}

func (s *setService) GetSetByID(ctx context.Context, id string) (*models.ResolvedSet, error) {
	set, err := s.setRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSetNotFound
		}
		return nil, fmt.Errorf("failed to get set by ID: %w", err)
	}
	return s.resolve(*set), nil
}

func (s *setService) GetSets(ctx context.Context, filters models.SetFilters) ([]models.ResolvedSet, int, error) {
	filters.Page, filters.PageSize = normalizePage(filters.Page, filters.PageSize)
	sets, total, err := s.setRepo.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sets: %w", err)
	}
	resolved := make([]models.ResolvedSet, 0, len(sets))
	for _, set := range sets {
		resolved = append(resolved, *s.resolve(set))
	}
	return resolved, total, nil
}

func (s *setService) UpdateSet(ctx context.Context, id string, req UpdateSetRequest) (*models.ResolvedSet, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	set, err := s.setRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrSetNotFound
		}
		return nil, fmt.Errorf("failed to find set for update: %w", err)
	}

	draft := catalog.SetDraft{
		Name:        set.Name,
		Description: set.Description,
		TotalPrice:  set.TotalPrice,
		ImageURL:    set.ImageURL,
		IsAvailable: set.IsAvailable,
	}
	if req.Name != nil {
		draft.Name = *req.Name
	}
	if req.Description != nil {
		draft.Description = utils.TrimmedNullString(req.Description)
	}
	if req.TotalPrice != nil {
		draft.TotalPrice = *req.TotalPrice
	}
	if req.ImageURL != nil {
		draft.ImageURL = utils.TrimmedNullString(req.ImageURL)
	}
	if req.IsAvailable != nil {
		draft.IsAvailable = *req.IsAvailable
	}

	var desired []models.SetMembership
	if req.Items != nil {
		validated, err := s.composer.Compose(draft, req.Items)
		if err != nil {
			return nil, err
		}
		draft, desired = validated.Draft, validated.Memberships
	} else if draft, err = catalog.ValidateDraft(draft); err != nil {
		return nil, err
	}

	set.Name = draft.Name
	set.Description = draft.Description
	set.TotalPrice = draft.TotalPrice
	set.ImageURL = draft.ImageURL
	set.IsAvailable = draft.IsAvailable

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.setRepo.Update(ctx, exec, set); err != nil {
			return err
		}
		if desired == nil {
			return nil
		}
		lines, err := s.setRepo.ReplaceMemberships(ctx, exec, set.ID, desired)
		if err != nil {
			return err
		}
		set.Memberships = lines
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, repositories.ErrForeignKey) {
			return nil, ErrSetNotFound
		}
		return nil, fmt.Errorf("failed to update set: %w", err)
	}

	s.store.UpsertSet(*set)
	invalidateMenus(ctx, s.cache)
	return s.resolve(*set), nil
}

// DeleteSet removes the set together with its lines and discounts.
func (s *setService) DeleteSet(ctx context.Context, id string) error {
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return s.setRepo.Delete(ctx, exec, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrSetNotFound
		}
		return fmt.Errorf("failed to delete set: %w", err)
	}

	s.store.RemoveSet(id)
	invalidateMenus(ctx, s.cache)
	utils.LogInfo("Set deleted", map[string]interface{}{"set_id": id})
	return nil
}

// resolve attaches the current item snapshots to the set's lines.
func (s *setService) resolve(set models.Set) *models.ResolvedSet {
	out := &models.ResolvedSet{Set: set, Contents: make([]models.SetContent, 0, len(set.Memberships))}
	for _, m := range set.Memberships {
		content := models.SetContent{ItemID: m.ItemID, Quantity: m.Quantity}
		if item, ok := s.store.GetItem(m.ItemID); ok {
			content.Item = &item
		}
		out.Contents = append(out.Contents, content)
	}
	return out
}
