package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qr_menu_backend/internal/catalog"
	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/pricing"
	"qr_menu_backend/internal/repositories"
	"qr_menu_backend/pkg/metrics"
	"qr_menu_backend/pkg/utils"
)

// MenuCache stores rendered public menus. *cache.MenuCache satisfies it.
type MenuCache interface {
	Get(ctx context.Context, code string, at time.Time) ([]byte, bool, error)
	Set(ctx context.Context, code string, at time.Time, payload []byte) error
	Invalidate(ctx context.Context) error
}

// invalidateMenus drops cached public menus after a catalog write. A nil cache is a no-op;
// a failure only leaves menus stale until their TTL runs out.
func invalidateMenus(ctx context.Context, cache MenuCache) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx); err != nil {
		utils.LogWarn("Public menu cache invalidation failed", map[string]interface{}{"error": err.Error()})
	}
}

// MenuCategory groups the priced items of one category. Name is nil for uncategorized items.
type MenuCategory struct {
	Name  *string               `json:"name"`
	Items []pricing.PricedEntry `json:"items"`
}

// PublicMenu is what a guest sees after scanning a QR code.
type PublicMenu struct {
	Code       string                `json:"code"`
	At         models.TimeOfDay      `json:"at"`
	Categories []MenuCategory        `json:"categories"`
	Sets       []pricing.PricedEntry `json:"sets"`
}

// --- CatalogService Interface ---
type CatalogService interface {
	// CurrentTimeOfDay is the wall-clock time in the restaurant's timezone.
	CurrentTimeOfDay() models.TimeOfDay
	GetPricedCatalog(ctx context.Context, at models.TimeOfDay) pricing.PricedCatalog
	GetPublicMenu(ctx context.Context, code string, now time.Time) (*PublicMenu, error)
	// GetPublicMenuJSON is GetPublicMenu rendered to JSON, served from the menu cache when possible.
	GetPublicMenuJSON(ctx context.Context, code string, now time.Time) ([]byte, error)
	ValidateAndPrepareSet(draft catalog.SetDraft, memberships []catalog.MembershipInput) (*catalog.ValidatedSet, error)
}

// CatalogServiceParams wires the catalog service. Cache and Metrics are optional.
type CatalogServiceParams struct {
	Store    *catalog.Store
	QRRepo   repositories.QRCodeRepository
	Cache    MenuCache
	Metrics  *metrics.CatalogMetrics
	Location *time.Location
	Now      func() time.Time
}

// --- catalogService Implementation ---
type catalogService struct {
	store    *catalog.Store
	qrRepo   repositories.QRCodeRepository
	cache    MenuCache
	metrics  *metrics.CatalogMetrics
	location *time.Location
	now      func() time.Time
	composer *catalog.Composer
}

func NewCatalogService(params CatalogServiceParams) (CatalogService, error) {
	if params.Store == nil {
		return nil, errors.New("catalog store is required")
	}
	if params.QRRepo == nil {
		return nil, errors.New("qr code repository is required")
	}
	if params.Location == nil {
		params.Location = time.Local
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &catalogService{
		store:    params.Store,
		qrRepo:   params.QRRepo,
		cache:    params.Cache,
		metrics:  params.Metrics,
		location: params.Location,
		now:      params.Now,
		composer: catalog.NewComposer(params.Store),
	}, nil
}

func (s *catalogService) CurrentTimeOfDay() models.TimeOfDay {
	return models.TimeOfDayFrom(s.now().In(s.location))
}

// GetPricedCatalog prices every item and set, available or not, at the given time.
func (s *catalogService) GetPricedCatalog(ctx context.Context, at models.TimeOfDay) pricing.PricedCatalog {
	snap := s.store.Snapshot()
	return pricing.PriceCatalog(snap.Items, snap.Sets, snap.Discounts, at)
}

// GetPublicMenu builds the guest menu for a known QR code: available entries only,
// priced at now in the configured timezone.
func (s *catalogService) GetPublicMenu(ctx context.Context, code string, now time.Time) (*PublicMenu, error) {
	if _, err := s.qrRepo.GetByCode(ctx, code); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrQRCodeNotFound
		}
		return nil, fmt.Errorf("failed to verify QR code: %w", err)
	}

	at := models.TimeOfDayFrom(now.In(s.location))
	snap := s.store.Snapshot()
	// Resolve skips inactive discounts itself.
	discounts := snap.Discounts

	menu := &PublicMenu{Code: code, At: at, Categories: []MenuCategory{}, Sets: []pricing.PricedEntry{}}
	index := map[string]int{}
	var uncategorized []pricing.PricedEntry
	for _, item := range snap.Items {
		if !item.IsAvailable {
			continue
		}
		entry := pricing.PriceItem(item, discounts, at)
		if item.Category == nil || *item.Category == "" {
			uncategorized = append(uncategorized, entry)
			continue
		}
		i, ok := index[*item.Category]
		if !ok {
			name := *item.Category
			i = len(menu.Categories)
			index[name] = i
			menu.Categories = append(menu.Categories, MenuCategory{Name: &name, Items: []pricing.PricedEntry{}})
		}
		menu.Categories[i].Items = append(menu.Categories[i].Items, entry)
	}
	if len(uncategorized) > 0 {
		menu.Categories = append(menu.Categories, MenuCategory{Items: uncategorized})
	}

	for _, set := range snap.Sets {
		if set.IsAvailable {
			menu.Sets = append(menu.Sets, pricing.PriceSet(set, discounts, at))
		}
	}
	return menu, nil
}

func (s *catalogService) GetPublicMenuJSON(ctx context.Context, code string, now time.Time) ([]byte, error) {
	local := now.In(s.location)
	if s.cache != nil {
		payload, ok, err := s.cache.Get(ctx, code, local)
		switch {
		case err != nil:
			s.metrics.IncMenuCache("error")
			utils.LogWarn("Menu cache lookup failed", map[string]interface{}{"code": code, "error": err.Error()})
		case ok:
			s.metrics.IncMenuCache("hit")
			return payload, nil
		default:
			s.metrics.IncMenuCache("miss")
		}
	}

	menu, err := s.GetPublicMenu(ctx, code, now)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(menu)
	if err != nil {
		return nil, fmt.Errorf("failed to encode menu: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, code, local, payload); err != nil {
			utils.LogWarn("Menu cache store failed", map[string]interface{}{"code": code, "error": err.Error()})
		}
	}
	return payload, nil
}

// ValidateAndPrepareSet runs set composition without persisting anything.
func (s *catalogService) ValidateAndPrepareSet(draft catalog.SetDraft, memberships []catalog.MembershipInput) (*catalog.ValidatedSet, error) {
	return s.composer.Compose(draft, memberships)
}
