// Package catalog holds the in-memory read model of the menu and the rules for composing sets.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"qr_menu_backend/internal/models"
)

// maxRefreshAttempts bounds how often Refresh re-reads the source when writes keep landing mid-read.
const maxRefreshAttempts = 3

// ErrRefreshContended is returned when every refresh attempt raced a write. The store keeps its
// written-through state, which is at least as new as anything the source returned.
var ErrRefreshContended = errors.New("catalog refresh: superseded by concurrent writes")

// Source loads the full catalog from persistence. Lists come newest first.
type Source interface {
	ListItems(ctx context.Context) ([]models.Item, error)
	ListSets(ctx context.Context) ([]models.Set, error) // Memberships populated
	ListDiscounts(ctx context.Context) ([]models.Discount, error)
}

// Snapshot is a consistent copy of the three collections taken under one lock.
type Snapshot struct {
	Items       []models.Item
	Sets        []models.ResolvedSet
	Discounts   []models.Discount
	RefreshedAt time.Time
}

// Store is the authoritative read model of items, sets and discounts.
// Services write through to it after persisting; Refresh reloads it from the Source.
type Store struct {
	source Source

	mu          sync.RWMutex
	items       []models.Item
	sets        []models.Set
	discounts   []models.Discount
	refreshedAt time.Time
	// generation counts write-through mutations; Refresh only swaps when it is unchanged
	// across the source read.
	generation uint64
}

func NewStore(source Source) *Store {
	return &Store{source: source}
}

// Refresh loads everything from the source and swaps it in atomically.
// A read that overlapped a write-through is discarded and retried, so a refresh never
// replaces a newer write with an older read. On failure the previous snapshot is kept.
func (s *Store) Refresh(ctx context.Context) error {
	if s.source == nil {
		return fmt.Errorf("catalog refresh: no source configured")
	}
	for attempt := 0; attempt < maxRefreshAttempts; attempt++ {
		s.mu.RLock()
		gen := s.generation
		s.mu.RUnlock()

		items, sets, discounts, err := s.load(ctx)
		if err != nil {
			return err
		}

		s.mu.Lock()
		if s.generation == gen {
			s.items = items
			s.sets = sets
			s.discounts = discounts
			s.refreshedAt = time.Now()
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()
	}
	return ErrRefreshContended
}

func (s *Store) load(ctx context.Context) ([]models.Item, []models.Set, []models.Discount, error) {
	items, err := s.source.ListItems(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("catalog refresh: items: %w", err)
	}
	sets, err := s.source.ListSets(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("catalog refresh: sets: %w", err)
	}
	discounts, err := s.source.ListDiscounts(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("catalog refresh: discounts: %w", err)
	}
	return items, sets, discounts, nil
}

// RefreshedAt returns the time of the last successful refresh, zero if never loaded.
func (s *Store) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// Counts returns the number of items, sets and discounts held.
func (s *Store) Counts() (items, sets, discounts int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items), len(s.sets), len(s.discounts)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Items:       append([]models.Item(nil), s.items...),
		Sets:        s.resolveSetsLocked(s.sets),
		Discounts:   append([]models.Discount(nil), s.discounts...),
		RefreshedAt: s.refreshedAt,
	}
}

// --- Items ---

func (s *Store) ListItems() []models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Item(nil), s.items...)
}

func (s *Store) GetItem(id string) (models.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOfItem(s.items, id); i >= 0 {
		return s.items[i], true
	}
	return models.Item{}, false
}

func (s *Store) HasItem(id string) bool {
	_, ok := s.GetItem(id)
	return ok
}

// UpsertItem replaces a known item in place or puts a new one first.
func (s *Store) UpsertItem(item models.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if i := indexOfItem(s.items, item.ID); i >= 0 {
		s.items[i] = item
		return
	}
	s.items = append([]models.Item{item}, s.items...)
}

// RemoveItem drops the item and every discount that targets it.
// Set memberships referencing it stay and show up unresolved.
func (s *Store) RemoveItem(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	i := indexOfItem(s.items, id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.discounts = removeDiscountsFor(s.discounts, models.ItemTarget(id))
	return true
}

// --- Sets ---

func (s *Store) GetSet(id string) (models.ResolvedSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOfSet(s.sets, id)
	if i < 0 {
		return models.ResolvedSet{}, false
	}
	return s.resolveSetsLocked(s.sets[i : i+1])[0], true
}

// UpsertSet stores the set with its complete membership list in one step.
func (s *Store) UpsertSet(set models.Set) {
	set.Memberships = set.CloneMemberships()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if i := indexOfSet(s.sets, set.ID); i >= 0 {
		s.sets[i] = set
		return
	}
	s.sets = append([]models.Set{set}, s.sets...)
}

// RemoveSet drops the set and every discount that targets it.
func (s *Store) RemoveSet(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	i := indexOfSet(s.sets, id)
	if i < 0 {
		return false
	}
	s.sets = append(s.sets[:i:i], s.sets[i+1:]...)
	s.discounts = removeDiscountsFor(s.discounts, models.SetTarget(id))
	return true
}

// --- Discounts ---

func (s *Store) ListDiscounts() []models.Discount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Discount(nil), s.discounts...)
}

func (s *Store) GetDiscount(id string) (models.Discount, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.discounts {
		if d.ID == id {
			return d, true
		}
	}
	return models.Discount{}, false
}

func (s *Store) UpsertDiscount(d models.Discount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	for i := range s.discounts {
		if s.discounts[i].ID == d.ID {
			s.discounts[i] = d
			return
		}
	}
	s.discounts = append([]models.Discount{d}, s.discounts...)
}

func (s *Store) RemoveDiscount(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	for i := range s.discounts {
		if s.discounts[i].ID == id {
			s.discounts = append(s.discounts[:i:i], s.discounts[i+1:]...)
			return true
		}
	}
	return false
}

// HasTarget reports whether the item or set a discount points at exists.
func (s *Store) HasTarget(target models.DiscountTarget) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch target.Kind {
	case models.TargetItem:
		return indexOfItem(s.items, target.ID) >= 0
	case models.TargetSet:
		return indexOfSet(s.sets, target.ID) >= 0
	default:
		return false
	}
}

// resolveSetsLocked must be called with s.mu held.
func (s *Store) resolveSetsLocked(sets []models.Set) []models.ResolvedSet {
	byID := make(map[string]*models.Item, len(s.items))
	for i := range s.items {
		item := s.items[i]
		byID[item.ID] = &item
	}

	out := make([]models.ResolvedSet, 0, len(sets))
	for _, set := range sets {
		set.Memberships = set.CloneMemberships()
		contents := make([]models.SetContent, 0, len(set.Memberships))
		for _, m := range set.Memberships {
			contents = append(contents, models.SetContent{
				ItemID:   m.ItemID,
				Quantity: m.Quantity,
				Item:     byID[m.ItemID],
			})
		}
		out = append(out, models.ResolvedSet{Set: set, Contents: contents})
	}
	return out
}

func indexOfItem(items []models.Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfSet(sets []models.Set, id string) int {
	for i := range sets {
		if sets[i].ID == id {
			return i
		}
	}
	return -1
}

func removeDiscountsFor(discounts []models.Discount, target models.DiscountTarget) []models.Discount {
	out := discounts[:0:0]
	for _, d := range discounts {
		if d.Target != target {
			out = append(out, d)
		}
	}
	return out
}
