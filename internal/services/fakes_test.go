package services

import (
	"context"
	"sync"
	"time"

	"qr_menu_backend/internal/catalog"
	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/repositories"

	"github.com/google/uuid"
)

type fakeTransactor struct {
	calls int
	err   error
}

func (f *fakeTransactor) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

// --- items ---

type fakeItemRepo struct {
	mu    sync.Mutex
	items map[string]models.Item
	order []string
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: map[string]models.Item{}}
}

func (r *fakeItemRepo) Create(_ context.Context, _ repositories.SQLExecutor, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item.ID = uuid.NewString()
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = item.CreatedAt
	r.items[item.ID] = *item
	r.order = append([]string{item.ID}, r.order...)
	return nil
}

func (r *fakeItemRepo) GetByID(_ context.Context, id string) (*models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &item, nil
}

func (r *fakeItemRepo) List(ctx context.Context, _ models.ItemFilters) ([]models.Item, int, error) {
	all, _ := r.ListAll(ctx)
	return all, len(all), nil
}

func (r *fakeItemRepo) ListAll(_ context.Context) ([]models.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Item{}
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *fakeItemRepo) Update(_ context.Context, _ repositories.SQLExecutor, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[item.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.items[item.ID] = *item
	return nil
}

func (r *fakeItemRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.items, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// --- sets ---

type fakeSetRepo struct {
	mu       sync.Mutex
	sets     map[string]models.Set
	order    []string
	replaced int
}

func newFakeSetRepo() *fakeSetRepo {
	return &fakeSetRepo{sets: map[string]models.Set{}}
}

func (r *fakeSetRepo) Create(_ context.Context, _ repositories.SQLExecutor, set *models.Set) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set.ID = uuid.NewString()
	set.CreatedAt = time.Now().UTC()
	set.UpdatedAt = set.CreatedAt
	r.sets[set.ID] = *set
	r.order = append([]string{set.ID}, r.order...)
	return nil
}

func (r *fakeSetRepo) GetByID(_ context.Context, id string) (*models.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sets[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	set.Memberships = set.CloneMemberships()
	return &set, nil
}

func (r *fakeSetRepo) List(ctx context.Context, _ models.SetFilters) ([]models.Set, int, error) {
	all, _ := r.ListAll(ctx)
	return all, len(all), nil
}

func (r *fakeSetRepo) ListAll(_ context.Context) ([]models.Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Set{}
	for _, id := range r.order {
		out = append(out, r.sets[id])
	}
	return out, nil
}

func (r *fakeSetRepo) Update(_ context.Context, _ repositories.SQLExecutor, set *models.Set) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.sets[set.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	next := *set
	next.Memberships = cur.Memberships
	r.sets[set.ID] = next
	return nil
}

func (r *fakeSetRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sets[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.sets, id)
	return nil
}

func (r *fakeSetRepo) ReplaceMemberships(_ context.Context, _ repositories.SQLExecutor, setID string, desired []models.SetMembership) ([]models.SetMembership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sets[setID]
	if !ok {
		return nil, repositories.ErrForeignKey
	}
	r.replaced++
	lines := make([]models.SetMembership, len(desired))
	for i, m := range desired {
		m.ID = uuid.NewString()
		m.SetID = setID
		m.Position = i
		lines[i] = m
	}
	set.Memberships = lines
	r.sets[setID] = set
	return append([]models.SetMembership(nil), lines...), nil
}

// --- discounts ---

type fakeDiscountRepo struct {
	mu        sync.Mutex
	discounts map[string]models.Discount
}

func newFakeDiscountRepo() *fakeDiscountRepo {
	return &fakeDiscountRepo{discounts: map[string]models.Discount{}}
}

func (r *fakeDiscountRepo) Create(_ context.Context, _ repositories.SQLExecutor, d *models.Discount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = uuid.NewString()
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt
	r.discounts[d.ID] = *d
	return nil
}

func (r *fakeDiscountRepo) GetByID(_ context.Context, id string) (*models.Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.discounts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &d, nil
}

func (r *fakeDiscountRepo) List(ctx context.Context, _ models.DiscountFilters) ([]models.Discount, int, error) {
	all, _ := r.ListAll(ctx)
	return all, len(all), nil
}

func (r *fakeDiscountRepo) ListAll(_ context.Context) ([]models.Discount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Discount{}
	for _, d := range r.discounts {
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeDiscountRepo) Update(_ context.Context, _ repositories.SQLExecutor, d *models.Discount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.discounts[d.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.discounts[d.ID] = *d
	return nil
}

func (r *fakeDiscountRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.discounts[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.discounts, id)
	return nil
}

// --- QR codes ---

type fakeQRRepo struct {
	mu    sync.Mutex
	codes []models.QRCode // Newest last
	err   error
}

func (r *fakeQRRepo) Create(_ context.Context, _ repositories.SQLExecutor, qr *models.QRCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.codes {
		if c.Code == qr.Code {
			return repositories.ErrDuplicateKey
		}
	}
	qr.ID = uuid.NewString()
	r.codes = append(r.codes, *qr)
	return nil
}

func (r *fakeQRRepo) GetLatest(_ context.Context) (*models.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if len(r.codes) == 0 {
		return nil, repositories.ErrNotFound
	}
	qr := r.codes[len(r.codes)-1]
	return &qr, nil
}

func (r *fakeQRRepo) GetByCode(_ context.Context, code string) (*models.QRCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, c := range r.codes {
		if c.Code == code {
			qr := c
			return &qr, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeQRRepo) List(_ context.Context, _, _ int) ([]models.QRCode, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.QRCode(nil), r.codes...), len(r.codes), nil
}

// --- users ---

type fakeAuthRepo struct {
	mu     sync.Mutex
	users  map[string]models.User
	hashes map[string]string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[string]models.User{}, hashes: map[string]string{}}
}

func (r *fakeAuthRepo) CreateUser(_ context.Context, _ repositories.SQLExecutor, user *models.User, hash string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return "", repositories.ErrDuplicateKey
		}
	}
	user.ID = uuid.NewString()
	user.IsActive = true
	r.users[user.ID] = *user
	r.hashes[user.ID] = hash
	return user.ID, nil
}

func (r *fakeAuthRepo) FindUserByUsername(_ context.Context, username string) (*models.User, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if u.Username == username {
			user := u
			return &user, r.hashes[id], nil
		}
	}
	return nil, "", repositories.ErrNotFound
}

func (r *fakeAuthRepo) FindUserByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *fakeAuthRepo) CountUsers(_ context.Context, _ repositories.SQLExecutor) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

// --- fixture ---

type fixture struct {
	tx        *fakeTransactor
	store     *catalog.Store
	itemRepo  *fakeItemRepo
	setRepo   *fakeSetRepo
	discRepo  *fakeDiscountRepo
	qrRepo    *fakeQRRepo
	items     ItemService
	sets      SetService
	discounts DiscountService
}

func newFixture() *fixture {
	return newFixtureWithCache(nil)
}

func newFixtureWithCache(cache MenuCache) *fixture {
	f := &fixture{
		tx:       &fakeTransactor{},
		itemRepo: newFakeItemRepo(),
		setRepo:  newFakeSetRepo(),
		discRepo: newFakeDiscountRepo(),
		qrRepo:   &fakeQRRepo{},
	}
	f.store = catalog.NewStore(repositories.NewCatalogSource(f.itemRepo, f.setRepo, f.discRepo))
	f.items = NewItemService(f.itemRepo, f.tx, f.store, cache)
	f.sets = NewSetService(f.setRepo, f.tx, f.store, cache)
	f.discounts = NewDiscountService(f.discRepo, f.tx, f.store, cache)
	return f
}
