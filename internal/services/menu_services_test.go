package services

import (
	"context"
	"errors"
	"testing"

	"qr_menu_backend/internal/catalog"
	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func mustCreateItem(t *testing.T, f *fixture, name, price string, category *string) *models.Item {
	t.Helper()
	item, err := f.items.CreateItem(context.Background(), CreateItemRequest{Name: name, Price: decPtr(price), Category: category})
	require.NoError(t, err)
	return item
}

func TestItemServiceCreateWritesThroughToStore(t *testing.T) {
	f := newFixture()

	item := mustCreateItem(t, f, "  Burger ", "8.50", strPtr(" Mains "))

	assert.Equal(t, "Burger", item.Name)
	assert.Equal(t, "Mains", *item.Category)
	assert.True(t, item.IsAvailable)
	stored, ok := f.store.GetItem(item.ID)
	require.True(t, ok)
	assert.Equal(t, item.Name, stored.Name)
}

func TestItemServiceCreateValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.items.CreateItem(ctx, CreateItemRequest{Name: "Soup"})
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = f.items.CreateItem(ctx, CreateItemRequest{Name: "Soup", Price: decPtr("-1")})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = f.items.CreateItem(ctx, CreateItemRequest{Name: "   ", Price: decPtr("1")})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Zero(t, f.tx.calls)
}

func TestItemServiceUpdateAndDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	item := mustCreateItem(t, f, "Tea", "2", nil)

	updated, err := f.items.UpdateItem(ctx, item.ID, UpdateItemRequest{Price: decPtr("2.5"), IsAvailable: boolPtr(false)})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("2.5")))
	stored, _ := f.store.GetItem(item.ID)
	assert.False(t, stored.IsAvailable)

	_, err = f.items.UpdateItem(ctx, "missing", UpdateItemRequest{})
	assert.ErrorIs(t, err, ErrItemNotFound)

	require.NoError(t, f.items.DeleteItem(ctx, item.ID))
	assert.False(t, f.store.HasItem(item.ID))
	assert.ErrorIs(t, f.items.DeleteItem(ctx, item.ID), ErrItemNotFound)
}

func TestItemServiceTransactionFailureLeavesStoreUntouched(t *testing.T) {
	f := newFixture()
	f.tx.err = errors.New("connection reset")

	_, err := f.items.CreateItem(context.Background(), CreateItemRequest{Name: "Tea", Price: decPtr("2")})
	require.Error(t, err)
	assert.Empty(t, f.store.ListItems())
}

func TestSetServiceCreateComposesAndPersists(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	burger := mustCreateItem(t, f, "Burger", "8", nil)
	fries := mustCreateItem(t, f, "Fries", "3", nil)

	set, err := f.sets.CreateSet(ctx, CreateSetRequest{
		Name:       "Combo",
		TotalPrice: decPtr("10"),
		Items: []catalog.MembershipInput{
			{ItemID: burger.ID, Quantity: 1},
			{ItemID: fries.ID, Quantity: "2"},
			{ItemID: burger.ID, Quantity: 0},
		},
	})
	require.NoError(t, err)

	require.Len(t, set.Contents, 2)
	assert.Equal(t, burger.ID, set.Contents[0].ItemID)
	assert.Equal(t, 2, set.Contents[0].Quantity)
	assert.Equal(t, 2, set.Contents[1].Quantity)
	require.NotNil(t, set.Contents[1].Item)
	assert.Equal(t, "Fries", set.Contents[1].Item.Name)

	stored, ok := f.store.GetSet(set.ID)
	require.True(t, ok)
	assert.Len(t, stored.Contents, 2)
	assert.Equal(t, 1, f.setRepo.replaced)
}

func TestSetServiceCreateRejectsBadCompositions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.sets.CreateSet(ctx, CreateSetRequest{Name: "Empty", TotalPrice: decPtr("5")})
	assert.ErrorIs(t, err, catalog.ErrEmptyComposition)

	_, err = f.sets.CreateSet(ctx, CreateSetRequest{
		Name: "Ghost", TotalPrice: decPtr("5"),
		Items: []catalog.MembershipInput{{ItemID: "nope", Quantity: 1}},
	})
	var unknown *catalog.UnknownItemError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"nope"}, unknown.ItemIDs)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Zero(t, f.tx.calls)
}

func TestSetServiceUpdateMemberships(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := mustCreateItem(t, f, "A", "1", nil)
	b := mustCreateItem(t, f, "B", "1", nil)
	set, err := f.sets.CreateSet(ctx, CreateSetRequest{
		Name: "Pair", TotalPrice: decPtr("2"),
		Items: []catalog.MembershipInput{{ItemID: a.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// Without items the composition is kept.
	renamed, err := f.sets.UpdateSet(ctx, set.ID, UpdateSetRequest{Name: strPtr("Duo")})
	require.NoError(t, err)
	assert.Equal(t, "Duo", renamed.Name)
	require.Len(t, renamed.Contents, 1)
	assert.Equal(t, 1, f.setRepo.replaced)

	_, err = f.sets.UpdateSet(ctx, set.ID, UpdateSetRequest{Items: []catalog.MembershipInput{}})
	assert.ErrorIs(t, err, catalog.ErrEmptyComposition)

	swapped, err := f.sets.UpdateSet(ctx, set.ID, UpdateSetRequest{Items: []catalog.MembershipInput{{ItemID: b.ID, Quantity: 3}}})
	require.NoError(t, err)
	require.Len(t, swapped.Contents, 1)
	assert.Equal(t, b.ID, swapped.Contents[0].ItemID)
	assert.Equal(t, 3, swapped.Contents[0].Quantity)

	stored, _ := f.store.GetSet(set.ID)
	assert.Equal(t, "Duo", stored.Name)
	assert.Equal(t, b.ID, stored.Contents[0].ItemID)

	_, err = f.sets.UpdateSet(ctx, set.ID, UpdateSetRequest{Name: strPtr(" ")})
	assert.ErrorIs(t, err, catalog.ErrInvalidSet)
}

func TestSetServiceDanglingItemShowsUnresolved(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := mustCreateItem(t, f, "A", "1", nil)
	set, err := f.sets.CreateSet(ctx, CreateSetRequest{
		Name: "Solo", TotalPrice: decPtr("1"),
		Items: []catalog.MembershipInput{{ItemID: a.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.NoError(t, f.items.DeleteItem(ctx, a.ID))

	got, err := f.sets.GetSetByID(ctx, set.ID)
	require.NoError(t, err)
	require.Len(t, got.Contents, 1)
	assert.Nil(t, got.Contents[0].Item)
}

func TestSetServiceDeleteCascadesDiscountsInStore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	a := mustCreateItem(t, f, "A", "1", nil)
	set, err := f.sets.CreateSet(ctx, CreateSetRequest{
		Name: "Solo", TotalPrice: decPtr("1"),
		Items: []catalog.MembershipInput{{ItemID: a.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.discounts.CreateDiscount(ctx, CreateDiscountRequest{
		SetID: &set.ID, DiscountPercentage: decPtr("10"), StartTime: "00:00", EndTime: "23:59",
	})
	require.NoError(t, err)

	require.NoError(t, f.sets.DeleteSet(ctx, set.ID))
	assert.Empty(t, f.store.ListDiscounts())
	assert.ErrorIs(t, f.sets.DeleteSet(ctx, set.ID), ErrSetNotFound)
}

func TestDiscountServiceCreateValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	item := mustCreateItem(t, f, "Soup", "5", nil)

	cases := []struct {
		name string
		req  CreateDiscountRequest
		want error
	}{
		{"no target", CreateDiscountRequest{DiscountPercentage: decPtr("10"), StartTime: "09:00", EndTime: "10:00"}, models.ErrInvalidDiscountTarget},
		{"both targets", CreateDiscountRequest{MenuItemID: &item.ID, SetID: strPtr("s"), DiscountPercentage: decPtr("10"), StartTime: "09:00", EndTime: "10:00"}, models.ErrInvalidDiscountTarget},
		{"unknown target", CreateDiscountRequest{MenuItemID: strPtr("ghost"), DiscountPercentage: decPtr("10"), StartTime: "09:00", EndTime: "10:00"}, ErrDiscountTargetNotFound},
		{"percentage above 100", CreateDiscountRequest{MenuItemID: &item.ID, DiscountPercentage: decPtr("100.5"), StartTime: "09:00", EndTime: "10:00"}, ErrInvalidPercentage},
		{"negative percentage", CreateDiscountRequest{MenuItemID: &item.ID, DiscountPercentage: decPtr("-1"), StartTime: "09:00", EndTime: "10:00"}, ErrInvalidPercentage},
		{"bad time", CreateDiscountRequest{MenuItemID: &item.ID, DiscountPercentage: decPtr("10"), StartTime: "25:00", EndTime: "10:00"}, ErrInvalidTimeWindow},
		{"missing percentage", CreateDiscountRequest{MenuItemID: &item.ID, StartTime: "09:00", EndTime: "10:00"}, models.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.discounts.CreateDiscount(ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.store.ListDiscounts())
}

func TestDiscountServiceAcceptsWrappedWindow(t *testing.T) {
	f := newFixture()
	item := mustCreateItem(t, f, "Soup", "5", nil)

	d, err := f.discounts.CreateDiscount(context.Background(), CreateDiscountRequest{
		MenuItemID: &item.ID, DiscountPercentage: decPtr("10"), StartTime: "22:00", EndTime: "02:00",
	})
	require.NoError(t, err)
	assert.True(t, d.WrapsMidnight())
	assert.False(t, d.ActiveAt(models.MustTimeOfDay(23, 0)))
}

func TestDiscountServiceUpdateAndPreview(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	item := mustCreateItem(t, f, "Pizza", "20.00", nil)

	d, err := f.discounts.CreateDiscount(ctx, CreateDiscountRequest{
		MenuItemID: &item.ID, DiscountPercentage: decPtr("10"), StartTime: "00:00", EndTime: "23:59",
	})
	require.NoError(t, err)

	preview, err := f.discounts.PreviewDiscount(ctx, d.ID, models.MustTimeOfDay(12, 0))
	require.NoError(t, err)
	assert.True(t, preview.Pricing.HasDiscount)
	assert.Equal(t, "18.00", preview.Pricing.EffectivePrice.StringFixed(2))
	assert.Equal(t, "Pizza", preview.TargetName)

	updated, err := f.discounts.UpdateDiscount(ctx, d.ID, UpdateDiscountRequest{
		DiscountPercentage: decPtr("25"), StartTime: strPtr("11:00"), EndTime: strPtr("13:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MustTimeOfDay(11, 0), updated.StartTime)
	stored, ok := f.store.GetDiscount(d.ID)
	require.True(t, ok)
	assert.True(t, stored.Percentage.Equal(decimal.NewFromInt(25)))

	preview, err = f.discounts.PreviewDiscount(ctx, d.ID, models.MustTimeOfDay(14, 0))
	require.NoError(t, err)
	assert.False(t, preview.Pricing.HasDiscount)
	assert.Equal(t, "20.00", preview.Pricing.EffectivePrice.StringFixed(2))

	_, err = f.discounts.UpdateDiscount(ctx, d.ID, UpdateDiscountRequest{DiscountPercentage: decPtr("101")})
	assert.ErrorIs(t, err, ErrInvalidPercentage)

	require.NoError(t, f.discounts.DeleteDiscount(ctx, d.ID))
	_, ok = f.store.GetDiscount(d.ID)
	assert.False(t, ok)
	_, err = f.discounts.PreviewDiscount(ctx, d.ID, 0)
	assert.ErrorIs(t, err, ErrDiscountNotFound)
}

func TestDiscountServiceRejectsUnknownTargetType(t *testing.T) {
	f := newFixture()
	_, _, err := f.discounts.GetDiscounts(context.Background(), models.DiscountFilters{TargetType: strPtr("combo")})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestServiceErrorsMapRepositoryFailures(t *testing.T) {
	f := newFixture()
	f.tx.err = repositories.ErrForeignKey
	item := models.Item{ID: "i1", Name: "X", Price: decimal.NewFromInt(1)}
	f.store.UpsertItem(item)

	_, err := f.discounts.CreateDiscount(context.Background(), CreateDiscountRequest{
		MenuItemID: strPtr("i1"), DiscountPercentage: decPtr("5"), StartTime: "09:00", EndTime: "10:00",
	})
	assert.ErrorIs(t, err, ErrDiscountTargetNotFound)
}
