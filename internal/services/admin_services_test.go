package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"qr_menu_backend/internal/models"
	"qr_menu_backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRCodeServiceGenerate(t *testing.T) {
	repo := &fakeQRRepo{}
	svc := NewQRCodeService(repo, &fakeTransactor{}, "http://localhost:3000/#/menu/", 0).(*qrCodeService)
	fixed := time.UnixMilli(1717236000000)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	first, err := svc.GenerateQRCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "QR-1717236000000", first.Code)
	assert.Equal(t, "http://localhost:3000/#/menu/QR-1717236000000", first.MenuURL)

	// Same millisecond: the next free code is taken.
	second, err := svc.GenerateQRCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, "QR-1717236000001", second.Code)

	latest, err := svc.GetLatestQRCode(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Code, latest.Code)

	png, qr, err := svc.RenderLatestPNG(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.Code, qr.Code)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestQRCodeServiceLatestMissing(t *testing.T) {
	svc := NewQRCodeService(&fakeQRRepo{}, &fakeTransactor{}, "http://x/", 256)

	_, err := svc.GetLatestQRCode(context.Background())
	assert.ErrorIs(t, err, ErrQRCodeNotFound)
	_, _, err = svc.RenderLatestPNG(context.Background())
	assert.ErrorIs(t, err, ErrQRCodeNotFound)
	_, err = svc.GetQRCodeByCode(context.Background(), "QR-1")
	assert.ErrorIs(t, err, ErrQRCodeNotFound)
}

func newTestTokens(t *testing.T) *utils.TokenManager {
	t.Helper()
	tokens, err := utils.NewTokenManager("test-secret", "qr-menu-test", time.Hour)
	require.NoError(t, err)
	return tokens
}

func TestAuthServiceBootstrapAndLogin(t *testing.T) {
	repo := newFakeAuthRepo()
	tokens := newTestTokens(t)
	svc := NewAuthService(repo, &fakeTransactor{}, tokens)
	ctx := context.Background()

	owner, err := svc.RegisterUser(ctx, models.RegistrationPayload{Username: "owner", Password: "password123"}, "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, owner.Role)

	_, err = svc.RegisterUser(ctx, models.RegistrationPayload{Username: "intruder", Password: "password123"}, "")
	assert.ErrorIs(t, err, ErrRegistrationClosed)
	_, err = svc.RegisterUser(ctx, models.RegistrationPayload{Username: "intruder", Password: "password123"}, models.RoleStaff)
	assert.ErrorIs(t, err, ErrRegistrationClosed)

	waiter, err := svc.RegisterUser(ctx, models.RegistrationPayload{Username: "waiter", Password: "password123"}, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, waiter.Role)

	_, err = svc.RegisterUser(ctx, models.RegistrationPayload{Username: "waiter", Password: "password123"}, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrUsernameExists)

	_, err = svc.RegisterUser(ctx, models.RegistrationPayload{Username: "chef", Password: "password123", Role: strPtr("cook")}, models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = svc.RegisterUser(ctx, models.RegistrationPayload{Username: "shorty", Password: "short"}, models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrValidation)

	resp, err := svc.LoginUser(ctx, models.Credentials{Username: "owner", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	claims, err := tokens.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = svc.LoginUser(ctx, models.Credentials{Username: "owner", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.LoginUser(ctx, models.Credentials{Username: "nobody", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	profile, err := svc.GetUserProfile(ctx, waiter.ID)
	require.NoError(t, err)
	assert.Equal(t, "waiter", profile.Username)
	_, err = svc.GetUserProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDashboardSummary(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		mustCreateItem(t, f, "Item", "1", nil)
	}
	hidden, err := f.items.CreateItem(ctx, CreateItemRequest{Name: "Hidden", Price: decPtr("1"), IsAvailable: boolPtr(false)})
	require.NoError(t, err)
	_, err = f.discounts.CreateDiscount(ctx, CreateDiscountRequest{
		MenuItemID: &hidden.ID, DiscountPercentage: decPtr("5"), StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)
	_, err = f.discounts.CreateDiscount(ctx, CreateDiscountRequest{
		MenuItemID: &hidden.ID, DiscountPercentage: decPtr("5"), StartTime: "00:00", EndTime: "23:59", IsActive: boolPtr(false),
	})
	require.NoError(t, err)
	f.qrRepo.codes = append(f.qrRepo.codes, models.QRCode{ID: "q1", Code: "QR-1"})

	svc := NewDashboardService(f.store, f.qrRepo, time.UTC).(*dashboardService)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC) }

	summary, err := svc.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, summary.ItemsCount)
	assert.Equal(t, 7, summary.AvailableItemsCount)
	assert.Equal(t, 2, summary.DiscountsCount)
	assert.Equal(t, 1, summary.ActiveDiscountsCount)
	assert.Equal(t, 1, summary.DiscountsActiveNow)
	assert.Len(t, summary.RecentItems, 5)
	assert.Equal(t, hidden.ID, summary.RecentItems[0].ID)
	assert.Empty(t, summary.RecentSets)
	require.NotNil(t, summary.LatestQRCode)
	assert.Equal(t, "QR-1", summary.LatestQRCode.Code)

	f.qrRepo.err = errors.New("db down")
	_, err = svc.GetSummary(ctx)
	assert.Error(t, err)
}
