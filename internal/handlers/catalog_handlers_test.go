package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"qr_menu_backend/internal/catalog"
	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/pricing"
	"qr_menu_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubCatalogService struct {
	payload []byte
	err     error
	code    string
	now     time.Time
}

func (s *stubCatalogService) CurrentTimeOfDay() models.TimeOfDay { return models.MustTimeOfDay(8, 15) }

func (s *stubCatalogService) GetPricedCatalog(_ context.Context, at models.TimeOfDay) pricing.PricedCatalog {
	return pricing.PricedCatalog{At: at, Items: []pricing.PricedEntry{}, Sets: []pricing.PricedEntry{}}
}

func (s *stubCatalogService) GetPublicMenu(context.Context, string, time.Time) (*services.PublicMenu, error) {
	return nil, errors.New("not used")
}

func (s *stubCatalogService) GetPublicMenuJSON(_ context.Context, code string, now time.Time) ([]byte, error) {
	s.code, s.now = code, now
	return s.payload, s.err
}

func (s *stubCatalogService) ValidateAndPrepareSet(catalog.SetDraft, []catalog.MembershipInput) (*catalog.ValidatedSet, error) {
	return nil, errors.New("not used")
}

func newCatalogEngine(svc services.CatalogService, now time.Time) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewCatalogHandler(svc)
	h.now = func() time.Time { return now }
	engine := gin.New()
	engine.GET("/menu/:code", h.GetPublicMenu)
	engine.GET("/catalog/priced", h.GetPricedCatalog)
	return engine
}

func get(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestGetPublicMenu(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		svc    *stubCatalogService
		status int
		body   string
	}{
		{
			name:   "served as rendered",
			svc:    &stubCatalogService{payload: []byte(`{"code":"QR-1","at":"12:00","categories":[],"sets":[]}`)},
			status: http.StatusOK,
			body:   `{"code":"QR-1","at":"12:00","categories":[],"sets":[]}`,
		},
		{
			name:   "unknown code",
			svc:    &stubCatalogService{err: services.ErrQRCodeNotFound},
			status: http.StatusNotFound,
		},
		{
			name:   "backend failure",
			svc:    &stubCatalogService{err: errors.New("db down")},
			status: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(newCatalogEngine(tt.svc, now), "/menu/QR-1")
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "QR-1", tt.svc.code)
			assert.Equal(t, now, tt.svc.now)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, w.Body.String())
				assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
			} else {
				assert.NotContains(t, w.Body.String(), "db down")
			}
		})
	}
}

func TestGetPricedCatalogDefaultsToNow(t *testing.T) {
	engine := newCatalogEngine(&stubCatalogService{}, time.Now())

	w := get(engine, "/catalog/priced")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"at":"08:15","items":[],"sets":[]}`, w.Body.String())

	w = get(engine, "/catalog/priced?at=23:59")
	assert.JSONEq(t, `{"at":"23:59","items":[],"sets":[]}`, w.Body.String())

	w = get(engine, "/catalog/priced?at=noon")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
