package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"qr_menu_backend/internal/services"
	"qr_menu_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the priced catalog and the public QR menu.
type CatalogHandler struct {
	catalogService services.CatalogService
	now            func() time.Time
}

func NewCatalogHandler(cs services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: cs, now: time.Now}
}

// GetPricedCatalog prices every item and set at ?at=HH:MM (default: now).
func (h *CatalogHandler) GetPricedCatalog(c *gin.Context) {
	at, ok := parseAt(c, h.catalogService.CurrentTimeOfDay)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.catalogService.GetPricedCatalog(c.Request.Context(), at))
}

// GetPublicMenu is the guest-facing menu reached by scanning a QR code.
func (h *CatalogHandler) GetPublicMenu(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	payload, err := h.catalogService.GetPublicMenuJSON(c.Request.Context(), code, h.now())
	if err != nil {
		if errors.Is(err, services.ErrQRCodeNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu not found for this QR code.", err.Error()))
			return
		}
		utils.LogError(err, "GetPublicMenu: Error from catalogService", map[string]interface{}{"code": code})
		utils.RespondInternalError(c, "Failed to load menu.")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}
