package handlers

import (
	"errors"
	"net/http"

	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/services"
	"qr_menu_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DiscountHandler holds the discount service.
type DiscountHandler struct {
	discountService services.DiscountService
	now             func() models.TimeOfDay
}

// NewDiscountHandler creates a new DiscountHandler. now supplies the default preview time.
func NewDiscountHandler(ds services.DiscountService, now func() models.TimeOfDay) *DiscountHandler {
	return &DiscountHandler{discountService: ds, now: now}
}

func (h *DiscountHandler) respondError(c *gin.Context, err error, op, fallback string) {
	utils.LogError(err, op+": Error from discountService", map[string]interface{}{"discount_id": c.Param("id")})
	switch {
	case errors.Is(err, services.ErrDiscountNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Discount not found.", err.Error()))
	case errors.Is(err, services.ErrDiscountTargetNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Discount target does not exist.", err.Error()))
	case errors.Is(err, models.ErrValidation):
		respondValidation(c, err)
	default:
		utils.RespondInternalError(c, fallback)
	}
}

func (h *DiscountHandler) CreateDiscount(c *gin.Context) {
	var req services.CreateDiscountRequest
	if !bindJSON(c, &req, "CreateDiscount") {
		return
	}
	discount, err := h.discountService.CreateDiscount(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "CreateDiscount", "Failed to create discount.")
		return
	}
	c.JSON(http.StatusCreated, discount)
}

func (h *DiscountHandler) GetDiscounts(c *gin.Context) {
	var filters models.DiscountFilters
	if !bindQuery(c, &filters, "GetDiscounts") {
		return
	}
	discounts, total, err := h.discountService.GetDiscounts(c.Request.Context(), filters)
	if err != nil {
		h.respondError(c, err, "GetDiscounts", "Failed to fetch discounts.")
		return
	}
	if discounts == nil {
		discounts = []models.Discount{}
	}
	page, pageSize := effectivePage(filters.Page, filters.PageSize)
	listResponse(c, discounts, total, page, pageSize)
}

func (h *DiscountHandler) GetDiscountByID(c *gin.Context) {
	discount, err := h.discountService.GetDiscountByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "GetDiscountByID", "Failed to fetch discount.")
		return
	}
	c.JSON(http.StatusOK, discount)
}

// PreviewDiscount shows the target's price with this discount at ?at=HH:MM (default: now).
func (h *DiscountHandler) PreviewDiscount(c *gin.Context) {
	at, ok := parseAt(c, h.now)
	if !ok {
		return
	}
	preview, err := h.discountService.PreviewDiscount(c.Request.Context(), c.Param("id"), at)
	if err != nil {
		h.respondError(c, err, "PreviewDiscount", "Failed to preview discount.")
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (h *DiscountHandler) UpdateDiscount(c *gin.Context) {
	var req services.UpdateDiscountRequest
	if !bindJSON(c, &req, "UpdateDiscount") {
		return
	}
	discount, err := h.discountService.UpdateDiscount(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "UpdateDiscount", "Failed to update discount.")
		return
	}
	c.JSON(http.StatusOK, discount)
}

func (h *DiscountHandler) DeleteDiscount(c *gin.Context) {
	if err := h.discountService.DeleteDiscount(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "DeleteDiscount", "Failed to delete discount.")
		return
	}
	c.Status(http.StatusNoContent)
}
