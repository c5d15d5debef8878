package handlers

import (
	"errors"
	"net/http"

	"qr_menu_backend/internal/catalog"
	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/services"
	"qr_menu_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SetHandler serves set CRUD and composition checks.
type SetHandler struct {
	setService     services.SetService
	catalogService services.CatalogService
}

// NewSetHandler creates a new SetHandler.
func NewSetHandler(ss services.SetService, cs services.CatalogService) *SetHandler {
	return &SetHandler{setService: ss, catalogService: cs}
}

func (h *SetHandler) respondError(c *gin.Context, err error, op, fallback string) {
	utils.LogError(err, op+": Error from setService", map[string]interface{}{"set_id": c.Param("id")})
	var unknown *catalog.UnknownItemError
	switch {
	case errors.Is(err, services.ErrSetNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Set not found.", err.Error()))
	case errors.As(err, &unknown):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Set references unknown menu items.", unknown.Error()))
	case errors.Is(err, models.ErrValidation):
		respondValidation(c, err)
	default:
		utils.RespondInternalError(c, fallback)
	}
}

// CreateSet validates the composition and saves the set with its items.
func (h *SetHandler) CreateSet(c *gin.Context) {
	var req services.CreateSetRequest
	if !bindJSON(c, &req, "CreateSet") {
		return
	}
	set, err := h.setService.CreateSet(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "CreateSet", "Failed to create set.")
		return
	}
	c.JSON(http.StatusCreated, set)
}

// ValidateSet runs the composition checks without saving and returns the normalized lines.
func (h *SetHandler) ValidateSet(c *gin.Context) {
	var req services.CreateSetRequest
	if !bindJSON(c, &req, "ValidateSet") {
		return
	}
	validated, err := h.catalogService.ValidateAndPrepareSet(req.Draft(), req.Items)
	if err != nil {
		h.respondError(c, err, "ValidateSet", "Failed to validate set.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"name":  validated.Draft.Name,
		"items": validated.Memberships,
	})
}

// GetSets lists sets with filters and pagination.
func (h *SetHandler) GetSets(c *gin.Context) {
	var filters models.SetFilters
	if !bindQuery(c, &filters, "GetSets") {
		return
	}
	sets, total, err := h.setService.GetSets(c.Request.Context(), filters)
	if err != nil {
		h.respondError(c, err, "GetSets", "Failed to fetch sets.")
		return
	}
	if sets == nil {
		sets = []models.ResolvedSet{}
	}
	page, pageSize := effectivePage(filters.Page, filters.PageSize)
	listResponse(c, sets, total, page, pageSize)
}

func (h *SetHandler) GetSetByID(c *gin.Context) {
	set, err := h.setService.GetSetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "GetSetByID", "Failed to fetch set.")
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *SetHandler) UpdateSet(c *gin.Context) {
	var req services.UpdateSetRequest
	if !bindJSON(c, &req, "UpdateSet") {
		return
	}
	set, err := h.setService.UpdateSet(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "UpdateSet", "Failed to update set.")
		return
	}
	c.JSON(http.StatusOK, set)
}

func (h *SetHandler) DeleteSet(c *gin.Context) {
	if err := h.setService.DeleteSet(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "DeleteSet", "Failed to delete set.")
		return
	}
	c.Status(http.StatusNoContent)
}
