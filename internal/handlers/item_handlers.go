package handlers

import (
	"errors"
	"net/http"

	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/services"
	"qr_menu_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ItemHandler holds the menu item service.
type ItemHandler struct {
	itemService services.ItemService
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(is services.ItemService) *ItemHandler {
	return &ItemHandler{itemService: is}
}

func (h *ItemHandler) respondError(c *gin.Context, err error, op, fallback string) {
	utils.LogError(err, op+": Error from itemService", map[string]interface{}{"item_id": c.Param("id")})
	switch {
	case errors.Is(err, services.ErrItemNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu item not found.", err.Error()))
	case errors.Is(err, models.ErrValidation):
		respondValidation(c, err)
	default:
		utils.RespondInternalError(c, fallback)
	}
}

// CreateItem handles the creation of a new menu item.
func (h *ItemHandler) CreateItem(c *gin.Context) {
	var req services.CreateItemRequest
	if !bindJSON(c, &req, "CreateItem") {
		return
	}
	item, err := h.itemService.CreateItem(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "CreateItem", "Failed to create menu item.")
		return
	}
	c.JSON(http.StatusCreated, item)
}

// GetItems lists menu items with filters and pagination.
func (h *ItemHandler) GetItems(c *gin.Context) {
	var filters models.ItemFilters
	if !bindQuery(c, &filters, "GetItems") {
		return
	}
	items, total, err := h.itemService.GetItems(c.Request.Context(), filters)
	if err != nil {
		h.respondError(c, err, "GetItems", "Failed to fetch menu items.")
		return
	}
	if items == nil {
		items = []models.Item{}
	}
	page, pageSize := effectivePage(filters.Page, filters.PageSize)
	listResponse(c, items, total, page, pageSize)
}

// GetItemByID handles fetching a single menu item by ID.
func (h *ItemHandler) GetItemByID(c *gin.Context) {
	item, err := h.itemService.GetItemByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "GetItemByID", "Failed to fetch menu item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

// UpdateItem handles updating a menu item.
func (h *ItemHandler) UpdateItem(c *gin.Context) {
	var req services.UpdateItemRequest
	if !bindJSON(c, &req, "UpdateItem") {
		return
	}
	item, err := h.itemService.UpdateItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err, "UpdateItem", "Failed to update menu item.")
		return
	}
	c.JSON(http.StatusOK, item)
}

// DeleteItem handles deleting a menu item.
func (h *ItemHandler) DeleteItem(c *gin.Context) {
	if err := h.itemService.DeleteItem(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "DeleteItem", "Failed to delete menu item.")
		return
	}
	c.Status(http.StatusNoContent)
}
