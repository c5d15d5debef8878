package handlers

import (
	"net/http"
	"strings"

	"qr_menu_backend/internal/models"
	"qr_menu_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// bindJSON binds the body into req and writes the 400 response itself on failure.
func bindJSON(c *gin.Context, req interface{}, op string) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.LogError(err, op+": Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, filters interface{}, op string) bool {
	if err := c.ShouldBindQuery(filters); err != nil {
		utils.LogError(err, op+": Failed to bind query")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Invalid query parameters.", err.Error()))
		return false
	}
	return true
}

// parseAt reads the optional ?at=HH:MM parameter, falling back to now.
func parseAt(c *gin.Context, now func() models.TimeOfDay) (models.TimeOfDay, bool) {
	raw := strings.TrimSpace(c.Query("at"))
	if raw == "" {
		return now(), true
	}
	at, err := models.ParseTimeOfDay(raw)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Query parameter 'at' must be HH:MM.", err.Error()))
		return 0, false
	}
	return at, true
}

func respondValidation(c *gin.Context, err error) {
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
}

func listResponse(c *gin.Context, data interface{}, total, page, pageSize int) {
	c.JSON(http.StatusOK, gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// effectivePage mirrors the defaults the services apply, for echoing back in list responses.
func effectivePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
