package handlers

import (
	"net/http"

	"qr_menu_backend/internal/services"
	"qr_menu_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(ds services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: ds}
}

func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary, err := h.dashboardService.GetSummary(c.Request.Context())
	if err != nil {
		utils.LogError(err, "GetSummary: Error from dashboardService")
		utils.RespondInternalError(c, "Failed to build dashboard summary.")
		return
	}
	c.JSON(http.StatusOK, summary)
}
