package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"qr_menu_backend/internal/models"
	"qr_menu_backend/internal/services"
	"qr_menu_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// QRCodeHandler serves the QR code manager.
type QRCodeHandler struct {
	qrService services.QRCodeService
}

func NewQRCodeHandler(qs services.QRCodeService) *QRCodeHandler {
	return &QRCodeHandler{qrService: qs}
}

func (h *QRCodeHandler) respondError(c *gin.Context, err error, op, fallback string) {
	utils.LogError(err, op+": Error from qrService")
	if errors.Is(err, services.ErrQRCodeNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No QR code has been generated yet.", err.Error()))
		return
	}
	utils.RespondInternalError(c, fallback)
}

// GenerateQRCode creates a new QR code, which becomes the active menu code.
func (h *QRCodeHandler) GenerateQRCode(c *gin.Context) {
	qr, err := h.qrService.GenerateQRCode(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "GenerateQRCode", "Failed to generate QR code.")
		return
	}
	c.JSON(http.StatusCreated, qr)
}

func (h *QRCodeHandler) GetQRCodes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	page, pageSize = effectivePage(page, pageSize)

	codes, total, err := h.qrService.GetQRCodes(c.Request.Context(), page, pageSize)
	if err != nil {
		h.respondError(c, err, "GetQRCodes", "Failed to fetch QR codes.")
		return
	}
	if codes == nil {
		codes = []models.QRCode{}
	}
	listResponse(c, codes, total, page, pageSize)
}

func (h *QRCodeHandler) GetLatestQRCode(c *gin.Context) {
	qr, err := h.qrService.GetLatestQRCode(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "GetLatestQRCode", "Failed to fetch QR code.")
		return
	}
	c.JSON(http.StatusOK, qr)
}

// GetLatestQRCodeImage renders the latest menu URL as a PNG.
func (h *QRCodeHandler) GetLatestQRCodeImage(c *gin.Context) {
	png, qr, err := h.qrService.RenderLatestPNG(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "GetLatestQRCodeImage", "Failed to render QR code.")
		return
	}
	if c.Query("download") != "" {
		c.Header("Content-Disposition", `attachment; filename="`+qr.Code+`.png"`)
	}
	c.Data(http.StatusOK, "image/png", png)
}
