package router

import (
	"qr_menu_backend/internal/handlers"
	"qr_menu_backend/internal/middleware"
	"qr_menu_backend/internal/models"
	"qr_menu_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// SetupPublicRoutes sets up the routes reachable without a token.
func SetupPublicRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler, catalogHandler *handlers.CatalogHandler, tokens *utils.TokenManager) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.LoginUser)
		// Anonymous for the first account; an admin token is required afterwards.
		authRoutes.POST("/register", middleware.OptionalAuthMiddleware(tokens), authHandler.RegisterUser)
	}
	apiGroup.GET("/menu/:code", catalogHandler.GetPublicMenu)
}

// SetupAuthenticatedAuthRoutes sets up the auth routes that need a token.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/logout", authHandler.LogoutUser)
	group.GET("/me", authHandler.GetCurrentUser)
}

// SetupItemRoutes sets up the menu item routes.
func SetupItemRoutes(authenticatedGroup *gin.RouterGroup, itemHandler *handlers.ItemHandler) {
	itemRoutes := authenticatedGroup.Group("/items")
	itemRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		itemRoutes.POST("", itemHandler.CreateItem)
		itemRoutes.GET("", itemHandler.GetItems)
		itemRoutes.GET("/:id", itemHandler.GetItemByID)
		itemRoutes.PUT("/:id", itemHandler.UpdateItem)
		itemRoutes.DELETE("/:id", itemHandler.DeleteItem)
	}
}

// SetupSetRoutes sets up the set routes.
func SetupSetRoutes(authenticatedGroup *gin.RouterGroup, setHandler *handlers.SetHandler) {
	setRoutes := authenticatedGroup.Group("/sets")
	setRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		setRoutes.POST("", setHandler.CreateSet)
		setRoutes.POST("/validate", setHandler.ValidateSet)
		setRoutes.GET("", setHandler.GetSets)
		setRoutes.GET("/:id", setHandler.GetSetByID)
		setRoutes.PUT("/:id", setHandler.UpdateSet)
		setRoutes.DELETE("/:id", setHandler.DeleteSet)
	}
}

// SetupDiscountRoutes sets up the discount routes.
func SetupDiscountRoutes(authenticatedGroup *gin.RouterGroup, discountHandler *handlers.DiscountHandler) {
	discountRoutes := authenticatedGroup.Group("/discounts")
	discountRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		discountRoutes.POST("", discountHandler.CreateDiscount)
		discountRoutes.GET("", discountHandler.GetDiscounts)
		discountRoutes.GET("/:id", discountHandler.GetDiscountByID)
		discountRoutes.GET("/:id/preview", discountHandler.PreviewDiscount)
		discountRoutes.PUT("/:id", discountHandler.UpdateDiscount)
		discountRoutes.DELETE("/:id", discountHandler.DeleteDiscount)
	}
}

// SetupCatalogRoutes sets up the priced catalog preview.
func SetupCatalogRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	catalogRoutes := authenticatedGroup.Group("/catalog")
	catalogRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		catalogRoutes.GET("/priced", catalogHandler.GetPricedCatalog)
	}
}

// SetupQRCodeRoutes sets up the QR code manager routes.
func SetupQRCodeRoutes(authenticatedGroup *gin.RouterGroup, qrHandler *handlers.QRCodeHandler) {
	qrRoutes := authenticatedGroup.Group("/qr-codes")
	qrRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		qrRoutes.POST("", qrHandler.GenerateQRCode)
		qrRoutes.GET("", qrHandler.GetQRCodes)
		qrRoutes.GET("/latest", qrHandler.GetLatestQRCode)
		qrRoutes.GET("/latest/image.png", qrHandler.GetLatestQRCodeImage)
	}
}

// SetupDashboardRoutes sets up the dashboard routes.
func SetupDashboardRoutes(authenticatedGroup *gin.RouterGroup, dashboardHandler *handlers.DashboardHandler) {
	dashboardRoutes := authenticatedGroup.Group("/dashboard")
	dashboardRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		dashboardRoutes.GET("/summary", dashboardHandler.GetSummary)
	}
}
