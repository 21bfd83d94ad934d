package categories

import (
	"eventhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupCategoryRoutes(router *gin.RouterGroup, controller Controller) {
	// Public routes - categories drive discovery browsing
	publicCategories := router.Group("/categories")
	{
		publicCategories.GET("", controller.GetAllCategories)
		publicCategories.GET("/:slug", controller.GetCategory)
	}

	// Admin routes - category management
	adminCategories := router.Group("/admin/categories")
	adminCategories.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminCategories.POST("", controller.CreateCategory)
		adminCategories.PUT("/:id", controller.UpdateCategory)
		adminCategories.DELETE("/:id", controller.DeleteCategory)
	}
}
