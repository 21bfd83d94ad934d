package users

import (
	"eventhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupUserRoutes(router *gin.RouterGroup, controller Controller) {
	// Authenticated self-service profile routes
	me := router.Group("/users/me")
	me.Use(middleware.JWTAuth())
	{
		me.GET("", controller.GetMe)
		me.PUT("", controller.UpdateMe)
	}

	// Admin user management
	adminUsers := router.Group("/admin/users")
	adminUsers.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		adminUsers.GET("", controller.GetAllUsers)
		adminUsers.PUT("/:id/role", controller.UpdateUserRole)
		adminUsers.DELETE("/:id", controller.DeleteUser)
	}
}
