package events

import (
	"eventhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller *Controller) {
	// Public discovery routes
	events := router.Group("/events")
	{
		events.GET("", controller.GetEvents)
		events.GET("/upcoming", controller.GetUpcomingEvents)
		events.GET("/featured", controller.GetFeaturedEvents)
		events.GET("/:id", controller.GetEvent)
	}

	// Category browsing, nested under the public categories group
	router.GET("/categories/:slug/events", controller.GetEventsByCategory)

	// Admin event management
	admin := router.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("/events", controller.CreateEvent)
		admin.PUT("/events/:id", controller.UpdateEvent)
		admin.DELETE("/events/:id", controller.DeleteEvent)
		admin.GET("/stats", controller.GetStats)
	}
}
