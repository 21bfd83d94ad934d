package bookings

import (
	"eventhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(router *gin.RouterGroup, controller *Controller) {
	// Authenticated booking routes
	bookings := router.Group("/bookings")
	bookings.Use(middleware.JWTAuth())
	{
		bookings.POST("", controller.CreateBooking)
		bookings.GET("", controller.GetMyBookings)
		bookings.GET("/ref/:ref", controller.GetBookingByRef)
		bookings.GET("/:id", controller.GetBooking)
		bookings.POST("/:id/cancel", controller.CancelBooking)
	}

	// Admin booking management
	admin := router.Group("/admin/bookings")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.GET("", controller.GetAllBookings)
		admin.POST("/:id/attended", controller.MarkAttended)
		admin.POST("/:id/cancel", controller.CancelBooking)
	}
}
