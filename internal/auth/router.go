package auth

import (
	"eventhub/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAuthRoutes(router *gin.RouterGroup, controller *Controller) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", controller.Register)
		auth.POST("/login", controller.Login)
		auth.POST("/refresh", controller.RefreshToken)
		auth.POST("/logout", controller.Logout)
		auth.POST("/otp/request", controller.RequestOTP)
		auth.POST("/otp/verify", controller.VerifyOTP)

		protected := auth.Group("")
		protected.Use(middleware.JWTAuth())
		{
			protected.POST("/change-password", controller.ChangePassword)
		}
	}
}
