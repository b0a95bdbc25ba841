package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"safety-tracker/internal/controllers"
	"safety-tracker/internal/services"
)

func runAuthRouter(api *echo.Group, authService services.AuthServiceInterface, secureCookies bool, logger *zap.Logger) {
	authCtrl := controllers.NewAuthController(authService, secureCookies, logger)

	api.GET("", authCtrl.Root)
	api.GET("/", authCtrl.Root)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authCtrl.Login)
		authGroup.POST("/admin/login", authCtrl.AdminLogin)
		authGroup.POST("/logout", authCtrl.Logout)
		authGroup.GET("/me", authCtrl.Me)
	}
}
