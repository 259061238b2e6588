package handlers

import (
	"Campfire/controllers"

	"github.com/gin-gonic/gin"
)

// RegisterUserRoutes sets up the preference routes
func RegisterUserRoutes(router *gin.RouterGroup, userController *controllers.UserController) {
	preferenceGroup := router.Group("/preferences")
	{
		preferenceGroup.POST("", userController.SavePreferences)
		preferenceGroup.GET("", userController.GetHistory)
	}
}
