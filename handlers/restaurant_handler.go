package handlers

import (
	"Campfire/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRestaurantRoutes(router *gin.RouterGroup, restaurantController *controllers.RestaurantController) {
	router.GET("/places/autocomplete", restaurantController.Autocomplete)

	restaurantGroup := router.Group("/restaurants")
	{
		restaurantGroup.GET("/nearby", restaurantController.GetNearbyRestaurants)
		restaurantGroup.GET("/:slug", restaurantController.GetRestaurantBySlug)
	}
}
