package route

import (
	"net/http"

	"Campfire/controllers"
	"Campfire/handlers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controllers bundles everything RegisterRoutes mounts
type Controllers struct {
	Recommendation *controllers.RecommendationController
	User           *controllers.UserController
	Restaurant     *controllers.RestaurantController
	Feedback       *controllers.FeedbackController
}

// RegisterRoutes initializes all routes
func RegisterRoutes(router *gin.Engine, ctrl Controllers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// older clients still post here
	router.POST("/get_recommendations", ctrl.Recommendation.GetRecommendations)

	v1Routes := router.Group("/v1")
	{
		handlers.RegisterRecommendationRoutes(v1Routes, ctrl.Recommendation)
		handlers.RegisterUserRoutes(v1Routes, ctrl.User)
		handlers.RegisterRestaurantRoutes(v1Routes, ctrl.Restaurant)
		handlers.RegisterFeedbackRoutes(v1Routes, ctrl.Feedback)
	}
}
