package handlers

import (
	"Campfire/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRecommendationRoutes(router *gin.RouterGroup, recommendationController *controllers.RecommendationController) {
	router.POST("/recommendations", recommendationController.GetRecommendations)
}
