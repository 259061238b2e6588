package handlers

import (
	"Campfire/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterFeedbackRoutes(router *gin.RouterGroup, feedbackController *controllers.FeedbackController) {
	feedbackGroup := router.Group("/feedback")
	{
		feedbackGroup.GET("", feedbackController.ListSuggestions)
		feedbackGroup.POST("", feedbackController.CreateSuggestion)
		feedbackGroup.POST("/vote", feedbackController.Vote)
	}
}
