package controllers

import (
	"context"
	"net/http"

	"Campfire/models"
	"Campfire/services"
	"Campfire/utils"

	"github.com/gin-gonic/gin"
)

// Recommender is the part of services.RecommendationService the controller needs
type Recommender interface {
	GetRecommendations(ctx context.Context, req models.RecommendationRequest) (*services.RecommendationResult, error)
}

type RecommendationController struct {
	RecommendationService Recommender
}

func NewRecommendationController(svc Recommender) *RecommendationController {
	return &RecommendationController{RecommendationService: svc}
}

func (h *RecommendationController) GetRecommendations(c *gin.Context) {
	var req models.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(utils.BadRequest("Invalid request body"))
		return
	}

	result, err := h.RecommendationService.GetRecommendations(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	if len(result.Recommendations) == 0 {
		utils.SuccessResponse(c, http.StatusOK, "No recommendations available", result)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Recommendations generated successfully", result)
}
