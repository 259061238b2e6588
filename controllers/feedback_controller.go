package controllers

import (
	"context"
	"net/http"

	"Campfire/models"
	"Campfire/utils"

	"github.com/gin-gonic/gin"
)

type FeedbackBoard interface {
	ListSuggestions(ctx context.Context, userName string) ([]models.Suggestion, error)
	CreateSuggestion(ctx context.Context, req models.CreateSuggestionRequest) (*models.Suggestion, error)
	Vote(ctx context.Context, req models.VoteRequest) (*models.VoteResult, error)
}

type FeedbackController struct {
	FeedbackService FeedbackBoard
}

func NewFeedbackController(svc FeedbackBoard) *FeedbackController {
	return &FeedbackController{FeedbackService: svc}
}

func (h *FeedbackController) ListSuggestions(c *gin.Context) {
	suggestions, err := h.FeedbackService.ListSuggestions(c.Request.Context(), c.Query("user_name"))
	if err != nil {
		c.Error(err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Suggestions fetched successfully", gin.H{"suggestions": suggestions})
}

func (h *FeedbackController) CreateSuggestion(c *gin.Context) {
	var req models.CreateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(utils.BadRequest("User name and content are required"))
		return
	}

	suggestion, err := h.FeedbackService.CreateSuggestion(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Suggestion created successfully", suggestion)
}

func (h *FeedbackController) Vote(c *gin.Context) {
	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(utils.BadRequest("Invalid vote"))
		return
	}

	result, err := h.FeedbackService.Vote(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Vote recorded", result)
}
