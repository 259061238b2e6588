package controllers

import (
	"context"
	"net/http"

	"Campfire/models"
	"Campfire/utils"

	"github.com/gin-gonic/gin"
)

type PreferenceStore interface {
	SavePreferences(ctx context.Context, req models.SavePreferencesRequest) (int, error)
	GetHistory(ctx context.Context, userName string) ([]models.HistoryEntry, error)
}

type UserController struct {
	UserService PreferenceStore
}

func NewUserController(svc PreferenceStore) *UserController {
	return &UserController{UserService: svc}
}

func (h *UserController) SavePreferences(c *gin.Context) {
	var req models.SavePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(utils.BadRequest("Invalid request body"))
		return
	}

	saved, err := h.UserService.SavePreferences(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Preferences saved successfully", gin.H{"saved": saved})
}

// GetHistory lists the user's restaurants with their current label
func (h *UserController) GetHistory(c *gin.Context) {
	history, err := h.UserService.GetHistory(c.Request.Context(), c.Query("name"))
	if err != nil {
		c.Error(err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "History fetched successfully", gin.H{"history": history})
}
