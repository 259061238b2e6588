package controllers

import (
	"context"
	"net/http"
	"strconv"

	"Campfire/models"
	"Campfire/services"
	"Campfire/utils"

	"github.com/gin-gonic/gin"
)

type RestaurantFinder interface {
	GetRestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error)
	GetNearbyRestaurants(ctx context.Context, latitude, longitude, radiusKm float64) ([]services.NearbyRestaurant, error)
	Autocomplete(ctx context.Context, query, city string) ([]models.PlaceSuggestion, error)
}

type RestaurantController struct {
	RestaurantService RestaurantFinder
}

func NewRestaurantController(svc RestaurantFinder) *RestaurantController {
	return &RestaurantController{RestaurantService: svc}
}

func (s *RestaurantController) GetNearbyRestaurants(c *gin.Context) {
	//the latitude and longitude is from query
	latitude, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		c.Error(utils.BadRequest("Invalid latitude"))
		return
	}

	longitude, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		c.Error(utils.BadRequest("Invalid longitude"))
		return
	}

	var radius float64
	if raw := c.Query("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			c.Error(utils.BadRequest("Invalid radius"))
			return
		}
	}

	restaurants, err := s.RestaurantService.GetNearbyRestaurants(c.Request.Context(), latitude, longitude, radius)
	if err != nil {
		c.Error(err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Restaurants fetched successfully", restaurants)
}

func (s *RestaurantController) GetRestaurantBySlug(c *gin.Context) {
	restaurant, err := s.RestaurantService.GetRestaurantBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.Error(err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Restaurant fetched successfully", restaurant)
}

func (s *RestaurantController) Autocomplete(c *gin.Context) {
	suggestions, err := s.RestaurantService.Autocomplete(c.Request.Context(), c.Query("query"), c.Query("city"))
	if err != nil {
		c.Error(err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Suggestions fetched successfully", gin.H{"predictions": suggestions})
}
