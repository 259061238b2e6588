package main

import (
	"context"
	"os"
	"time"

	"Campfire/config/database"
	"Campfire/config/environment"
	"Campfire/controllers"
	"Campfire/logging"
	"Campfire/middleware"
	v1 "Campfire/routes/v1"
	"Campfire/services"
	"Campfire/services/places"
	"Campfire/services/ranking"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration (defaults, config.yaml, .env, environment)
	cfg, err := environment.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: os.Stderr})
	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}

	ctx := context.Background()

	db, err := database.OpenDatabase(cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Database init failed")
	}

	provider, err := places.New(cfg.Places, cfg.Breaker)
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Places provider init failed")
	}

	client, err := ranking.NewClient(ctx, cfg.Ranking)
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Ranking client init failed")
	}
	ranker := ranking.NewRanker(client, cfg.Ranking, cfg.Breaker)

	//firebase init, the feedback board answers 503 without it
	firestoreClient, err := database.InitFirestore(ctx, cfg.Firebase)
	if err != nil {
		logging.Fatal().Err(err).Msg("❌ Firebase init failed")
	}
	if firestoreClient != nil {
		defer firestoreClient.Close()
	}

	identity := services.NewIdentityService(provider)
	recommendationService := services.NewRecommendationService(
		db,
		identity,
		services.NewCandidateService(provider, identity, cfg.Recommend, cfg.Places),
		services.NewFilterService(cfg.Recommend),
		services.NewRankingService(ranker, identity, cfg.Ranking),
		cfg.Recommend,
	)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	// Global error handler
	r.Use(middleware.ErrorHandlerMiddleware())

	// CORS Middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))

	// Register all routes
	v1.RegisterRoutes(r, v1.Controllers{
		Recommendation: controllers.NewRecommendationController(recommendationService),
		User:           controllers.NewUserController(services.NewUserService(db)),
		Restaurant:     controllers.NewRestaurantController(services.NewRestaurantService(db, provider)),
		Feedback:       controllers.NewFeedbackController(services.NewFeedbackService(firestoreClient)),
	})

	logging.Info().
		Str("places", provider.Name()).
		Str("ranking", cfg.Ranking.Provider).
		Msgf("🚀 Server running on http://localhost:%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logging.Fatal().Err(err).Msg("❌ Server stopped")
	}
}
