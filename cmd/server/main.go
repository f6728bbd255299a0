package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"tripreco/internal/api"
	"tripreco/internal/api/handlers"
	"tripreco/internal/clients/geocoding"
	"tripreco/internal/cluster"
	"tripreco/internal/config"
	"tripreco/internal/logging"
	"tripreco/internal/repository/csvstore"
	"tripreco/internal/repository/memory"
	"tripreco/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log := logging.Component("main")

	// Initialize repositories
	tables := csvstore.NewStore(cfg.Data)
	inputPath := cfg.Data.InputLog
	if !filepath.IsAbs(inputPath) {
		inputPath = filepath.Join(cfg.Data.Dir, inputPath)
	}
	inputLog := csvstore.NewInputLog(inputPath)

	sessions := memory.NewSessionRepository()
	if cfg.Session.Seed != 0 {
		sessions = memory.NewSeededSessionRepository(cfg.Session.Seed)
	}
	if cfg.Session.IdleTTL > 0 {
		sessions.Expire(cfg.Session.IdleTTL, cfg.Session.SweepInterval)
	}
	defer sessions.Stop()
	lockManager := memory.NewLockManager(time.Minute)
	defer lockManager.Stop()

	// The cluster model is optional: without it the plan and cluster
	// endpoints answer 503 and everything else keeps working.
	var model cluster.Model
	if m, err := cluster.Load(cfg.Cluster.ModelPath); err != nil {
		log.Warn().Err(err).Str("path", cfg.Cluster.ModelPath).Msg("cluster model not loaded")
	} else {
		model = m
	}

	if cfg.Geocoding.APIKey == "" {
		log.Warn().Msg("geocoding.api_key is empty; geocoding requests will be rejected upstream")
	}
	geocoder := geocoding.NewClient(cfg.Geocoding)

	// Initialize services
	clusterService := services.NewClusterService(tables, model)
	activityService := services.NewActivityService(tables)
	lodgingService := services.NewLodgingService(tables)
	foodService := services.NewFoodService(tables, geocoder, cfg.Recommend.FoodTopN)
	transportService := services.NewTransportService(tables)
	itineraryService := services.NewItineraryService(
		cfg,
		geocoder,
		clusterService,
		activityService,
		lodgingService,
		foodService,
		inputLog,
		lockManager,
	)

	// Initialize handlers
	itineraryHandler := handlers.NewItineraryHandler(itineraryService, clusterService)
	activityHandler := handlers.NewActivityHandler(activityService, cfg.Recommend)
	placeHandler := handlers.NewPlaceHandler(lodgingService, foodService, transportService, cfg.Recommend)
	sessionHandler := handlers.NewSessionHandler(sessions)

	// Setup router
	router := api.NewRouter(itineraryHandler, activityHandler, placeHandler, sessionHandler, sessions, cfg.Session.Header)

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	router.Setup(engine)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Port).Str("data_dir", cfg.Data.Dir).Msg("starting trip recommendation server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return
	}
	log.Info().Msg("server stopped")
}
