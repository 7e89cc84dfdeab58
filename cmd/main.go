package main

import (
	"net/http"

	"agritrade/internal/handler"
	"agritrade/internal/job"
	mid "agritrade/internal/middleware"
	"agritrade/internal/service"
	"agritrade/pkg/config"
	"agritrade/pkg/database"
	"agritrade/pkg/jwtutil"
	"agritrade/pkg/logger"
	"agritrade/prometheus"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Just log a warning, don't fail if .env file is not found
		// This allows the service to run in environments where env vars are set differently
		// such as production environments with proper environment configuration
		// The fallback values will be used in case env vars are not set
	}

	// Load configuration
	appConfig, err := config.Load("agritrade")
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting agritrade",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(appConfig)
	log.Info("JWT utility initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	err = database.InitDB(appConfig)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")
	db := database.GetDB()

	// Wire services
	notifier := &service.LogNotifier{Log: log}
	requirements := service.NewRequirementService(db)
	supplies := service.NewSupplyService(db, appConfig.Trade.FreightRatePerTonKm)
	deals := service.NewDealService(db, appConfig.Trade.FreightRatePerTonKm)
	negotiations := service.NewNegotiationService(db, notifier)
	contracts := service.NewContractService(db, &service.TextRenderer{}, notifier)
	milestones := service.NewMilestoneService(db, notifier)
	seals := service.NewSealService(db)

	requirementHandler := handler.NewRequirementHandler(requirements)
	supplyHandler := handler.NewSupplyHandler(supplies)
	dealHandler := handler.NewDealHandler(deals)
	negotiationHandler := handler.NewNegotiationHandler(negotiations)
	contractHandler := handler.NewContractHandler(contracts)
	milestoneHandler := handler.NewMilestoneHandler(milestones)
	sealHandler := handler.NewSealHandler(seals)

	// Background expiry sweep
	sweeper, err := job.StartExpirySweep(appConfig, db)
	if err != nil {
		log.Fatal("Failed to start expiry sweep", zap.Error(err))
	}
	defer sweeper.Stop()
	log.Info("Listing expiry sweep scheduled",
		zap.String("spec", appConfig.Trade.ExpirySweepSpec))

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Routes
	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Hall pages are public; an attached token personalizes distance and
	// delivered-price columns.
	hall := e.Group("/api", mid.OptionalAuthMiddleware)
	hall.GET("/requirements", requirementHandler.List)
	hall.GET("/requirements/:id", requirementHandler.Get)
	hall.GET("/supplies", supplyHandler.List)
	hall.GET("/supplies/:id", supplyHandler.Get)

	// Requirement API routes
	requirementAPI := e.Group("/api/requirements", mid.AuthMiddleware)
	requirementAPI.POST("", requirementHandler.Create)
	requirementAPI.PUT("/:id", requirementHandler.Update)
	requirementAPI.POST("/:id/withdraw", requirementHandler.Withdraw)
	requirementAPI.DELETE("/:id", requirementHandler.Delete)
	requirementAPI.GET("/:id/deals", dealHandler.ListByRequirement)

	// Supply API routes
	supplyAPI := e.Group("/api/supplies", mid.AuthMiddleware)
	supplyAPI.POST("", supplyHandler.Create)
	supplyAPI.PUT("/:id", supplyHandler.Update)
	supplyAPI.POST("/:id/withdraw", supplyHandler.Withdraw)
	supplyAPI.DELETE("/:id", supplyHandler.Delete)

	// Deal API routes
	dealAPI := e.Group("/api/deals", mid.AuthMiddleware)
	dealAPI.POST("", dealHandler.Confirm)
	dealAPI.GET("/:id", dealHandler.Get)

	// Negotiation API routes
	negotiationAPI := e.Group("/api/negotiations", mid.AuthMiddleware)
	negotiationAPI.POST("", negotiationHandler.Create)
	negotiationAPI.GET("", negotiationHandler.List)
	negotiationAPI.GET("/:id", negotiationHandler.Get)
	negotiationAPI.POST("/:id/accept", negotiationHandler.Accept)
	negotiationAPI.POST("/:id/decline", negotiationHandler.Decline)

	// Contract API routes
	contractAPI := e.Group("/api/contracts", mid.AuthMiddleware)
	contractAPI.POST("", contractHandler.CreateDraft)
	contractAPI.POST("/from-negotiation", contractHandler.CreateFromNegotiation)
	contractAPI.GET("", contractHandler.List)
	contractAPI.GET("/:id", contractHandler.Get)
	contractAPI.PUT("/:id", contractHandler.Update)
	contractAPI.DELETE("/:id", contractHandler.Delete)
	contractAPI.POST("/:id/cancel", contractHandler.Cancel)
	contractAPI.POST("/:id/send", contractHandler.SendForSigning)
	contractAPI.POST("/:id/sign", contractHandler.Sign)
	contractAPI.GET("/:id/document", contractHandler.Render)
	contractAPI.GET("/:id/changelog", contractHandler.ChangeLog)
	contractAPI.POST("/:id/milestones", milestoneHandler.Add)
	contractAPI.GET("/:id/milestones", milestoneHandler.List)

	// Milestone API routes
	milestoneAPI := e.Group("/api/milestones", mid.AuthMiddleware)
	milestoneAPI.POST("/:id/submit", milestoneHandler.Submit)
	milestoneAPI.POST("/:id/confirm", milestoneHandler.Confirm)
	milestoneAPI.POST("/:id/reject", milestoneHandler.Reject)
	milestoneAPI.DELETE("/:id", milestoneHandler.Delete)

	// Seal API routes
	sealAPI := e.Group("/api/seals", mid.AuthMiddleware)
	sealAPI.POST("", sealHandler.Create)
	sealAPI.GET("", sealHandler.List)
	sealAPI.DELETE("/:id", sealHandler.Delete)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
