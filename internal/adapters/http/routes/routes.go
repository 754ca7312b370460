package routes

import (
	"time"

	"smartrail-mumbai/internal/adapters/http/handlers"
	"smartrail-mumbai/internal/adapters/http/middleware"
	"smartrail-mumbai/internal/adapters/persistence/repositories"
	"smartrail-mumbai/internal/config"
	"smartrail-mumbai/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config, hub *services.RealtimeHub) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	ticketRepo := repositories.NewTicketRepository(db)
	transitRepo := repositories.NewTransitRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	ticketService := services.NewTicketService(ticketRepo, hub)
	scanService := services.NewScanService(ticketService, services.NewRemoteCaptureProvider())
	routeService := services.NewRouteService(transitRepo)
	crowdService := services.NewCrowdService(transitRepo, hub)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	ticketHandler := handlers.NewTicketHandler(ticketService)
	scanHandler := handlers.NewScanHandler(scanService)
	transitHandler := handlers.NewTransitHandler(routeService, crowdService, transitRepo)
	adminHandler := handlers.NewAdminHandler(ticketService, crowdService)
	realtimeHandler := handlers.NewRealtimeHandler(hub)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public + protected)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Ticket routes (authenticated commuters)
	ticketRoutes := apiV1.Group("/tickets")
	ticketRoutes.Use(middleware.AuthMiddleware(cfg))
	setupTicketRoutes(ticketRoutes, ticketHandler)

	// Scan routes (gate operators — admin role)
	scanRoutes := apiV1.Group("/scan")
	scanRoutes.Use(middleware.AuthMiddleware(cfg))
	scanRoutes.Use(middleware.AdminOnly())
	setupScanRoutes(scanRoutes, scanHandler)

	// Transit routes (public network info)
	transitRoutes := apiV1.Group("/transit")
	setupTransitRoutes(transitRoutes, transitHandler)

	// Admin routes (admin only)
	adminRoutes := apiV1.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	setupAdminRoutes(adminRoutes, adminHandler)

	// Realtime event stream (auth optional — anonymous clients still get
	// crowd updates and alerts)
	apiV1.Get("/events", middleware.OptionalAuth(cfg), realtimeHandler.Events)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes (stricter rate limit against credential stuffing)
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupTicketRoutes configures ticket lifecycle routes
func setupTicketRoutes(router fiber.Router, handler *handlers.TicketHandler) {
	router.Post("/", handler.Purchase)
	router.Get("/my", middleware.PrivateCacheHeaders(10*time.Second), handler.GetMyTickets)
	router.Get("/active", middleware.PrivateCacheHeaders(10*time.Second), handler.GetActiveTickets)
	router.Get("/:id", handler.GetByID)
	router.Get("/:id/qr.png", middleware.NoCacheHeaders(), handler.QRImage)

	// Direct validation for fixed gate readers (admin role enforced per-route)
	router.Post("/validate", middleware.AdminOnly(), middleware.ScanRateLimiter(), handler.Validate)
}

// setupScanRoutes configures gate scan session routes
func setupScanRoutes(router fiber.Router, handler *handlers.ScanHandler) {
	router.Post("/sessions", handler.Open)
	router.Get("/sessions/:id", handler.Status)
	router.Post("/sessions/:id/decode", middleware.ScanRateLimiter(), handler.Decode)
	router.Post("/sessions/:id/manual", middleware.ScanRateLimiter(), handler.Manual)
	router.Post("/sessions/:id/again", handler.ScanAgain)
	router.Delete("/sessions/:id", handler.Close)
}

// setupTransitRoutes configures public network info routes
func setupTransitRoutes(router fiber.Router, handler *handlers.TransitHandler) {
	// Master data changes rarely — cache for an hour
	router.Get("/lines", middleware.MasterDataCache(), handler.GetLines)
	router.Get("/stations", middleware.MasterDataCache(), handler.GetStations)
	router.Get("/fares", middleware.MasterDataCache(), handler.GetFareTypes)
	router.Get("/routes", middleware.MasterDataCache(), handler.GetRoutes)

	// Live data — never cache
	router.Get("/routes/suggestions", middleware.NoCacheHeaders(), handler.GetRouteSuggestions)
	router.Get("/crowd", middleware.NoCacheHeaders(), handler.GetCrowdData)
	router.Get("/crowd/trains/:train_number", middleware.NoCacheHeaders(), handler.GetTrainCrowd)
	router.Get("/alerts", middleware.NoCacheHeaders(), handler.GetActiveAlerts)
}

// setupAdminRoutes configures admin dashboard routes
func setupAdminRoutes(router fiber.Router, handler *handlers.AdminHandler) {
	router.Get("/stats", handler.GetStats)
	router.Get("/tickets", handler.ListTickets)
	router.Post("/alerts", handler.CreateAlert)
}
