package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"smartrail-mumbai/internal/adapters/http/middleware"
	"smartrail-mumbai/internal/adapters/http/routes"
	"smartrail-mumbai/internal/adapters/persistence/models"
	"smartrail-mumbai/internal/config"
	"smartrail-mumbai/internal/core/services"

	"github.com/gofiber/fiber/v2"

	_ "smartrail-mumbai/docs" // Swagger docs
)

// @title Smart Rail Mumbai API
// @version 1.0
// @description Ticketing and live network API for Mumbai suburban rail and metro
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@smartrailmumbai.in

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host api.smartrailmumbai.in
// @BasePath /api/v1
// @schemes https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	// Seed master data (fares, stations, routes, crowd baseline)
	if err := config.SeedMasterData(db); err != nil {
		log.Printf("⚠️ Warning: Failed to seed master data: %v", err)
	}

	// Seed default admin account
	if err := config.NewSeeder(db).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to run seeders: %v", err)
	}

	// Realtime hub shared by services and the SSE endpoint
	hub := services.NewRealtimeHub()

	// Start Cron Service (crowd drift every minute, token purge 03:00)
	cronService := services.NewCronService(db, hub)
	cronService.Start()
	defer cronService.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Smart Rail Mumbai API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes (pass db and cfg for dependency injection)
	routes.Setup(app, db, cfg, hub)

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
