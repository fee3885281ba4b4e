package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/funilmetrics/funilmetrics-api/internal/config"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/database"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/observability"
	"github.com/funilmetrics/funilmetrics-api/internal/interfaces/http/middleware"
	"github.com/funilmetrics/funilmetrics-api/internal/interfaces/http/routes"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, using system environment variables")
	}

	cfg := config.Load()

	logger := observability.NewLogger(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	// Initialize database
	db, err := database.SetupDatabase()
	if err != nil {
		logger.Fatal("❌ Error setting up database", zap.Error(err))
	}

	// Configure Fiber for better performance
	app := fiber.New(fiber.Config{
		Concurrency: 256 * 1024,
		// Desabilitado modo Prefork pois causa instabilidade no container
		Prefork: false,
		// Set reasonable body limit
		BodyLimit:    10 * 1024 * 1024, // 10MB
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	// Setup middleware
	middleware.SetupMiddlewares(app)

	// Setup routes
	routes.SetupRoutes(app, db, cfg, logger)

	logger.Info("🚀 Server is running", zap.String("port", cfg.Port))
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("❌ server stopped", zap.Error(err))
	}
}
