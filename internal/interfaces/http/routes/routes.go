package routes

import (
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/etag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/funilmetrics/funilmetrics-api/internal/application/usecases"
	"github.com/funilmetrics/funilmetrics-api/internal/config"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/repositories"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/cache"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/meta"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/observability"
	"github.com/funilmetrics/funilmetrics-api/internal/infrastructure/whatsapp"
	"github.com/funilmetrics/funilmetrics-api/internal/interfaces/http/handlers"
	"github.com/funilmetrics/funilmetrics-api/internal/interfaces/http/middleware"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *zap.Logger) {
	// Add performance middleware
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Add ETag support for efficient caching
	app.Use(etag.New())

	app.Use(middleware.PerformanceLogger(logger))

	// Infra compartilhada
	appCache := cache.New()
	metrics := observability.NewMetrics()
	locks := usecases.NewKeyedMutex()
	metaClient := meta.NewClient(cfg.MetaGraphURL, cfg.HTTPTimeout)
	whatsappClient := whatsapp.NewClient(cfg.MetaGraphURL, cfg.HTTPTimeout)

	// Repositories
	funnelRepo := repositories.NewFunnelRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	integrationRepo := repositories.NewIntegrationRepository(db)
	goalRepo := repositories.NewGoalRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	webhookLogRepo := repositories.NewWebhookLogRepository(db)

	// Use Cases
	whatsappWebhookUseCase := usecases.NewWhatsAppWebhookUseCase(integrationRepo, funnelRepo, eventRepo, appCache, locks, logger)
	hotmartWebhookUseCase := usecases.NewHotmartWebhookUseCase(integrationRepo, funnelRepo, eventRepo, appCache, locks, logger)
	whatsappMetricsUseCase := usecases.NewWhatsAppMetricsUseCase(funnelRepo, eventRepo, appCache, metrics, usecases.StaleThreshold{
		After:           cfg.StaleAfter,
		MaxInteractions: cfg.StaleMaxInteractions,
	}, logger)
	hotmartMetricsUseCase := usecases.NewHotmartMetricsUseCase(integrationRepo, funnelRepo, eventRepo, appCache, metrics)
	metaMetricsUseCase := usecases.NewMetaMetricsUseCase(integrationRepo, metaClient, appCache, metrics, logger)
	conversationUseCase := usecases.NewConversationUseCase(funnelRepo, eventRepo, integrationRepo, whatsappClient, locks, appCache, logger)
	funnelUseCase := usecases.NewFunnelUseCase(funnelRepo)
	goalUseCase := usecases.NewGoalUseCase(goalRepo, notificationRepo, whatsappMetricsUseCase, hotmartMetricsUseCase, metaMetricsUseCase, logger)
	integrationUseCase := usecases.NewIntegrationUseCase(integrationRepo, appCache)
	notificationUseCase := usecases.NewNotificationUseCase(notificationRepo)

	// Handlers
	whatsappWebhookHandler := handlers.NewWhatsAppWebhookHandler(whatsappWebhookUseCase, webhookLogRepo, cfg, metrics, logger)
	hotmartWebhookHandler := handlers.NewHotmartWebhookHandler(hotmartWebhookUseCase, webhookLogRepo, cfg, metrics, logger)
	metricsHandler := handlers.NewMetricsHandler(whatsappMetricsUseCase, hotmartMetricsUseCase, metaMetricsUseCase)
	conversationHandler := handlers.NewConversationHandler(conversationUseCase)
	funnelHandler := handlers.NewFunnelHandler(funnelUseCase)
	goalHandler := handlers.NewGoalHandler(goalUseCase)
	integrationHandler := handlers.NewIntegrationHandler(integrationUseCase, webhookLogRepo)
	notificationHandler := handlers.NewNotificationHandler(notificationUseCase)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Prometheus
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	api := app.Group("/api")

	// Webhooks (sem autenticação: as plataformas não mandam sessão)
	webhooks := api.Group("/webhooks")
	webhooks.Get("/whatsapp", whatsappWebhookHandler.Verify)
	webhooks.Post("/whatsapp", whatsappWebhookHandler.Receive)
	webhooks.Put("/whatsapp", whatsappWebhookHandler.Receive)
	webhooks.Post("/hotmart", hotmartWebhookHandler.Receive)
	webhooks.Put("/hotmart", hotmartWebhookHandler.Receive)

	// Rotas autenticadas do painel
	auth := middleware.NewAuthMiddleware(cfg.JWTSecret)
	dashboard := api.Group("/", auth)

	dashboard.Get("/whatsapp/metrics", metricsHandler.GetWhatsAppMetrics)
	dashboard.Get("/whatsapp/conversations", conversationHandler.GetConversations)
	dashboard.Post("/whatsapp/conversations/:id/messages", conversationHandler.SendMessage)

	dashboard.Get("/hotmart/metrics", metricsHandler.GetHotmartMetrics)

	dashboard.Get("/meta/metrics", metricsHandler.GetMetaMetrics)
	dashboard.Get("/meta/campaigns", metricsHandler.GetMetaCampaigns)

	dashboard.Post("/funnels", funnelHandler.CreateFunnel)
	dashboard.Get("/funnels", funnelHandler.GetFunnels)
	dashboard.Get("/funnel", funnelHandler.GetFunnel)

	dashboard.Post("/goals", goalHandler.CreateGoal)
	dashboard.Get("/goals", goalHandler.GetGoals)
	dashboard.Patch("/goals/:id", goalHandler.UpdateGoal)
	dashboard.Delete("/goals/:id", goalHandler.DeleteGoal)
	dashboard.Post("/goals/check", goalHandler.CheckGoals)

	dashboard.Post("/integrations", integrationHandler.Connect)
	dashboard.Get("/integrations/status", integrationHandler.GetStatus)
	dashboard.Delete("/integrations/:platform", integrationHandler.Disconnect)
	dashboard.Get("/webhooks/stats", integrationHandler.GetWebhookStats)

	dashboard.Get("/notifications", notificationHandler.GetNotifications)
	dashboard.Patch("/notifications/:id/read", notificationHandler.MarkRead)
	dashboard.Delete("/notifications/:id", notificationHandler.DeleteNotification)
}
