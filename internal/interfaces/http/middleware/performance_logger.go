package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PerformanceLogger mede o tempo de resposta das rotas críticas do
// painel e dos webhooks.
func PerformanceLogger(logger *zap.Logger) fiber.Handler {
	monitoredRoutes := []string{
		"/api/webhooks",
		"/api/whatsapp",
		"/api/hotmart",
		"/api/meta",
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()

		shouldMonitor := false
		for _, route := range monitoredRoutes {
			if strings.HasPrefix(path, route) {
				shouldMonitor = true
				break
			}
		}
		if !shouldMonitor {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		logger.Debug("📊 performance",
			zap.String("method", c.Method()),
			zap.String("path", path),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)))
		return err
	}
}
