package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/funilmetrics/funilmetrics-api/internal/application/usecases"
)

// MetricsHandler serve as métricas agregadas das três plataformas para
// os cards do painel.
type MetricsHandler struct {
	whatsapp usecases.WhatsAppMetricsUseCase
	hotmart  usecases.HotmartMetricsUseCase
	meta     usecases.MetaMetricsUseCase
}

func NewMetricsHandler(
	whatsapp usecases.WhatsAppMetricsUseCase,
	hotmart usecases.HotmartMetricsUseCase,
	meta usecases.MetaMetricsUseCase,
) *MetricsHandler {
	return &MetricsHandler{whatsapp, hotmart, meta}
}

func (h *MetricsHandler) GetWhatsAppMetrics(c *fiber.Ctx) error {
	metrics, err := h.whatsapp.GetMetrics(UserID(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(metrics)
}

func (h *MetricsHandler) GetHotmartMetrics(c *fiber.Ctx) error {
	metrics, err := h.hotmart.GetMetrics(UserID(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(metrics)
}

func (h *MetricsHandler) GetMetaMetrics(c *fiber.Ctx) error {
	period := c.Query("period", "30d")
	campaignID := c.Query("campaignId")

	metrics, err := h.meta.GetMetrics(c.Context(), UserID(c), period, campaignID)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(metrics)
}

func (h *MetricsHandler) GetMetaCampaigns(c *fiber.Ctx) error {
	campaigns, err := h.meta.GetCampaigns(c.Context(), UserID(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(campaigns)
}
