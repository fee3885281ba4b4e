package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/funilmetrics/funilmetrics-api/internal/application/usecases"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/entities"
	"github.com/funilmetrics/funilmetrics-api/internal/domain/repositories"
)

type IntegrationHandler struct {
	integrationUseCase usecases.IntegrationUseCase
	webhookLogRepo     repositories.WebhookLogRepository
}

func NewIntegrationHandler(
	integrationUseCase usecases.IntegrationUseCase,
	webhookLogRepo repositories.WebhookLogRepository,
) *IntegrationHandler {
	return &IntegrationHandler{integrationUseCase, webhookLogRepo}
}

func (h *IntegrationHandler) Connect(c *fiber.Ctx) error {
	var input usecases.ConnectIntegrationInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "payload inválido")
	}

	integration, created, err := h.integrationUseCase.Connect(UserID(c), input)
	if err != nil {
		return badRequest(c, err.Error())
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    integration,
	})
}

func (h *IntegrationHandler) GetStatus(c *fiber.Ctx) error {
	statuses, err := h.integrationUseCase.Status(UserID(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    statuses,
	})
}

func (h *IntegrationHandler) Disconnect(c *fiber.Ctx) error {
	platform := entities.Platform(c.Params("platform"))
	if err := h.integrationUseCase.Disconnect(UserID(c), platform); err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}

// GetWebhookStats resume a saúde das entregas de webhook do tenant.
func (h *IntegrationHandler) GetWebhookStats(c *fiber.Ctx) error {
	stats, err := h.webhookLogRepo.Stats(UserID(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}
