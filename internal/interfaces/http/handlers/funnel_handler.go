package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/funilmetrics/funilmetrics-api/internal/application/usecases"
)

type FunnelHandler struct {
	funnelUseCase usecases.FunnelUseCase
}

func NewFunnelHandler(funnelUseCase usecases.FunnelUseCase) *FunnelHandler {
	return &FunnelHandler{funnelUseCase}
}

type createFunnelRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *FunnelHandler) CreateFunnel(c *fiber.Ctx) error {
	var req createFunnelRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "payload inválido")
	}

	funnel, err := h.funnelUseCase.Create(UserID(c), req.Name, req.Description)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    funnel,
	})
}

func (h *FunnelHandler) GetFunnels(c *fiber.Ctx) error {
	funnels, err := h.funnelUseCase.List(UserID(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    funnels,
	})
}

// GetFunnel retorna o funil principal com os estágios ordenados, ou
// data null quando nenhum webhook ainda criou um.
func (h *FunnelHandler) GetFunnel(c *fiber.Ctx) error {
	funnel, err := h.funnelUseCase.Get(UserID(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    funnel,
	})
}
