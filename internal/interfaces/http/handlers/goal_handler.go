package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/funilmetrics/funilmetrics-api/internal/application/usecases"
)

type GoalHandler struct {
	goalUseCase usecases.GoalUseCase
}

func NewGoalHandler(goalUseCase usecases.GoalUseCase) *GoalHandler {
	return &GoalHandler{goalUseCase}
}

func (h *GoalHandler) CreateGoal(c *fiber.Ctx) error {
	var input usecases.CreateGoalInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "payload inválido")
	}

	goal, err := h.goalUseCase.Create(UserID(c), input)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    goal,
	})
}

func (h *GoalHandler) GetGoals(c *fiber.Ctx) error {
	goals, err := h.goalUseCase.List(UserID(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    goals,
	})
}

func (h *GoalHandler) UpdateGoal(c *fiber.Ctx) error {
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return badRequest(c, "payload inválido")
	}

	// Campos derivados nunca vêm do cliente.
	delete(fields, "id")
	delete(fields, "user_id")
	delete(fields, "current_value")
	delete(fields, "is_completed")
	delete(fields, "completed_at")
	delete(fields, "notified")

	if err := h.goalUseCase.Update(UserID(c), c.Params("id"), fields); err != nil {
		return notFound(c, err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *GoalHandler) DeleteGoal(c *fiber.Ctx) error {
	if err := h.goalUseCase.Delete(UserID(c), c.Params("id")); err != nil {
		return notFound(c, err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}

// CheckGoals recalcula as metas ativas contra as métricas atuais.
func (h *GoalHandler) CheckGoals(c *fiber.Ctx) error {
	result, err := h.goalUseCase.Check(c.Context(), UserID(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    result,
	})
}
