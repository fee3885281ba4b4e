package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/funilmetrics/funilmetrics-api/internal/application/usecases"
)

type ConversationHandler struct {
	conversationUseCase usecases.ConversationUseCase
}

func NewConversationHandler(conversationUseCase usecases.ConversationUseCase) *ConversationHandler {
	return &ConversationHandler{conversationUseCase}
}

func (h *ConversationHandler) GetConversations(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("perPage", "20"))

	list, err := h.conversationUseCase.List(UserID(c), page, perPage)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    list,
	})
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

func (h *ConversationHandler) SendMessage(c *fiber.Ctx) error {
	conversationID := c.Params("id")

	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "payload inválido")
	}
	if req.Message == "" {
		return badRequest(c, "message é obrigatório")
	}

	sent, err := h.conversationUseCase.SendMessage(c.Context(), UserID(c), conversationID, req.Message)
	if err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    sent,
	})
}
