package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/funilmetrics/funilmetrics-api/internal/application/usecases"
)

type NotificationHandler struct {
	notificationUseCase usecases.NotificationUseCase
}

func NewNotificationHandler(notificationUseCase usecases.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{notificationUseCase}
}

func (h *NotificationHandler) GetNotifications(c *fiber.Ctx) error {
	feed, err := h.notificationUseCase.Feed(UserID(c))
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    feed,
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.notificationUseCase.MarkRead(UserID(c), c.Params("id")); err != nil {
		return notFound(c, err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}

func (h *NotificationHandler) DeleteNotification(c *fiber.Ctx) error {
	if err := h.notificationUseCase.Delete(UserID(c), c.Params("id")); err != nil {
		return notFound(c, err.Error())
	}
	return c.JSON(fiber.Map{"success": true})
}
