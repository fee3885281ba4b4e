package handlers

import "github.com/gofiber/fiber/v2"

// UserID lê o id do usuário autenticado que o middleware colocou em
// locals. String vazia significa rota mal agrupada.
func UserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("userID").(string)
	return userID
}

func internalError(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func notFound(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
