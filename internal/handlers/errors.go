package handlers

import (
	"errors"

	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// writeServiceError maps a service failure onto an HTTP response. Conflicts and
// invalid input are reported as bad requests; unclassified errors never leak their text.
func writeServiceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "unexpected error, check server logs"

	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		message = svcErr.Message
		switch svcErr.Kind {
		case services.ErrorKindNotFound:
			status = fiber.StatusNotFound
		case services.ErrorKindConflict, services.ErrorKindInvalid:
			status = fiber.StatusBadRequest
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"statusCode": status,
		"error":      utils.StatusMessage(status),
		"message":    message,
	})
}
