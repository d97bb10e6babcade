package middleware

import (
	"strings"

	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// AuthRequired is a Fiber middleware that rejects requests without a valid
// bearer token and stores the token's user in the request locals.
func AuthRequired(authService *services.AuthService, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			logger.Debug().Err(err).Str("path", c.Path()).Msg("rejected request token")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals("user_id", claims["user_id"])
		c.Locals("username", claims["username"])
		return c.Next()
	}
}
