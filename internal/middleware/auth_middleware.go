package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/truequeapp/trueque-api/internal/auth"
)

// AuthMiddleware crea el middleware que valida el JWT del encabezado Bearer y
// deja el UID en el contexto de la petición.
func AuthMiddleware(jwtService *auth.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Falta el encabezado de autorización",
			})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Formato de autorización inválido",
			})
		}

		uid, err := jwtService.ExtractUserID(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Token inválido o caducado",
			})
		}

		c.Locals("userID", uid)
		return c.Next()
	}
}
