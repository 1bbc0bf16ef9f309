package solicitudes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/truequeapp/trueque-api/internal/middleware"
)

// SetupRoutes registra las rutas de solicitudes en Fiber.
func (s *SolicitudesService) SetupRoutes(app *fiber.App) {
	// Todas las rutas requieren sesión
	api := app.Group("/api/solicitudes")
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetPendientes)
	api.Post("/", s.Enviar)
	api.Put("/:id", s.Responder)
}
