package trueques

import (
	"github.com/gofiber/fiber/v3"

	"github.com/truequeapp/trueque-api/internal/middleware"
)

// SetupRoutes registra las rutas de anuncios en Fiber.
func (s *TruequesService) SetupRoutes(app *fiber.App) {
	// Lista pública con filtros de búsqueda
	app.Get("/api/trueques", s.GetPublicos)

	// Rutas protegidas (requieren sesión)
	api := app.Group("/api/trueques")
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Post("/", s.CrearTrueque)
	api.Get("/mios", s.GetMios)
	api.Delete("/:id", s.Eliminar)
}
