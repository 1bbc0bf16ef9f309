package cloudinary

import (
	"github.com/gofiber/fiber/v3"

	"github.com/truequeapp/trueque-api/internal/middleware"
)

// SetupRoutes registra las rutas de subida de imágenes
func (s *CloudinaryService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	// Parámetros firmados para subir imágenes desde el cliente
	protected.Get("/upload/params", s.GenerateUploadParams)
}
