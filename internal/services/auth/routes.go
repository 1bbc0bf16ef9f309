package auth

import (
	"github.com/gofiber/fiber/v3"

	"github.com/truequeapp/trueque-api/internal/middleware"
)

// SetupRoutes registra las rutas de autenticación y perfil en Fiber.
func (s *AuthService) SetupRoutes(app *fiber.App) {
	app.Post("/api/auth/registro", s.RegistroHandler)
	app.Post("/api/auth/login", s.LoginHandler)

	// Rutas protegidas
	protected := app.Group("/api")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Post("/auth/logout", s.LogoutHandler)
	protected.Get("/perfil", s.PerfilHandler)
	protected.Put("/perfil/nombre", s.ActualizarNombreHandler)
}
