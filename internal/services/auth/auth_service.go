package auth

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/truequeapp/trueque-api/internal/actions"
	autenticacion "github.com/truequeapp/trueque-api/internal/auth"
	"github.com/truequeapp/trueque-api/internal/config"
	"github.com/truequeapp/trueque-api/internal/domain"
	"github.com/truequeapp/trueque-api/internal/prefs"
	"github.com/truequeapp/trueque-api/internal/store"
)

// AuthService expone el alta, el inicio y el cierre de sesión y el perfil.
type AuthService struct {
	cfg        *config.Config
	identidad  *autenticacion.Service
	st         store.Store
	dispatcher *actions.Dispatcher
	preferidas *prefs.Store
	jwtService *autenticacion.JWTService
}

// NewAuthService crea el servicio de autenticación
func NewAuthService(cfg *config.Config, identidad *autenticacion.Service, st store.Store, preferidas *prefs.Store) *AuthService {
	return &AuthService{
		cfg:        cfg,
		identidad:  identidad,
		st:         st,
		dispatcher: actions.New(st),
		preferidas: preferidas,
		jwtService: autenticacion.NewJWTService(cfg.JWTSecret),
	}
}

// GetJWTService devuelve el servicio JWT para el middleware.
func (s *AuthService) GetJWTService() *autenticacion.JWTService {
	return s.jwtService
}

// RegistroHandler da de alta una cuenta y devuelve el token de sesión.
func (s *AuthService) RegistroHandler(c fiber.Ctx) error {
	var payload struct {
		Nombre     string `json:"nombre"`
		Usuario    string `json:"usuario"`
		Correo     string `json:"correo"`
		Contrasena string `json:"contrasena"`
		Recordar   bool   `json:"recordar"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Formato de datos inválido"})
	}

	ctx, cancel := store.GetContext()
	defer cancel()

	id, err := s.identidad.Registrar(ctx, payload.Nombre, payload.Usuario, payload.Correo, payload.Contrasena)
	if err != nil {
		switch {
		case errors.Is(err, autenticacion.ErrCamposIncompletos):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Completa todos los campos."})
		case errors.Is(err, autenticacion.ErrCorreoRegistrado):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "El correo ya está registrado."})
		}
		log.Printf("Error en el registro: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error de registro"})
	}

	s.recordar(payload.Recordar)
	return s.responderSesion(c, fiber.StatusCreated, id)
}

// LoginHandler valida las credenciales y devuelve el token de sesión.
func (s *AuthService) LoginHandler(c fiber.Ctx) error {
	var payload struct {
		Correo     string `json:"correo"`
		Contrasena string `json:"contrasena"`
		Recordar   bool   `json:"recordar"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Formato de datos inválido"})
	}

	ctx, cancel := store.GetContext()
	defer cancel()

	id, err := s.identidad.IniciarSesion(ctx, payload.Correo, payload.Contrasena)
	if err != nil {
		switch {
		case errors.Is(err, autenticacion.ErrCamposIncompletos):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Introduce correo y contraseña."})
		case errors.Is(err, autenticacion.ErrCredenciales):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Error de autenticación"})
		}
		log.Printf("Error en el inicio de sesión: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error de autenticación"})
	}

	s.recordar(payload.Recordar)
	return s.responderSesion(c, fiber.StatusOK, id)
}

// LogoutHandler cierra la sesión y apaga la marca de "recuérdame".
func (s *AuthService) LogoutHandler(c fiber.Ctx) error {
	s.identidad.CerrarSesion()
	s.recordar(false)
	return c.JSON(fiber.Map{"success": true})
}

// PerfilHandler devuelve el perfil público del usuario autenticado.
func (s *AuthService) PerfilHandler(c fiber.Ctx) error {
	uid := c.Locals("userID").(string)

	ctx, cancel := store.GetContext()
	defer cancel()

	doc, err := s.st.Get(ctx, domain.ColeccionUsuarios, uid)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Perfil no encontrado"})
	}
	return c.JSON(fiber.Map{"usuario": domain.UsuarioFromDoc(doc)})
}

// ActualizarNombreHandler cambia el nombre visible del perfil.
func (s *AuthService) ActualizarNombreHandler(c fiber.Ctx) error {
	uid := c.Locals("userID").(string)

	var payload struct {
		Nombre string `json:"nombre"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Formato de datos inválido"})
	}

	ctx, cancel := store.GetContext()
	defer cancel()

	mensaje, err := s.dispatcher.ActualizarNombre(ctx, uid, payload.Nombre)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, actions.ErrNombreInvalido) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"error": mensaje})
	}
	return c.JSON(fiber.Map{"success": true, "message": mensaje})
}

func (s *AuthService) recordar(valor bool) {
	if s.preferidas == nil {
		return
	}
	if err := s.preferidas.SetBool(prefs.ClaveRecordarme, valor); err != nil {
		log.Printf("Error al guardar la preferencia de sesión: %v", err)
	}
}

func (s *AuthService) responderSesion(c fiber.Ctx, status int, id *autenticacion.Identidad) error {
	token, err := s.jwtService.GenerateToken(id.UID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error al generar el token"})
	}
	return c.Status(status).JSON(fiber.Map{
		"token": token,
		"usuario": fiber.Map{
			"uid":     id.UID,
			"nombre":  id.Nombre,
			"usuario": id.Usuario,
			"correo":  id.Correo,
		},
	})
}
