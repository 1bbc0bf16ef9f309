package solicitudes

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/truequeapp/trueque-api/internal/actions"
	"github.com/truequeapp/trueque-api/internal/auth"
	"github.com/truequeapp/trueque-api/internal/config"
	"github.com/truequeapp/trueque-api/internal/domain"
	"github.com/truequeapp/trueque-api/internal/store"
)

// SolicitudesService expone las propuestas de trueque.
type SolicitudesService struct {
	cfg        *config.Config
	st         store.Store
	dispatcher *actions.Dispatcher
	jwtService *auth.JWTService
}

// NewSolicitudesService crea el servicio de solicitudes
func NewSolicitudesService(cfg *config.Config, st store.Store) *SolicitudesService {
	return &SolicitudesService{
		cfg:        cfg,
		st:         st,
		dispatcher: actions.New(st),
		jwtService: auth.NewJWTService(cfg.JWTSecret),
	}
}

// GetPendientes devuelve las solicitudes pendientes recibidas por el usuario.
func (s *SolicitudesService) GetPendientes(c fiber.Ctx) error {
	uid := c.Locals("userID").(string)

	ctx, cancel := store.GetContext()
	defer cancel()

	snap, err := s.st.Find(ctx, store.Query{
		Collection: domain.ColeccionSolicitudes,
		Filters: []store.Filter{
			{Field: "propietarioId", Value: uid},
			{Field: "estado", Value: string(domain.EstadoPendiente)},
		},
	})
	if err != nil {
		log.Printf("Error al consultar las solicitudes: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error al obtener las solicitudes"})
	}

	pendientes := domain.MapSolicitudes(snap)
	return c.JSON(fiber.Map{"solicitudes": pendientes, "count": len(pendientes)})
}

// Enviar crea una solicitud: el usuario ofrece un anuncio suyo a cambio del
// anuncio solicitado.
func (s *SolicitudesService) Enviar(c fiber.Ctx) error {
	uid := c.Locals("userID").(string)

	var payload struct {
		TruequeSolicitadoID string `json:"trueque_solicitado_id"`
		TruequeOfrecidoID   string `json:"trueque_ofrecido_id"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		log.Printf("Error al decodificar el cuerpo de la petición: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Formato de datos inválido"})
	}
	if payload.TruequeSolicitadoID == "" || payload.TruequeOfrecidoID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Indica los dos trueques del intercambio"})
	}

	ctx, cancel := store.GetContext()
	defer cancel()

	solicitado, ok := s.cargarTrueque(ctx, payload.TruequeSolicitadoID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trueque no encontrado"})
	}
	ofrecido, ok := s.cargarTrueque(ctx, payload.TruequeOfrecidoID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trueque no encontrado"})
	}

	if ofrecido.UsuarioID != uid {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Solo puedes ofrecer un trueque tuyo"})
	}

	nombre := ""
	if perfil, err := s.st.Get(ctx, domain.ColeccionUsuarios, uid); err == nil {
		nombre = domain.UsuarioFromDoc(perfil).Nombre
	}

	mensaje, err := s.dispatcher.EnviarSolicitud(ctx, uid, nombre, solicitado, ofrecido)
	if err != nil {
		if errors.Is(err, actions.ErrAutoTrueque) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No puedes solicitar tu propio trueque."})
		}
		log.Printf("Error al enviar la solicitud: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": mensaje})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": mensaje})
}

// Responder acepta o rechaza una solicitud pendiente. Solo puede hacerlo el
// propietario del anuncio solicitado.
func (s *SolicitudesService) Responder(c fiber.Ctx) error {
	uid := c.Locals("userID").(string)
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID de la solicitud no indicado"})
	}

	var payload struct {
		Aceptar bool `json:"aceptar"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		log.Printf("Error al decodificar el cuerpo de la petición: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Formato de datos inválido"})
	}

	ctx, cancel := store.GetContext()
	defer cancel()

	doc, err := s.st.Get(ctx, domain.ColeccionSolicitudes, id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Solicitud no encontrada"})
	}
	solicitud, ok := domain.SolicitudFromDoc(doc)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Solicitud no encontrada"})
	}

	if solicitud.PropietarioID != uid {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Solo el propietario puede responder la solicitud"})
	}

	if err := s.dispatcher.ResponderSolicitud(ctx, solicitud, payload.Aceptar); err != nil {
		if errors.Is(err, actions.ErrNoPendiente) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "La solicitud ya fue respondida"})
		}
		log.Printf("Error al responder la solicitud: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error al responder la solicitud"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// cargarTrueque lee y mapea un anuncio.
func (s *SolicitudesService) cargarTrueque(ctx context.Context, id string) (domain.Trueque, bool) {
	doc, err := s.st.Get(ctx, domain.ColeccionTrueques, id)
	if err != nil {
		return domain.Trueque{}, false
	}
	return domain.TruequeFromDoc(doc)
}
