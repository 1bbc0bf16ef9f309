package trueques

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/truequeapp/trueque-api/internal/actions"
	"github.com/truequeapp/trueque-api/internal/auth"
	"github.com/truequeapp/trueque-api/internal/config"
	"github.com/truequeapp/trueque-api/internal/domain"
	"github.com/truequeapp/trueque-api/internal/store"
	"github.com/truequeapp/trueque-api/internal/views"
)

// TruequesService expone los anuncios de trueque.
type TruequesService struct {
	cfg        *config.Config
	st         store.Store
	dispatcher *actions.Dispatcher
	jwtService *auth.JWTService
}

// NewTruequesService crea el servicio de anuncios
func NewTruequesService(cfg *config.Config, st store.Store) *TruequesService {
	return &TruequesService{
		cfg:        cfg,
		st:         st,
		dispatcher: actions.New(st),
		jwtService: auth.NewJWTService(cfg.JWTSecret),
	}
}

// GetPublicos devuelve todos los anuncios, con filtros opcionales de texto,
// categoría y tipo.
func (s *TruequesService) GetPublicos(c fiber.Ctx) error {
	ctx, cancel := store.GetContext()
	defer cancel()

	snap, err := s.st.Find(ctx, store.Query{
		Collection: domain.ColeccionTrueques,
		OrderBy:    "creadoEn",
		Descending: true,
	})
	if err != nil {
		log.Printf("Error al consultar los trueques: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error al obtener los trueques"})
	}

	filtro := views.Filtro{Texto: c.Query("q")}
	if categoria := c.Query("categoria"); categoria != "" {
		filtro.Categoria = &categoria
	}
	switch strings.ToUpper(c.Query("tipo")) {
	case string(domain.TipoObjeto):
		tipo := domain.TipoObjeto
		filtro.Tipo = &tipo
	case string(domain.TipoHabilidad):
		tipo := domain.TipoHabilidad
		filtro.Tipo = &tipo
	}

	trueques := views.Filtrar(domain.MapTrueques(snap), filtro)
	return c.JSON(fiber.Map{"trueques": trueques, "count": len(trueques)})
}

// GetMios devuelve los anuncios del usuario autenticado: los suyos por
// usuarioId más los heredados que casan por nombre visible.
func (s *TruequesService) GetMios(c fiber.Ctx) error {
	uid := c.Locals("userID").(string)

	ctx, cancel := store.GetContext()
	defer cancel()

	propiosSnap, err := s.st.Find(ctx, store.Query{
		Collection: domain.ColeccionTrueques,
		Filters:    []store.Filter{{Field: "usuarioId", Value: uid}},
	})
	if err != nil {
		log.Printf("Error al consultar los trueques propios: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error al obtener tus trueques"})
	}

	globalesSnap, err := s.st.Find(ctx, store.Query{Collection: domain.ColeccionTrueques})
	if err != nil {
		log.Printf("Error al consultar los trueques globales: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error al obtener tus trueques"})
	}

	trueques := views.MisTrueques(
		domain.MapTrueques(propiosSnap),
		domain.MapTrueques(globalesSnap),
		s.nombreDe(uid),
	)
	return c.JSON(fiber.Map{"trueques": trueques, "count": len(trueques)})
}

// CrearTrueque publica un anuncio nuevo.
func (s *TruequesService) CrearTrueque(c fiber.Ctx) error {
	uid := c.Locals("userID").(string)

	var payload struct {
		Titulo      string `json:"titulo"`
		Descripcion string `json:"descripcion"`
		Tipo        string `json:"tipo"`
		Categoria   string `json:"categoria"`
		ImagenURL   string `json:"imagenUrl"`
	}
	if err := c.Bind().Body(&payload); err != nil {
		log.Printf("Error al decodificar el cuerpo de la petición: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Formato de datos inválido"})
	}

	tipo := domain.TipoObjeto
	if strings.ToUpper(payload.Tipo) == string(domain.TipoHabilidad) {
		tipo = domain.TipoHabilidad
	}

	ctx, cancel := store.GetContext()
	defer cancel()

	id, err := s.dispatcher.CrearTrueque(ctx, uid, s.nombreDe(uid),
		strings.TrimSpace(payload.Titulo), strings.TrimSpace(payload.Descripcion),
		tipo, payload.Categoria, payload.ImagenURL)
	if err != nil {
		if errors.Is(err, actions.ErrCamposIncompletos) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Completa todos los campos."})
		}
		log.Printf("Error al crear el trueque: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error al guardar el trueque"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "trueque_id": id})
}

// Eliminar borra un anuncio del usuario autenticado.
func (s *TruequesService) Eliminar(c fiber.Ctx) error {
	uid := c.Locals("userID").(string)
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID del trueque no indicado"})
	}

	ctx, cancel := store.GetContext()
	defer cancel()

	doc, err := s.st.Get(ctx, domain.ColeccionTrueques, id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trueque no encontrado"})
	}
	trueque, ok := domain.TruequeFromDoc(doc)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trueque no encontrado"})
	}

	// El dueño se reconoce por usuarioId; en anuncios heredados sin dueño, por
	// el nombre visible, igual que en la proyección de "mis trueques".
	esDueno := trueque.UsuarioID == uid ||
		(trueque.UsuarioID == "" && strings.EqualFold(trueque.Usuario, s.nombreDe(uid)))
	if !esDueno {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "No puedes eliminar un trueque ajeno"})
	}

	mensaje, err := s.dispatcher.EliminarTrueque(ctx, id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": mensaje})
	}
	return c.JSON(fiber.Map{"success": true, "message": mensaje})
}

// nombreDe devuelve el nombre visible del perfil, o "" si no carga.
func (s *TruequesService) nombreDe(uid string) string {
	ctx, cancel := store.GetContext()
	defer cancel()

	doc, err := s.st.Get(ctx, domain.ColeccionUsuarios, uid)
	if err != nil {
		return ""
	}
	return domain.UsuarioFromDoc(doc).Nombre
}
