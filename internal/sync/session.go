package sync

import (
	gosync "sync"

	"github.com/truequeapp/trueque-api/internal/auth"
	"github.com/truequeapp/trueque-api/internal/domain"
	"github.com/truequeapp/trueque-api/internal/store"
	"github.com/truequeapp/trueque-api/internal/views"
)

// Claves lógicas de las suscripciones de una sesión.
const (
	claveGlobales    = "trueques"
	clavePerfil      = "perfil"
	claveMisTrueques = "misTrueques"
	claveSolicitudes = "solicitudes"
)

// Session es la puerta de sesión: sigue la identidad activa y mantiene las
// suscripciones que le corresponden. La suscripción global de anuncios vive
// siempre; las personales (mis anuncios, mis solicitudes, mi perfil) existen
// solo mientras hay identidad y se reconstruyen al cambiar de usuario, sin que
// se filtre ni transitoriamente información de la identidad anterior.
type Session struct {
	authSvc *auth.Service
	mgr     *Manager

	mu          gosync.RWMutex
	uid         string
	nombre      string
	globales    []domain.Trueque
	propios     []domain.Trueque
	solicitudes []domain.Solicitud

	// onCambio avisa de que alguna caché cambió; onAviso informa fallos de
	// sincronización no fatales (la caché conserva su último valor bueno).
	onCambio func()
	onAviso  func(string)

	cancelAuth func()
}

// NewSession crea la sesión sin arrancarla. onCambio y onAviso pueden ser nil.
func NewSession(st store.Store, authSvc *auth.Service, onCambio func(), onAviso func(string)) *Session {
	if onCambio == nil {
		onCambio = func() {}
	}
	if onAviso == nil {
		onAviso = func(string) {}
	}
	return &Session{
		authSvc:  authSvc,
		mgr:      NewManager(st),
		onCambio: onCambio,
		onAviso:  onAviso,
	}
}

// Start abre la suscripción global y engancha la sesión a los cambios de
// identidad. El oyente de identidad se dispara de inmediato con la actual.
func (s *Session) Start() {
	s.mgr.Subscribe(claveGlobales, store.Query{
		Collection: domain.ColeccionTrueques,
		OrderBy:    "creadoEn",
		Descending: true,
	}, func(snap store.Snapshot) {
		s.mu.Lock()
		s.globales = domain.MapTrueques(snap)
		s.mu.Unlock()
		s.onCambio()
	}, func(err error) {
		s.onAviso("No se pudieron sincronizar los trueques: " + err.Error())
	})

	s.cancelAuth = s.authSvc.Suscribir(func(id *auth.Identidad) {
		uid := ""
		if id != nil {
			uid = id.UID
		}
		s.aplicarIdentidad(uid)
	})
}

// Close libera el oyente de identidad y todas las suscripciones.
func (s *Session) Close() {
	if s.cancelAuth != nil {
		s.cancelAuth()
	}
	s.mgr.Close()
}

// aplicarIdentidad reconstruye las suscripciones personales para el nuevo uid.
// Las cachés personales se vacían antes de resuscribir: ningún dato de la
// identidad anterior sobrevive al cambio.
func (s *Session) aplicarIdentidad(uid string) {
	s.mu.Lock()
	if uid == s.uid {
		s.mu.Unlock()
		return
	}
	s.uid = uid
	s.nombre = ""
	s.propios = nil
	s.solicitudes = nil
	s.mu.Unlock()

	if uid == "" {
		s.mgr.Cancel(clavePerfil)
		s.mgr.Cancel(claveMisTrueques)
		s.mgr.Cancel(claveSolicitudes)
		s.onCambio()
		return
	}

	s.mgr.Subscribe(clavePerfil, store.Query{
		Collection: domain.ColeccionUsuarios,
		ID:         uid,
	}, func(snap store.Snapshot) {
		nombre := ""
		if len(snap) > 0 {
			nombre = domain.UsuarioFromDoc(snap[0]).Nombre
		}
		s.mu.Lock()
		s.nombre = nombre
		s.mu.Unlock()
		s.onCambio()
	}, func(err error) {
		s.onAviso("No se pudo sincronizar el perfil: " + err.Error())
	})

	s.mgr.Subscribe(claveMisTrueques, store.Query{
		Collection: domain.ColeccionTrueques,
		Filters:    []store.Filter{{Field: "usuarioId", Value: uid}},
	}, func(snap store.Snapshot) {
		s.mu.Lock()
		s.propios = domain.MapTrueques(snap)
		s.mu.Unlock()
		s.onCambio()
	}, func(err error) {
		s.onAviso("No se pudieron sincronizar tus trueques: " + err.Error())
	})

	s.mgr.Subscribe(claveSolicitudes, store.Query{
		Collection: domain.ColeccionSolicitudes,
		Filters: []store.Filter{
			{Field: "propietarioId", Value: uid},
			{Field: "estado", Value: string(domain.EstadoPendiente)},
		},
	}, func(snap store.Snapshot) {
		s.mu.Lock()
		s.solicitudes = domain.MapSolicitudes(snap)
		s.mu.Unlock()
		s.onCambio()
	}, func(err error) {
		s.onAviso("No se pudieron sincronizar las solicitudes: " + err.Error())
	})

	s.onCambio()
}

// UID devuelve la identidad activa, o "" si no hay sesión.
func (s *Session) UID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uid
}

// Nombre devuelve el nombre visible del perfil activo.
func (s *Session) Nombre() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nombre
}

// Globales devuelve la caché de todos los anuncios publicados.
func (s *Session) Globales() []domain.Trueque {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Trueque(nil), s.globales...)
}

// Propios devuelve la caché de anuncios cuyo usuarioId es la identidad activa.
func (s *Session) Propios() []domain.Trueque {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Trueque(nil), s.propios...)
}

// MisTrueques proyecta los anuncios del usuario: los propios más los heredados
// que casan por nombre, deduplicados por ID.
func (s *Session) MisTrueques() []domain.Trueque {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return views.MisTrueques(s.propios, s.globales, s.nombre)
}

// Solicitudes devuelve la caché de solicitudes pendientes recibidas.
func (s *Session) Solicitudes() []domain.Solicitud {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Solicitud(nil), s.solicitudes...)
}
