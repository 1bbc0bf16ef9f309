package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/truequeapp/trueque-api/internal/auth"
	"github.com/truequeapp/trueque-api/internal/config"
	"github.com/truequeapp/trueque-api/internal/domain"
	"github.com/truequeapp/trueque-api/internal/store"
	syncpkg "github.com/truequeapp/trueque-api/internal/sync"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// El token JWT ya autentica la conexión
		return true
	},
}

// Handler sirve el feed en vivo: el listado global llega a todas las
// conexiones y los datos personales solo a las conexiones de su usuario.
type Handler struct {
	manager    *Manager
	st         store.Store
	subs       *syncpkg.Manager
	jwtService *auth.JWTService
	server     *http.Server
}

// NewHandler crea el handler del feed y abre la suscripción global.
func NewHandler(cfg *config.Config, st store.Store) *Handler {
	h := &Handler{
		manager:    NewManager(),
		st:         st,
		subs:       syncpkg.NewManager(st),
		jwtService: auth.NewJWTService(cfg.JWTSecret),
	}

	h.manager.onUserOnline = h.abrirPersonales
	h.manager.onUserOffline = h.cerrarPersonales

	// Listado global, compartido por todas las conexiones
	h.subs.Subscribe("global", store.Query{
		Collection: domain.ColeccionTrueques,
		OrderBy:    "creadoEn",
		Descending: true,
	}, func(snap store.Snapshot) {
		payload, err := json.Marshal(domain.MapTrueques(snap))
		if err != nil {
			log.Printf("Error al serializar los trueques: %v", err)
			return
		}
		h.manager.Broadcast(Event{Type: EventTrueques, Payload: payload})
	}, func(err error) {
		log.Printf("Error en la suscripción global de trueques: %v", err)
	})

	return h
}

// abrirPersonales abre las suscripciones del usuario al conectarse su primer
// cliente: sus anuncios y sus solicitudes pendientes.
func (h *Handler) abrirPersonales(userID string) {
	h.subs.Subscribe("mios:"+userID, store.Query{
		Collection: domain.ColeccionTrueques,
		Filters:    []store.Filter{{Field: "usuarioId", Value: userID}},
	}, func(snap store.Snapshot) {
		payload, err := json.Marshal(domain.MapTrueques(snap))
		if err != nil {
			log.Printf("Error al serializar los trueques: %v", err)
			return
		}
		h.manager.SendToUser(userID, Event{Type: EventMisTrueques, UserID: userID, Payload: payload})
	}, func(err error) {
		log.Printf("Error en la suscripción de anuncios de %s: %v", userID, err)
	})

	h.subs.Subscribe("solicitudes:"+userID, store.Query{
		Collection: domain.ColeccionSolicitudes,
		Filters: []store.Filter{
			{Field: "propietarioId", Value: userID},
			{Field: "estado", Value: string(domain.EstadoPendiente)},
		},
	}, func(snap store.Snapshot) {
		payload, err := json.Marshal(domain.MapSolicitudes(snap))
		if err != nil {
			log.Printf("Error al serializar las solicitudes: %v", err)
			return
		}
		h.manager.SendToUser(userID, Event{Type: EventSolicitudes, UserID: userID, Payload: payload})
	}, func(err error) {
		log.Printf("Error en la suscripción de solicitudes de %s: %v", userID, err)
	})
}

// cerrarPersonales cancela las suscripciones del usuario cuando se desconecta
// su última conexión.
func (h *Handler) cerrarPersonales(userID string) {
	h.subs.Cancel("mios:" + userID)
	h.subs.Cancel("solicitudes:" + userID)
}

// ServeHTTP autentica y promociona la conexión a WebSocket.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Token no proporcionado", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ExtractUserID(token)
	if err != nil {
		http.Error(w, "Token inválido", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error al promocionar la conexión: %v", err)
		return
	}

	client := NewClient(userID, conn, h.manager)
	client.Start()

	h.manager.SendToUser(userID, Event{Type: EventConnected, UserID: userID, Timestamp: time.Now()})
}

// Serve levanta el servidor HTTP del feed en la dirección dada. Bloquea hasta
// que el servidor se cierra.
func (h *Handler) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)

	h.server = &http.Server{Addr: addr, Handler: mux}
	return h.server.ListenAndServe()
}

// Shutdown cierra las suscripciones, las conexiones y el servidor.
func (h *Handler) Shutdown() {
	h.subs.Close()
	h.manager.Shutdown()
	if h.server != nil {
		h.server.Close()
	}
}
