package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager centraliza todas las conexiones WebSocket del feed en vivo
type Manager struct {
	clients      map[uuid.UUID]*Client
	clientsMutex sync.RWMutex
	userClients  map[string]map[uuid.UUID]bool // userID -> map[clientID]bool
	userMutex    sync.RWMutex
	ctx          context.Context
	cancel       context.CancelFunc

	// Avisan cuando el primer cliente de un usuario se conecta y cuando
	// el último se desconecta. Se invocan fuera de los mutex.
	onUserOnline  func(userID string)
	onUserOffline func(userID string)
}

// EventType define el tipo de evento del feed
type EventType string

const (
	EventTrueques    EventType = "trueques"
	EventMisTrueques EventType = "mis_trueques"
	EventSolicitudes EventType = "solicitudes"
	EventConnected   EventType = "connected"
)

// Event es el mensaje que viaja por el WebSocket
type Event struct {
	Type      EventType       `json:"type"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// NewManager crea el manager de conexiones
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		clients:     make(map[uuid.UUID]*Client),
		userClients: make(map[string]map[uuid.UUID]bool),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// AddClient registra un cliente nuevo
func (m *Manager) AddClient(client *Client) {
	m.clientsMutex.Lock()
	m.clients[client.ID] = client
	m.clientsMutex.Unlock()

	// Asociamos el cliente con su usuario
	primero := false
	m.userMutex.Lock()
	if _, exists := m.userClients[client.UserID]; !exists {
		m.userClients[client.UserID] = make(map[uuid.UUID]bool)
		primero = true
	}
	m.userClients[client.UserID][client.ID] = true
	m.userMutex.Unlock()

	log.Printf("Cliente WebSocket %s conectado para el usuario %s", client.ID, client.UserID)

	if primero && m.onUserOnline != nil {
		m.onUserOnline(client.UserID)
	}
}

// RemoveClient elimina un cliente
func (m *Manager) RemoveClient(clientID uuid.UUID) {
	m.clientsMutex.RLock()
	client, exists := m.clients[clientID]
	m.clientsMutex.RUnlock()

	if !exists {
		return
	}

	userID := client.UserID

	// Quitamos el cliente de su usuario
	ultimo := false
	m.userMutex.Lock()
	if clients, ok := m.userClients[userID]; ok {
		delete(clients, clientID)
		// Si era la última conexión del usuario, borramos la entrada
		if len(clients) == 0 {
			delete(m.userClients, userID)
			ultimo = true
		}
	}
	m.userMutex.Unlock()

	m.clientsMutex.Lock()
	delete(m.clients, clientID)
	m.clientsMutex.Unlock()

	log.Printf("Cliente WebSocket %s desconectado para el usuario %s", clientID, userID)

	if ultimo && m.onUserOffline != nil {
		m.onUserOffline(userID)
	}
}

// SendToUser envía un evento a todas las conexiones de un usuario
func (m *Manager) SendToUser(userID string, event Event) {
	if userID == "" {
		return
	}

	m.userMutex.RLock()
	clientIDs, exists := m.userClients[userID]
	m.userMutex.RUnlock()

	if !exists || len(clientIDs) == 0 {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error al serializar el evento: %v", err)
		return
	}

	for clientID := range clientIDs {
		m.clientsMutex.RLock()
		client, exists := m.clients[clientID]
		m.clientsMutex.RUnlock()

		if !exists {
			continue
		}

		m.encolar(client, eventJSON)
	}
}

// Broadcast envía un evento a todas las conexiones activas
func (m *Manager) Broadcast(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error al serializar el evento: %v", err)
		return
	}

	m.clientsMutex.RLock()
	destinos := make([]*Client, 0, len(m.clients))
	for _, client := range m.clients {
		destinos = append(destinos, client)
	}
	m.clientsMutex.RUnlock()

	for _, client := range destinos {
		m.encolar(client, eventJSON)
	}
}

// encolar mete el mensaje en la cola del cliente sin bloquear
func (m *Manager) encolar(client *Client, mensaje []byte) {
	go func(c *Client) {
		select {
		case c.send <- mensaje:
			// Mensaje encolado
		default:
			// La cola está llena, el cliente va demasiado lento
			log.Printf("Cola de envío llena para el cliente %s, cerrando la conexión", c.ID)
			c.conn.Close()
			m.RemoveClient(c.ID)
		}
	}(client)
}

// Shutdown cierra todas las conexiones y apaga el manager
func (m *Manager) Shutdown() {
	m.cancel()

	m.clientsMutex.Lock()
	for _, client := range m.clients {
		client.conn.Close()
	}
	m.clients = make(map[uuid.UUID]*Client)
	m.clientsMutex.Unlock()

	m.userMutex.Lock()
	m.userClients = make(map[string]map[uuid.UUID]bool)
	m.userMutex.Unlock()
}
