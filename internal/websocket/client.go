package websocket

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Tiempo máximo de espera para el pong del cliente
	pongWait = 60 * time.Second

	// Intervalo de envío de pings al cliente
	pingPeriod = (pongWait * 9) / 10

	// Tamaño máximo de un mensaje entrante
	maxMessageSize = 4 * 1024

	// Tamaño del buffer de mensajes salientes
	writeBufferSize = 256
)

// Client es una conexión WebSocket individual
type Client struct {
	ID        uuid.UUID
	UserID    string
	conn      *websocket.Conn
	send      chan []byte // Cola de mensajes salientes
	manager   *Manager
	closeChan chan struct{}
}

// NewClient crea una conexión de cliente
func NewClient(userID string, conn *websocket.Conn, manager *Manager) *Client {
	return &Client{
		ID:        uuid.New(),
		UserID:    userID,
		conn:      conn,
		send:      make(chan []byte, writeBufferSize),
		manager:   manager,
		closeChan: make(chan struct{}),
	}
}

// Start registra el cliente y arranca las goroutines de lectura y escritura
func (c *Client) Start() {
	c.manager.AddClient(c)

	go c.readPump()
	go c.writePump()
}

// readPump consume los mensajes entrantes. El feed es solo de salida, así que
// la lectura sirve únicamente para detectar el cierre y responder a los pongs.
func (c *Client) readPump() {
	defer func() {
		c.manager.RemoveClient(c.ID)
		c.conn.Close()
		close(c.closeChan)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Cierre inesperado de la conexión: %v", err)
			}
			break
		}
	}
}

// writePump envía los mensajes encolados al cliente
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("Error al escribir el mensaje: %v", err)
				return
			}
		case <-ticker.C:
			// Ping para mantener viva la conexión
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closeChan:
			return
		}
	}
}
