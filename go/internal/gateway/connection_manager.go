package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/prepboard/go/internal/board"
	"github.com/rs/zerolog/log"
)

// ConnectionManager fans board events out to live WebSocket views
type ConnectionManager struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BoardMessage

	// handles commands clients send back over the socket
	commands CommandHandler
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time

	pingMu   sync.Mutex
	lastPing time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BoardMessage is what a live view receives for every board event
type BoardMessage struct {
	Type    board.EventType `json:"type"`
	TimerID string          `json:"timer_id,omitempty"`
	Message string          `json:"message,omitempty"`
	At      time.Time       `json:"at"`
	View    board.View      `json:"view"`
}

// CommandHandler receives a decoded client command
type CommandHandler func(cmd ClientCommand)

// ClientCommand is a message a live view sends back, e.g. {"type":"interaction"}
type ClientCommand struct {
	Type string `json:"type"`
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig, commands CommandHandler) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BoardMessage, 256),
		commands:    commands,
	}
}

// Start begins processing broadcast messages
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// Observe is a board.Subscriber. It never blocks the board.
func (cm *ConnectionManager) Observe(ev board.Event) {
	msg := BoardMessage{
		Type:    ev.Type,
		TimerID: ev.TimerID,
		Message: ev.Message,
		At:      ev.At,
		View:    ev.View,
	}
	select {
	case cm.broadcastCh <- msg:
	default:
		log.Warn().Str("event_type", string(ev.Type)).Msg("broadcast channel full, dropping message")
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and sends the
// current view as the first message.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, initial BoardMessage) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, 64),
		Manager:     cm,
		ConnectedAt: time.Now(),
		lastPing:    time.Now(),
	}

	if data, err := json.Marshal(initial); err == nil {
		connection.Send <- data
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.connections[conn]; exists {
		delete(cm.connections, conn)
		close(conn.Send)

		log.Info().
			Str("connection_id", conn.ID).
			Msg("connection unregistered")
	}
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		conns = append(conns, conn)
	}
	cm.mu.RUnlock()

	for _, conn := range conns {
		cm.unregisterConnection(conn)
	}
}

// ConnectionCount returns the number of live views
func (cm *ConnectionManager) ConnectionCount() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

func (cm *ConnectionManager) handleBroadcast(message BoardMessage) {
	cm.mu.RLock()
	targets := make([]*Connection, 0, len(cm.connections))
	for conn := range cm.connections {
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	// Marshal the event once
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		if !cm.trySend(conn, data) {
			// Connection is slow/dead, close it
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Trace().
		Str("event_type", string(message.Type)).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// trySend queues data unless the connection is already unregistered or full.
func (cm *ConnectionManager) trySend(conn *Connection, data []byte) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	if !cm.connections[conn] {
		return true
	}
	select {
	case conn.Send <- data:
		return true
	default:
		return false
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
			c.touch()
		}
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		c.touch()
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

func (c *Connection) touch() {
	c.pingMu.Lock()
	c.lastPing = time.Now()
	c.pingMu.Unlock()
}

// handleClientMessage processes messages received from the client
func (c *Connection) handleClientMessage(message []byte) {
	var cmd ClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil || cmd.Type == "" {
		log.Debug().
			Str("connection_id", c.ID).
			Msg("ignoring malformed client message")
		return
	}

	log.Debug().
		Str("connection_id", c.ID).
		Str("command", cmd.Type).
		Msg("received client command")

	if c.Manager.commands != nil {
		c.Manager.commands(cmd)
	}
}
