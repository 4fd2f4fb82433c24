package gateway

import (
	"net/http"

	"github.com/mcdev12/prepboard/go/internal/board"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for live board views
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	board             Board
}

func NewWebSocketHandler(cm *ConnectionManager, b Board) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		board:             b,
	}
}

// HandleBoardConnection upgrades the request and starts streaming board views
func (h *WebSocketHandler) HandleBoardConnection(w http.ResponseWriter, r *http.Request) {
	initial := BoardMessage{
		Type: board.EventBoardChanged,
		View: h.board.View(),
	}
	if err := h.connectionManager.UpgradeConnection(w, r, initial); err != nil {
		// the upgrader has already replied to the client
		log.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns the number of live views
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{
		"total_connections": h.connectionManager.ConnectionCount(),
	})
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/board", h.HandleBoardConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}

// BoardCommands routes live view commands to the board.
func BoardCommands(b Board) CommandHandler {
	return func(cmd ClientCommand) {
		switch cmd.Type {
		case "interaction":
			b.NoteInteraction()
		case "wake":
			b.Wake()
		default:
			log.Debug().Str("command", cmd.Type).Msg("unknown client command")
		}
	}
}
