package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mcdev12/prepboard/go/internal/board"
	"github.com/mcdev12/prepboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Board is the part of the timer board the HTTP API drives.
type Board interface {
	View() board.View
	AddTimer(payload models.NewTimerPayload) (models.Timer, error)
	AddPreset(index int) (models.Timer, error)
	StartTimer(id string) error
	PauseTimer(id string) error
	ResetTimer(id string) error
	RemoveTimer(id string) error
	ClearDone() (int, error)
	SetMuted(muted bool) error
	ToggleMute() (bool, error)
	SetDark(dark bool) error
	SetDense(dense bool) error
	NoteInteraction()
	Wake()
}

// Catalog lists the accents and presets offered to clients.
type Catalog interface {
	All() []models.AccentOption
	Presets() []models.TimerPreset
}

// API serves the JSON board endpoints.
type API struct {
	board   Board
	catalog Catalog
}

func NewAPI(b Board, catalog Catalog) *API {
	return &API{board: b, catalog: catalog}
}

type muteRequest struct {
	Muted *bool `json:"muted"`
}

type flagsRequest struct {
	IsDark      *bool `json:"is_dark"`
	DenseLayout *bool `json:"dense_layout"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes registers the board routes with an HTTP mux
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/board", a.handleGetBoard)
	mux.HandleFunc("POST /api/timers", a.handleAddTimer)
	mux.HandleFunc("POST /api/timers/clear-done", a.handleClearDone)
	mux.HandleFunc("POST /api/timers/{id}/start", a.timerAction(a.board.StartTimer))
	mux.HandleFunc("POST /api/timers/{id}/pause", a.timerAction(a.board.PauseTimer))
	mux.HandleFunc("POST /api/timers/{id}/reset", a.timerAction(a.board.ResetTimer))
	mux.HandleFunc("DELETE /api/timers/{id}", a.timerAction(a.board.RemoveTimer))
	mux.HandleFunc("POST /api/presets/{index}", a.handleAddPreset)
	mux.HandleFunc("GET /api/presets", a.handleGetPresets)
	mux.HandleFunc("GET /api/accents", a.handleGetAccents)
	mux.HandleFunc("POST /api/mute", a.handleMute)
	mux.HandleFunc("POST /api/flags", a.handleFlags)
	mux.HandleFunc("POST /api/wake", a.handleWake)
	mux.HandleFunc("POST /api/interaction", a.handleInteraction)
	mux.HandleFunc("GET /health", a.handleHealth)
}

func (a *API) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.board.View())
}

func (a *API) handleAddTimer(w http.ResponseWriter, r *http.Request) {
	var payload models.NewTimerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid timer payload")
		return
	}

	timer, err := a.board.AddTimer(payload)
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, timer)
}

func (a *API) handleAddPreset(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid preset index")
		return
	}

	timer, err := a.board.AddPreset(index)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, timer)
}

func (a *API) timerAction(action func(id string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := action(r.PathValue("id")); err != nil {
			writeBoardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a.board.View())
	}
}

func (a *API) handleClearDone(w http.ResponseWriter, r *http.Request) {
	removed, err := a.board.ClearDone()
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (a *API) handleGetPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.Presets())
}

func (a *API) handleGetAccents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.catalog.All())
}

// handleMute sets mute when the body carries {"muted": bool} and toggles it
// otherwise.
func (a *API) handleMute(w http.ResponseWriter, r *http.Request) {
	var req muteRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid mute payload")
			return
		}
	}

	var err error
	if req.Muted != nil {
		err = a.board.SetMuted(*req.Muted)
	} else {
		_, err = a.board.ToggleMute()
	}
	if err != nil {
		writeBoardError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a.board.View())
}

func (a *API) handleFlags(w http.ResponseWriter, r *http.Request) {
	var req flagsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid flags payload")
		return
	}

	if req.IsDark != nil {
		if err := a.board.SetDark(*req.IsDark); err != nil {
			writeBoardError(w, err)
			return
		}
	}
	if req.DenseLayout != nil {
		if err := a.board.SetDense(*req.DenseLayout); err != nil {
			writeBoardError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, a.board.View())
}

func (a *API) handleWake(w http.ResponseWriter, r *http.Request) {
	a.board.Wake()
	writeJSON(w, http.StatusOK, a.board.View())
}

func (a *API) handleInteraction(w http.ResponseWriter, r *http.Request) {
	a.board.NoteInteraction()
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Error().Err(err).Msg("failed to write health check response")
	}
}

// writeBoardError maps board sentinel errors to HTTP statuses.
func writeBoardError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, board.ErrTimerNotFound):
		status = http.StatusNotFound
	case errors.Is(err, board.ErrInvalidDuration):
		status = http.StatusBadRequest
	case errors.Is(err, board.ErrInvalidTransition), errors.Is(err, board.ErrNothingRemaining):
		status = http.StatusConflict
	case errors.Is(err, board.ErrDisposed):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("board operation failed")
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
