package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/prepboard/go/internal/accents"
	"github.com/mcdev12/prepboard/go/internal/board"
	"github.com/mcdev12/prepboard/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) (*board.Board, http.Handler) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 18, 0, 0, 0, time.UTC))
	b := board.New(board.DefaultConfig(), board.Deps{Clock: clock})
	t.Cleanup(b.Dispose)

	api := NewAPI(b, accents.Default())
	return b, NewHandler(DefaultServerConfig(), api, nil)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestTimerLifecycleOverHTTP(t *testing.T) {
	_, h := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/api/timers", `{"label":"Eggs","minutes":6,"accent_id":"herb"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	timer := decode[models.Timer](t, rec)
	assert.Equal(t, "Eggs", timer.Label)
	assert.Equal(t, 6*time.Minute, timer.Duration)

	rec = do(t, h, http.MethodPost, "/api/timers/"+timer.ID+"/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[board.View](t, rec)
	assert.True(t, view.Ticking)
	assert.Equal(t, board.MoodSimmering, view.Derived.KitchenMood)

	rec = do(t, h, http.MethodPost, "/api/timers/"+timer.ID+"/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/timers/"+timer.ID+"/pause", "")
	require.Equal(t, http.StatusOK, rec.Code, "pausing twice is a no-op")

	rec = do(t, h, http.MethodPost, "/api/timers/"+timer.ID+"/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/timers/"+timer.ID+"/pause", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/timers/"+timer.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[board.View](t, rec).Timers)

	rec = do(t, h, http.MethodPost, "/api/timers/"+timer.ID+"/start", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddTimerValidation(t *testing.T) {
	_, h := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/api/timers", `{"label":"Zero"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "positive")

	rec = do(t, h, http.MethodPost, "/api/timers", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPresetsAndAccents(t *testing.T) {
	_, h := newTestAPI(t)

	rec := do(t, h, http.MethodGet, "/api/presets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	presets := decode[[]models.TimerPreset](t, rec)
	require.Len(t, presets, 3)

	rec = do(t, h, http.MethodPost, "/api/presets/2", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Roast check", decode[models.Timer](t, rec).Label)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/presets/7", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/presets/abc", "").Code)

	rec = do(t, h, http.MethodGet, "/api/accents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.AccentOption](t, rec), 6)
}

func TestMuteAndFlags(t *testing.T) {
	b, h := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/api/mute", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[board.View](t, rec).Muted)

	rec = do(t, h, http.MethodPost, "/api/mute", `{"muted":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, b.View().Muted)

	rec = do(t, h, http.MethodPost, "/api/flags", `{"is_dark":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[board.View](t, rec)
	assert.True(t, view.Flags.IsDark)
	assert.False(t, view.Flags.DenseLayout)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/api/interaction", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/api/wake", "").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}

func TestClearDoneOverHTTP(t *testing.T) {
	_, h := newTestAPI(t)

	rec := do(t, h, http.MethodPost, "/api/timers/clear-done", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[map[string]int](t, rec)["removed"])
}

func TestCORSPreflight(t *testing.T) {
	_, h := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/timers", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocketStreamsBoardEvents(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 18, 0, 0, 0, time.UTC))
	b := board.New(board.DefaultConfig(), board.Deps{Clock: clock})
	t.Cleanup(b.Dispose)

	cm := NewConnectionManager(DefaultConnectionConfig(), BoardCommands(b))
	b.Subscribe(cm.Observe)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cm.Start(ctx)

	srv := httptest.NewServer(NewHandler(DefaultServerConfig(), NewAPI(b, accents.Default()), NewWebSocketHandler(cm, b)))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/board"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first BoardMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, board.EventBoardChanged, first.Type)
	assert.Empty(t, first.View.Timers)

	require.Eventually(t, func() bool { return cm.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	_, err = b.AddTimer(models.NewTimerPayload{Label: "Stock", Minutes: 90})
	require.NoError(t, err)

	var added BoardMessage
	require.NoError(t, conn.ReadJSON(&added))
	assert.Equal(t, board.EventTimerAdded, added.Type)
	require.Len(t, added.View.Timers, 1)
	assert.Equal(t, "Stock", added.View.Timers[0].Label)

	require.NoError(t, conn.WriteJSON(ClientCommand{Type: "interaction"}))
}
