package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/prepboard/go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// StorageKey is the single key the board snapshot lives under.
	StorageKey = "prepboard/state"

	// SchemaVersion is the snapshot version this engine writes and the newest
	// it will read.
	SchemaVersion = 1
)

// Store is the key-value medium snapshots are written to.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type snapshot struct {
	Version     int           `json:"version"`
	Timers      []timerRecord `json:"timers"`
	IsDark      bool          `json:"isDark"`
	DenseLayout bool          `json:"denseLayout"`
	Muted       bool          `json:"muted"`
}

// storedSnapshot is the read side. Every field is optional; a nil Timers
// means the document carried no timer list.
type storedSnapshot struct {
	Timers      []timerRecord
	IsDark      *bool
	DenseLayout *bool
	Muted       *bool
}

// envelope is a syntactically valid document split into raw fields. Nothing
// is typed until the version gate has passed.
type envelope map[string]json.RawMessage

// parseEnvelope fails only on malformed JSON. A valid document that is not
// an object yields an empty envelope.
func parseEnvelope(raw []byte) (envelope, error) {
	if !json.Valid(raw) {
		return nil, ErrCorruptPersistedState
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Warn().Err(err).Msg("board snapshot is not an object, nothing to restore")
		return envelope{}, nil
	}
	return env, nil
}

// version returns the stored schema version when it is a number.
func (e envelope) version() (float64, bool) {
	var v float64
	if err := json.Unmarshal(e["version"], &v); err != nil {
		return 0, false
	}
	return v, true
}

// optBool decodes key only when it holds a JSON boolean.
func (e envelope) optBool(key string) *bool {
	var v bool
	if isNull(e[key]) {
		return nil
	}
	if err := json.Unmarshal(e[key], &v); err != nil {
		return nil
	}
	return &v
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(bytes.TrimSpace(raw)) == "null"
}

// decode types a version-checked envelope. Malformed timers are skipped one
// by one; a timer list of the wrong shape is ignored.
func (e envelope) decode() storedSnapshot {
	stored := storedSnapshot{
		IsDark:      e.optBool("isDark"),
		DenseLayout: e.optBool("denseLayout"),
		Muted:       e.optBool("muted"),
	}

	raw, ok := e["timers"]
	if !ok {
		return stored
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		log.Warn().Msg("stored timers are not a list, skipping them")
		return stored
	}

	stored.Timers = make([]timerRecord, 0, len(items))
	for i, item := range items {
		var rec timerRecord
		if isNull(item) {
			log.Warn().Int("index", i).Msg("skipping empty stored timer")
			continue
		}
		if err := json.Unmarshal(item, &rec); err != nil {
			log.Warn().Err(err).Int("index", i).Msg("skipping unreadable stored timer")
			continue
		}
		stored.Timers = append(stored.Timers, rec)
	}
	return stored
}

type timerRecord struct {
	ID          string             `json:"id"`
	Label       string             `json:"label"`
	DurationMs  int64              `json:"durationMs"`
	RemainingMs int64              `json:"remainingMs"`
	Status      models.TimerStatus `json:"status"`
	IsRunning   bool               `json:"isRunning"`
	AccentID    string             `json:"accentId"`
	LastUpdated *int64             `json:"lastUpdated,omitempty"`
	CreatedAt   int64              `json:"createdAt"`
	Notified    bool               `json:"notified"`
	CompletedAt *int64             `json:"completedAt,omitempty"`
}

func toEpochMs(t time.Time) int64 {
	return t.UnixMilli()
}

func optEpochMs(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func fromEpochMs(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func optFromEpochMs(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms)
	return &t
}

func encodeTimer(t *models.Timer) timerRecord {
	return timerRecord{
		ID:          t.ID,
		Label:       t.Label,
		DurationMs:  t.Duration.Milliseconds(),
		RemainingMs: t.Remaining.Milliseconds(),
		Status:      t.Status,
		IsRunning:   t.IsRunning,
		AccentID:    t.Accent.ID,
		LastUpdated: optEpochMs(t.LastUpdated),
		CreatedAt:   toEpochMs(t.CreatedAt),
		Notified:    t.Notified,
		CompletedAt: optEpochMs(t.CompletedAt),
	}
}

// decodeTimer rebuilds a timer and restores its invariants.
func (b *Board) decodeTimer(rec timerRecord, now time.Time) *models.Timer {
	t := &models.Timer{
		ID:          rec.ID,
		Label:       rec.Label,
		Duration:    time.Duration(rec.DurationMs) * time.Millisecond,
		Remaining:   time.Duration(rec.RemainingMs) * time.Millisecond,
		Status:      rec.Status,
		Accent:      b.palette.Resolve(rec.AccentID),
		LastUpdated: optFromEpochMs(rec.LastUpdated),
		CreatedAt:   fromEpochMs(rec.CreatedAt),
		Notified:    rec.Notified,
		CompletedAt: optFromEpochMs(rec.CompletedAt),
	}
	if rec.DurationMs > models.MaxTimerDuration.Milliseconds() {
		t.Duration = models.MaxTimerDuration
	}
	if rec.RemainingMs > models.MaxTimerDuration.Milliseconds() {
		t.Remaining = models.MaxTimerDuration
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Label == "" {
		t.Label = models.DefaultTimerLabel
	}
	if rec.CreatedAt == 0 {
		t.CreatedAt = now
	}
	normalizeTimer(t)
	return t
}

// encodeLocked serializes the board. Caller holds b.mu.
func (b *Board) encodeLocked() ([]byte, error) {
	snap := snapshot{
		Version:     SchemaVersion,
		Timers:      make([]timerRecord, 0, b.registry.Len()),
		IsDark:      b.flags.IsDark,
		DenseLayout: b.flags.DenseLayout,
		Muted:       b.alerts.muted,
	}
	b.registry.ForEach(func(t *models.Timer) {
		snap.Timers = append(snap.Timers, encodeTimer(t))
	})
	return json.Marshal(snap)
}

// Hydrate restores the board from the store. Every failure is logged and
// leaves the board usable; the returned error is only ErrDisposed.
func (b *Board) Hydrate(ctx context.Context) error {
	b.mu.Lock()
	disposed := b.disposed
	b.mu.Unlock()
	if disposed {
		return ErrDisposed
	}
	if b.store == nil {
		return nil
	}

	key := b.cfg.StorageKey
	raw, ok, err := b.store.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to read board snapshot")
		return nil
	}
	if !ok || raw == "" {
		return nil
	}

	env, err := parseEnvelope([]byte(raw))
	if err != nil {
		log.Warn().
			Err(err).
			Str("key", key).
			Msg("unable to restore state, clearing corrupted entry")
		if err := b.store.Remove(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to clear corrupted state")
		}
		return nil
	}

	if v, ok := env.version(); ok && v > SchemaVersion {
		log.Warn().
			Err(ErrUnsupportedNewerSchema).
			Float64("stored_version", v).
			Int("supported_version", SchemaVersion).
			Msg("stored data is from a newer version, skipping hydration")
		return nil
	}
	stored := env.decode()

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.disposed {
		return ErrDisposed
	}
	b.restoreLocked(stored)
	return nil
}

// restoreLocked applies a version-checked snapshot. Future schema migrations
// would run between the version gate and here.
func (b *Board) restoreLocked(stored storedSnapshot) {
	if stored.IsDark != nil {
		b.flags.IsDark = *stored.IsDark
	}
	if stored.DenseLayout != nil {
		b.flags.DenseLayout = *stored.DenseLayout
	}
	if stored.Muted != nil {
		b.alerts.muted = *stored.Muted
	}

	if stored.Timers == nil {
		b.emitLocked(EventBoardHydrated, nil, "")
		return
	}

	now := b.now()
	timers := make([]*models.Timer, 0, len(stored.Timers))
	for _, rec := range stored.Timers {
		timers = append(timers, b.decodeTimer(rec, now))
	}
	b.alerts.ClearAllRepeats()
	b.registry.Replace(timers)

	b.registry.ForEach(func(t *models.Timer) {
		if isRunning(t) {
			since := t.CreatedAt
			if t.LastUpdated != nil {
				since = *t.LastUpdated
			}
			if advanceTimer(t, since, now) {
				b.completeLocked(t, now)
			}
		}
		if isDone(t) {
			t.IsRunning = false
			t.Remaining = 0
			if t.CompletedAt == nil {
				completed := now
				t.CompletedAt = &completed
			}
			b.alerts.ScheduleRepeat(t)
		}
	})

	b.pruneLocked(now)
	b.setArmedLocked(b.registry.Any(isRunning))

	log.Info().
		Int("timers", b.registry.Len()).
		Bool("ticking", b.armed).
		Bool("muted", b.alerts.muted).
		Msg("board hydrated")

	b.schedulePersistLocked()
	b.emitLocked(EventBoardHydrated, nil, "")
}

// pendingFlush is the one delayed write. A newer mutation replaces it.
type pendingFlush struct {
	timer clockwork.Timer
}

// schedulePersistLocked (re)starts the quiescence window. Any burst of
// mutations inside the window ends in a single write of the final state.
func (b *Board) schedulePersistLocked() {
	if b.store == nil || b.disposed {
		return
	}
	if b.pending != nil {
		b.pending.timer.Stop()
	}
	p := &pendingFlush{}
	p.timer = b.clock.AfterFunc(b.cfg.PersistDebounce, func() {
		b.mu.Lock()
		if b.pending != p {
			b.mu.Unlock()
			return
		}
		b.pending = nil
		b.mu.Unlock()
		b.persistNow()
	})
	b.pending = p
}

// Flush writes the current state immediately, dropping any pending write.
func (b *Board) Flush() error {
	b.mu.Lock()
	if b.pending != nil {
		b.pending.timer.Stop()
		b.pending = nil
	}
	b.mu.Unlock()
	return b.persistNow()
}

// persistNow encodes under the board lock and writes outside it. Failures are
// logged and not retried.
func (b *Board) persistNow() error {
	if b.store == nil {
		return nil
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.Lock()
	data, err := b.encodeLocked()
	b.mu.Unlock()
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrPersistWrite, err)
		log.Warn().Err(err).Msg("unable to encode board state")
		return err
	}

	if err := b.store.Set(context.Background(), b.cfg.StorageKey, string(data)); err != nil {
		err = errors.Join(ErrPersistWrite, err)
		log.Warn().Err(err).Str("key", b.cfg.StorageKey).Msg("unable to persist state")
		return err
	}
	log.Debug().Int("bytes", len(data)).Msg("board snapshot written")
	return nil
}
