package board

import "errors"

var (
	// ErrTimerNotFound is returned when an operation names an unknown timer id.
	ErrTimerNotFound = errors.New("timer not found")

	// ErrInvalidDuration is returned when a new timer would have no time on it.
	ErrInvalidDuration = errors.New("timer duration must be positive")

	// ErrInvalidTransition is returned when the requested status change is not allowed.
	ErrInvalidTransition = errors.New("invalid timer status transition")

	// ErrNothingRemaining is returned when starting a timer that has already run out.
	ErrNothingRemaining = errors.New("timer has no time remaining")

	// ErrDisposed is returned once the board has been torn down.
	ErrDisposed = errors.New("board disposed")
)

// Persistence failure kinds. None of them are fatal; they are logged and the
// board carries on with what it has.
var (
	ErrCorruptPersistedState  = errors.New("persisted board state is corrupt")
	ErrUnsupportedNewerSchema = errors.New("persisted board state is from a newer schema")
	ErrPersistWrite           = errors.New("failed to write board snapshot")
)
