// Package tone provides the completion sound players.
package tone

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrUnavailable means the host has no usable way to play a tone. Callers
// treat it as silence, not as a failure worth reporting.
var ErrUnavailable = errors.New("tone playback unavailable")

// Player plays one completion tone per Attempt.
type Player interface {
	Attempt(ctx context.Context) error
	Close() error
}

// Factory builds the shared player on first use.
type Factory func() (Player, error)

// Supported player kinds.
const (
	KindNone = "none"
	KindBell = "bell"
	KindDBus = "dbus"
)

// NewFactory returns a factory for the named kind. Bell tones go to w, or to
// stdout when w is nil.
func NewFactory(kind string, w io.Writer) (Factory, error) {
	switch kind {
	case "", KindNone:
		return func() (Player, error) { return nil, ErrUnavailable }, nil
	case KindBell:
		if w == nil {
			w = os.Stdout
		}
		return func() (Player, error) { return NewBell(w), nil }, nil
	case KindDBus:
		return func() (Player, error) { return NewDBus() }, nil
	default:
		return nil, fmt.Errorf("unknown tone kind %q", kind)
	}
}
