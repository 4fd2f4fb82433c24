package tone

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notifyObj    = "org.freedesktop.Notifications"
	notifyPath   = "/org/freedesktop/Notifications"
	notifyMethod = "org.freedesktop.Notifications.Notify"

	appName   = "Prepboard"
	soundName = "alarm-clock-elapsed"
)

// DBus asks the desktop notification daemon to play the alarm sound.
type DBus struct {
	conn *dbus.Conn
}

// NewDBus opens a private session bus connection. A missing session bus is
// reported as ErrUnavailable.
func NewDBus() (*DBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &DBus{conn: conn}, nil
}

func (d *DBus) Attempt(ctx context.Context) error {
	obj := d.conn.Object(notifyObj, notifyPath)
	hints := map[string]dbus.Variant{
		"sound-name": dbus.MakeVariant(soundName),
		"urgency":    dbus.MakeVariant(byte(2)),
	}

	call := obj.CallWithContext(ctx,
		notifyMethod,
		0,
		appName,
		uint32(0),
		"",
		"Timer finished",
		"",
		[]string{},
		hints,
		int32(-1),
	)
	if call.Err != nil {
		return fmt.Errorf("failed to send notification: %w", call.Err)
	}
	return nil
}

func (d *DBus) Close() error {
	return d.conn.Close()
}
