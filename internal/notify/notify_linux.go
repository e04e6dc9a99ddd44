//go:build linux

package notify

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsCall  = notificationsName + ".Notify"
	notificationExpiry = int32(5000)
)

type freedesktop struct {
	logger *slog.Logger
}

func platform(logger *slog.Logger) Notifier {
	return freedesktop{logger: logger}
}

func (n freedesktop) Notify(title, body string) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var id uint32
	obj := conn.Object(notificationsName, dbus.ObjectPath(notificationsPath))
	call := obj.Call(notificationsCall, 0,
		AppName, uint32(0), "", title, body,
		[]string{}, map[string]dbus.Variant{}, notificationExpiry)
	if call.Err != nil {
		return fmt.Errorf("notify: %w", call.Err)
	}
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("notify reply: %w", err)
	}
	n.logger.Debug("notification shown", "title", title, "id", id)
	return nil
}
