//go:build linux

package main

import (
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	dbusNotifyDest      = "org.freedesktop.Notifications"
	dbusNotifyPath      = "/org/freedesktop/Notifications"
	dbusNotifyInterface = "org.freedesktop.Notifications"

	// notifyTimeoutMS is how long the notification stays on screen.
	notifyTimeoutMS = int32(3000)
)

// dbusNotifier sends notifications via the session bus.
type dbusNotifier struct {
	obj dbus.BusObject
}

func (n *dbusNotifier) Notify(summary, body string, replacesID uint32) (uint32, error) {
	hints := map[string]dbus.Variant{
		"desktop-entry": dbus.MakeVariant("musicbox"),
	}

	// Notify(app_name, replaces_id, icon, summary, body, actions, hints, timeout) -> id
	call := n.obj.Call(
		dbusNotifyInterface+".Notify",
		0,
		"musicbox",
		replacesID,
		"audio-x-generic",
		summary,
		body,
		[]string{},
		hints,
		notifyTimeoutMS,
	)
	if call.Err != nil {
		return 0, fmt.Errorf("dbus notify: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("dbus notify reply: %w", err)
	}
	return id, nil
}

// newNotifyDevice connects to the session bus. Without one it returns a no-op device
// so the daemon keeps running on headless hosts.
func newNotifyDevice(logger *slog.Logger) Device {
	conn, err := dbus.SessionBus()
	if err != nil {
		logger.Warn("desktop notifications disabled: no session bus", "error", err)
		return nopDevice{}
	}
	obj := conn.Object(dbusNotifyDest, dbus.ObjectPath(dbusNotifyPath))
	return newNotifyDeviceWith(&dbusNotifier{obj: obj}, logger)
}
