package main

import "log/slog"

// notifier posts a desktop notification. replacesID of 0 creates a new one; the
// returned id can be passed back to update it in place.
type notifier interface {
	Notify(summary, body string, replacesID uint32) (uint32, error)
}

const notifySummary = "Music player"

// notifyDevice shows device actions as a single, continuously replaced desktop
// notification. Failures are logged and swallowed.
type notifyDevice struct {
	n      notifier
	logger *slog.Logger
	lastID uint32
}

func newNotifyDeviceWith(n notifier, logger *slog.Logger) *notifyDevice {
	if logger == nil {
		logger = slog.Default()
	}
	return &notifyDevice{n: n, logger: logger}
}

func (d *notifyDevice) SetIndicator(on bool) {
	if on {
		d.post("Power on")
		return
	}
	d.post("Power off")
}

func (d *notifyDevice) StartPlayback() { d.post("Music playing") }

func (d *notifyDevice) PausePlayback() { d.post("Music paused") }

func (d *notifyDevice) post(body string) {
	id, err := d.n.Notify(notifySummary, body, d.lastID)
	if err != nil {
		d.logger.Warn("desktop notification failed", "body", body, "error", err)
		return
	}
	if id != 0 {
		d.lastID = id
	}
}
