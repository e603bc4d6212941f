package main

import "log/slog"

// Device is the hardware the player drives from its entry actions.
//
// Calls are synchronous and must return before the entry action that issued them
// completes. Implementations handle their own failures (log and continue); the
// controller treats every call as successful.
type Device interface {
	SetIndicator(on bool)
	StartPlayback()
	PausePlayback()
}

// logDevice writes one trace line per device action.
type logDevice struct {
	logger *slog.Logger
}

func newLogDevice(logger *slog.Logger) *logDevice {
	if logger == nil {
		logger = slog.Default()
	}
	return &logDevice{logger: logger}
}

func (d *logDevice) SetIndicator(on bool) {
	if on {
		d.logger.Info("indicator on")
		return
	}
	d.logger.Info("indicator off")
}

func (d *logDevice) StartPlayback() {
	d.logger.Info("music playing")
}

func (d *logDevice) PausePlayback() {
	d.logger.Info("music paused")
}

// multiDevice forwards every call to each device in order.
type multiDevice []Device

func (m multiDevice) SetIndicator(on bool) {
	for _, d := range m {
		d.SetIndicator(on)
	}
}

func (m multiDevice) StartPlayback() {
	for _, d := range m {
		d.StartPlayback()
	}
}

func (m multiDevice) PausePlayback() {
	for _, d := range m {
		d.PausePlayback()
	}
}

type nopDevice struct{}

func (nopDevice) SetIndicator(bool) {}
func (nopDevice) StartPlayback()    {}
func (nopDevice) PausePlayback()    {}
