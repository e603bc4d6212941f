//go:build !linux

package main

import "log/slog"

func newNotifyDevice(logger *slog.Logger) Device {
	logger.Warn("desktop notifications are only supported on linux")
	return nopDevice{}
}
