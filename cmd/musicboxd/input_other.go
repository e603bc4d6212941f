//go:build !linux

package main

import (
	"context"
	"errors"
	"os"
)

// readInputEvents is only implemented on Linux, where evdev devices exist.
func readInputEvents(_ context.Context, _ []*os.File, _ chan<- inputEvent, readErr chan<- error) {
	readErr <- errors.New("input devices are only supported on linux")
}
