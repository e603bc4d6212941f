package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
)

// inputEvent represents a Linux input event structure
// struct input_event { struct timeval time; __u16 type; __u16 code; __s32 value; };
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// inputEventSize is the on-the-wire size of inputEvent (24 bytes on 64-bit kernels).
var inputEventSize = binary.Size(inputEvent{})

// decodeInputEvent parses one raw evdev record.
func decodeInputEvent(buf []byte) (inputEvent, error) {
	var ev inputEvent
	if len(buf) < inputEventSize {
		return ev, fmt.Errorf("short input event: %d bytes", len(buf))
	}
	if err := binary.Read(bytes.NewReader(buf[:inputEventSize]), binary.LittleEndian, &ev); err != nil {
		return ev, fmt.Errorf("decode input event: %w", err)
	}
	return ev, nil
}

// translateInputEvent maps a key press to a player Event.
// Releases, autorepeat and unrelated keys are dropped here so they never reach the daemon.
func translateInputEvent(ev inputEvent) (Event, bool) {
	if ev.Type != EV_KEY || ev.Value != evValuePress {
		return 0, false
	}
	switch ev.Code {
	case KEY_POWER:
		return PowerToggle, true
	case KEY_PLAYPAUSE:
		return PlayPauseToggle, true
	default:
		return 0, false
	}
}

// runInputReader opens the configured devices and forwards translated key presses to
// the daemon until ctx is canceled or a device fails.
func runInputReader(ctx context.Context, devices []string, messages chan<- DaemonMessage, logger *slog.Logger) error {
	files := make([]*os.File, 0, len(devices))
	defer func() {
		for _, f := range files {
			f.Close()
		}
	}()

	for _, dev := range devices {
		f, err := os.Open(dev)
		if err != nil {
			return fmt.Errorf("open input device %s (run as root or add user to 'input' group): %w", dev, err)
		}
		files = append(files, f)
	}

	raw := make(chan inputEvent, 64)
	readErr := make(chan error, 1)
	go readInputEvents(ctx, files, raw, readErr)

	logger.Info("input devices open", "devices", devices)

	for {
		select {
		case <-ctx.Done():
			return nil

		case err := <-readErr:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("input reader stopped: %w", err)

		case ev := <-raw:
			pe, ok := translateInputEvent(ev)
			if !ok {
				continue
			}
			logger.Debug("button pressed", "event", pe, "code", ev.Code)

			select {
			case messages <- DeliverEvent{Event: pe}:
			case <-ctx.Done():
				return nil
			}
		}
	}
}
