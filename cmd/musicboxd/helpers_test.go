package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

// discardLogger keeps test output quiet.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitUntil polls cond until it returns true or timeout elapses.
func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// recordingDevice records every device call in order.
type recordingDevice struct {
	calls []string
}

func (d *recordingDevice) SetIndicator(on bool) {
	if on {
		d.calls = append(d.calls, "indicator:on")
		return
	}
	d.calls = append(d.calls, "indicator:off")
}

func (d *recordingDevice) StartPlayback() { d.calls = append(d.calls, "start") }
func (d *recordingDevice) PausePlayback() { d.calls = append(d.calls, "pause") }

func (d *recordingDevice) reset() { d.calls = nil }

// testDaemon runs runDaemon in the background until the test ends.
type testDaemon struct {
	messages   chan DaemonMessage
	broadcasts chan StateBroadcast
	ctrl       *Controller
	state      *DaemonState
	device     *recordingDevice
	done       chan error
}

func startTestDaemon(t *testing.T) *testDaemon {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	dev := &recordingDevice{}
	td := &testDaemon{
		messages:   make(chan DaemonMessage, 64),
		broadcasts: make(chan StateBroadcast, 64),
		ctrl:       NewController(dev, WithControllerLogger(discardLogger())),
		state:      &DaemonState{InstanceID: "test-instance"},
		device:     dev,
		done:       make(chan error, 1),
	}

	go func() {
		td.done <- runDaemon(ctx, td.messages, td.ctrl, td.state, td.broadcasts, discardLogger())
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case <-td.done:
		case <-time.After(time.Second):
			t.Errorf("daemon did not stop")
		}
	})

	return td
}
