package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ============================================================================
// Central Daemon Loop - single owner of the controller
// ============================================================================
//
// Design rules enforced here:
//   - Only the daemon goroutine touches the Controller and DaemonState.
//   - Messages from every input source (IR, IPC, HTTP snapshot requests) arrive on one
//     channel and are processed to completion, one at a time, including all device
//     side effects. This is what serializes concurrent callers.
//   - Replies and broadcasts never block the loop.
//
// ============================================================================

// DaemonMessage is anything the daemon loop accepts.
type DaemonMessage interface {
	daemonMessageMarker()
}

// DeliverEvent asks the daemon to hand Event to the controller.
// If Reply is non-nil the post-transition snapshot is sent on it.
type DeliverEvent struct {
	Event Event
	Reply chan<- StateSnapshot
}

func (DeliverEvent) daemonMessageMarker() {}

// RequestStateSnapshot asks for the current snapshot without changing anything.
type RequestStateSnapshot struct {
	Reply chan<- StateSnapshot
}

func (RequestStateSnapshot) daemonMessageMarker() {}

// runDaemon is the main daemon loop. It:
//   - Receives messages from all input sources
//   - Delivers events to the controller
//   - Publishes StateBroadcast values after each completed transition
//   - Answers snapshot requests
//
// Shutdown semantics:
//   - Exits when ctx is canceled
//   - Exits cleanly when the messages channel is closed
func runDaemon(
	ctx context.Context,
	messages <-chan DaemonMessage,
	ctrl *Controller,
	state *DaemonState,
	broadcasts chan<- StateBroadcast,
	logger *slog.Logger,
) error {
	if ctrl == nil {
		return errors.New("daemon controller is nil")
	}
	if state == nil {
		state = &DaemonState{}
	}
	if state.Since.IsZero() {
		state.Since = time.Now()
	}

	logger.Info("daemon started", "state", ctrl.CurrentState(), "instance_id", state.InstanceID)
	for _, r := range Rules() {
		logger.Debug("transition", "from", r.From, "event", r.Event, "to", r.To)
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("daemon stopping (context canceled)")
			return nil

		case msg, ok := <-messages:
			if !ok {
				logger.Info("daemon stopping (messages channel closed)")
				return nil
			}
			handleDaemonMessage(msg, ctrl, state, broadcasts, logger)
		}
	}
}

func handleDaemonMessage(
	msg DaemonMessage,
	ctrl *Controller,
	state *DaemonState,
	broadcasts chan<- StateBroadcast,
	logger *slog.Logger,
) {
	switch m := msg.(type) {
	case DeliverEvent:
		if !m.Event.Valid() {
			logger.Warn("dropping invalid event", "event", int(m.Event))
			replySnapshot(m.Reply, state.snapshot(ctrl), logger)
			return
		}

		tr, err := ctrl.Handle(m.Event)
		if err != nil {
			logger.Error("event not handled", "event", m.Event, "error", err)
			replySnapshot(m.Reply, state.snapshot(ctrl), logger)
			return
		}

		now := time.Now()
		state.RecordEvent(tr, now)

		if tr.Changed {
			publishBroadcast(broadcasts, BroadcastStateChanged{
				Event:     tr.Event,
				From:      tr.From,
				To:        tr.To,
				Indicator: ctrl.Indicator(),
				At:        now,
			}, logger)
		}

		replySnapshot(m.Reply, state.snapshot(ctrl), logger)

	case RequestStateSnapshot:
		replySnapshot(m.Reply, state.snapshot(ctrl), logger)

	default:
		logger.Warn("unknown daemon message", "type", fmt.Sprintf("%T", msg))
	}
}

func replySnapshot(reply chan<- StateSnapshot, snap StateSnapshot, logger *slog.Logger) {
	if reply == nil {
		return
	}
	select {
	case reply <- snap:
	default:
		logger.Warn("snapshot reply channel not ready; dropping snapshot")
	}
}

func publishBroadcast(broadcasts chan<- StateBroadcast, b StateBroadcast, logger *slog.Logger) {
	if broadcasts == nil {
		return
	}
	select {
	case broadcasts <- b:
	default:
		logger.Warn("broadcast queue full, dropping state broadcast")
	}
}

// ============================================================================
// Request helpers for other goroutines
// ============================================================================

// errQueueFull is returned when the daemon message queue has no room.
var errQueueFull = errors.New("event queue full")

// snapshotTimeout bounds how long a requester waits for the daemon to answer.
const snapshotTimeout = 1 * time.Second

// deliverEvent sends ev to the daemon and waits for the resulting snapshot.
func deliverEvent(ctx context.Context, messages chan<- DaemonMessage, ev Event) (StateSnapshot, error) {
	reply := make(chan StateSnapshot, 1)
	return roundTrip(ctx, messages, DeliverEvent{Event: ev, Reply: reply}, reply)
}

// requestSnapshot asks the daemon for the current snapshot.
func requestSnapshot(ctx context.Context, messages chan<- DaemonMessage) (StateSnapshot, error) {
	reply := make(chan StateSnapshot, 1)
	return roundTrip(ctx, messages, RequestStateSnapshot{Reply: reply}, reply)
}

func roundTrip(ctx context.Context, messages chan<- DaemonMessage, msg DaemonMessage, reply <-chan StateSnapshot) (StateSnapshot, error) {
	select {
	case messages <- msg:
	default:
		return StateSnapshot{}, errQueueFull
	}

	waitCtx := ctx
	if _, has := ctx.Deadline(); !has {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, snapshotTimeout)
		defer cancel()
	}

	select {
	case <-waitCtx.Done():
		return StateSnapshot{}, fmt.Errorf("wait for daemon: %w", waitCtx.Err())
	case snap := <-reply:
		return snap, nil
	}
}
