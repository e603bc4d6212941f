package main

import "time"

// DaemonState is the daemon-owned bookkeeping kept next to the controller.
//
// The controller holds the player state proper (current state, indicator). This struct
// keeps what observers want to know about the daemon itself, so a coherent snapshot
// can be published to IPC and WebSocket clients.
type DaemonState struct {
	// InstanceID identifies this daemon run; clients use it to detect restarts.
	InstanceID string

	// Since is when the current state was entered (daemon start for the initial state).
	Since time.Time

	// Transitions counts state changes since start. Ignored events are not counted.
	Transitions uint64

	// LastEvent is the most recent event delivered, handled or ignored.
	LastEvent      Event
	LastEventKnown bool
}

// RecordEvent updates bookkeeping after the controller handled ev.
// This is intended to be called only by the daemon goroutine (single-owner).
func (s *DaemonState) RecordEvent(tr Transition, now time.Time) {
	s.LastEvent = tr.Event
	s.LastEventKnown = true
	if tr.Changed {
		s.Transitions++
		s.Since = now
	}
}

// StateSnapshot is the externally visible view of the player.
type StateSnapshot struct {
	InstanceID  string    `json:"instance_id"`
	State       StateID   `json:"state"`
	Indicator   bool      `json:"indicator"`
	Since       time.Time `json:"since"`
	Transitions uint64    `json:"transitions"`
	LastEvent   *Event    `json:"last_event,omitempty"`
}

// snapshot builds a StateSnapshot from the controller and bookkeeping.
func (s *DaemonState) snapshot(c *Controller) StateSnapshot {
	snap := StateSnapshot{
		InstanceID:  s.InstanceID,
		State:       c.CurrentState(),
		Indicator:   c.Indicator(),
		Since:       s.Since,
		Transitions: s.Transitions,
	}
	if s.LastEventKnown {
		ev := s.LastEvent
		snap.LastEvent = &ev
	}
	return snap
}

// ==============================
// Broadcasts (observer notifications)
// ==============================

// StateBroadcast is emitted by the daemon loop for observers (WebSocket clients).
type StateBroadcast interface {
	broadcastMarker()
}

// BroadcastStateChanged is emitted after every completed transition.
type BroadcastStateChanged struct {
	Event     Event
	From      StateID
	To        StateID
	Indicator bool
	At        time.Time
}

func (BroadcastStateChanged) broadcastMarker() {}
