package main

import (
	"encoding/json"
	"fmt"
)

// ============================================================================
// Events - discrete inputs to the player controller
// ============================================================================
// Events are produced by input sources (IR remote, IPC clients) and delivered
// to the controller one at a time by the daemon loop. The set is closed: an
// input source that cannot map its trigger to one of these drops it before it
// reaches the daemon.
// ============================================================================

// Event is a button press delivered to the controller. It carries no payload.
type Event int

const (
	// PowerToggle is the "on / off" button.
	PowerToggle Event = iota
	// PlayPauseToggle is the "play / pause" button.
	PlayPauseToggle
)

var allEvents = [...]Event{PowerToggle, PlayPauseToggle}

// AllEvents lists every event in menu order.
func AllEvents() []Event {
	out := make([]Event, len(allEvents))
	copy(out, allEvents[:])
	return out
}

// Valid reports whether e is one of the declared events.
func (e Event) Valid() bool {
	return e >= PowerToggle && e <= PlayPauseToggle
}

// String returns the event name for logs.
func (e Event) String() string {
	switch e {
	case PowerToggle:
		return "PowerToggle"
	case PlayPauseToggle:
		return "PlayPauseToggle"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Label is the text printed next to the button in the numbered menu.
func (e Event) Label() string {
	switch e {
	case PowerToggle:
		return "on / off"
	case PlayPauseToggle:
		return "play / pause"
	default:
		return "unknown"
	}
}

// WireName is the type discriminator used on the IPC socket and state stream.
func (e Event) WireName() string {
	switch e {
	case PowerToggle:
		return "power_toggle"
	case PlayPauseToggle:
		return "play_pause_toggle"
	default:
		return ""
	}
}

// ParseEvent maps a wire name back to an Event.
func ParseEvent(name string) (Event, error) {
	for _, e := range allEvents {
		if e.WireName() == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown event type: %q", name)
}

// MarshalText implements encoding.TextMarshaler so events render as wire names in JSON.
func (e Event) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("marshal event: invalid value %d", int(e))
	}
	return []byte(e.WireName()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Event) UnmarshalText(b []byte) error {
	ev, err := ParseEvent(string(b))
	if err != nil {
		return err
	}
	*e = ev
	return nil
}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================

// EventEnvelope is the wire form of an event: {"type": "power_toggle"}.
type EventEnvelope struct {
	Type string `json:"type"`
}

// unmarshalEvent deserializes a JSON event envelope into an Event.
func unmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return 0, fmt.Errorf("unmarshal envelope: %w", err)
	}
	return ParseEvent(env.Type)
}

// marshalEvent serializes an Event into a JSON event envelope.
func marshalEvent(e Event) ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("marshal event: invalid value %d", int(e))
	}
	return json.Marshal(EventEnvelope{Type: e.WireName()})
}
