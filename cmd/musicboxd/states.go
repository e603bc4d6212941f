package main

import (
	"fmt"
	"strings"
)

// StateID identifies one of the player's mutually exclusive modes.
//
//	┌──────────┐   power    ┌──────────┐
//	│ Inactive │ ─────────▶ │    On    │
//	└──────────┘ ◀───────── └──────────┘
//	   ▲            power        │
//	   │                  play/  │
//	   │ power            pause  ▼
//	┌──────────┐ play/pause ┌──────────┐
//	│  Paused  │ ◀───────── │ Playing  │
//	└──────────┘ ─────────▶ └──────────┘
//	              play/pause
//
// Playing has no power transition; see transitions in reducer.go.
type StateID int

const (
	StateInactive StateID = iota
	StateOn
	StatePlaying
	StatePaused
)

var allStates = [...]StateID{StateInactive, StateOn, StatePlaying, StatePaused}

// AllStates lists every state in declaration order.
func AllStates() []StateID {
	out := make([]StateID, len(allStates))
	copy(out, allStates[:])
	return out
}

// String returns the state name.
func (s StateID) String() string {
	switch s {
	case StateInactive:
		return "Inactive"
	case StateOn:
		return "On"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText renders the state in lower case ("playing") for JSON payloads.
func (s StateID) MarshalText() ([]byte, error) {
	switch s {
	case StateInactive, StateOn, StatePlaying, StatePaused:
		return []byte(strings.ToLower(s.String())), nil
	default:
		return nil, fmt.Errorf("marshal state: invalid value %d", int(s))
	}
}

// UnmarshalText accepts the lower-case form produced by MarshalText.
func (s *StateID) UnmarshalText(b []byte) error {
	name := string(b)
	for _, st := range allStates {
		if strings.EqualFold(st.String(), name) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state: %q", name)
}

// IsActive reports whether the player is powered (indicator lit).
func (s StateID) IsActive() bool {
	return s != StateInactive
}
