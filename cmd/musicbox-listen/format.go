package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Frame types and payloads (duplicated from musicboxd for standalone binary)

type envelope struct {
	Type string          `json:"type"`
	Ts   *time.Time      `json:"ts,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

type stateInit struct {
	InstanceID  string    `json:"instance_id"`
	State       string    `json:"state"`
	Indicator   bool      `json:"indicator"`
	Since       time.Time `json:"since"`
	Transitions uint64    `json:"transitions"`
}

type stateChanged struct {
	Event     string `json:"event"`
	From      string `json:"from"`
	To        string `json:"to"`
	Indicator bool   `json:"indicator"`
}

// formatter renders frames as one line each, noting the time since the previous frame.
type formatter struct {
	last time.Time
}

// Format renders one frame. now is used when the frame carries no timestamp.
func (f *formatter) Format(message []byte, now time.Time) string {
	var env envelope
	if err := json.Unmarshal(message, &env); err != nil || env.Type == "" {
		return fmt.Sprintf("[TEXT] %s", message)
	}

	at := now
	if env.Ts != nil {
		at = *env.Ts
	}
	delta := ""
	if !f.last.IsZero() {
		delta = " (+" + sincePrevious(f.last, at) + ")"
	}
	f.last = at

	switch env.Type {
	case "state_init":
		var d stateInit
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return fmt.Sprintf("[INIT] undecodable: %v", err)
		}
		line := fmt.Sprintf("[INIT] %s, indicator %s, %s transitions",
			d.State, onOff(d.Indicator), humanize.Comma(int64(d.Transitions)))
		if !d.Since.IsZero() {
			line += ", since " + humanize.RelTime(d.Since, at, "ago", "from now")
		}
		return line + delta

	case "state_changed":
		var d stateChanged
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return fmt.Sprintf("[CHANGED] undecodable: %v", err)
		}
		return fmt.Sprintf("[CHANGED] %s: %s -> %s, indicator %s%s",
			d.Event, d.From, d.To, onOff(d.Indicator), delta)

	default:
		return fmt.Sprintf("[%s] %s%s", strings.ToUpper(env.Type), env.Data, delta)
	}
}

func sincePrevious(prev, at time.Time) string {
	if at.Sub(prev) < time.Second {
		return "<1s"
	}
	return strings.TrimSpace(humanize.RelTime(prev, at, "", ""))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
