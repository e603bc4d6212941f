package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{"error", LogLevelError, false},
		{"WARN", LogLevelWarn, false},
		{"warning", LogLevelWarn, false},
		{" info ", LogLevelInfo, false},
		{"debug", LogLevelDebug, false},
		{"trace", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := parseLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLogLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetupLogger_LevelAndTextValues(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, LogLevelInfo)

	logger.Debug("hidden")
	logger.Info("entering state", "state", StatePlaying, "event", PlayPauseToggle)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line written at info level:\n%s", out)
	}
	if !strings.Contains(out, "state=playing") || !strings.Contains(out, "event=play_pause_toggle") {
		t.Fatalf("unexpected attribute rendering:\n%s", out)
	}
}

func TestController_TraceLines(t *testing.T) {
	var buf bytes.Buffer
	ctrl := NewController(newLogDevice(setupLogger(&buf, LogLevelInfo)),
		WithControllerLogger(setupLogger(&buf, LogLevelInfo)))

	if _, err := ctrl.Handle(PowerToggle); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	out := buf.String()
	idxExit := strings.Index(out, `msg="exiting state" state=inactive`)
	idxEnter := strings.Index(out, `msg="entering state" state=on`)
	idxInd := strings.LastIndex(out, `msg="indicator on"`)
	if idxExit < 0 || idxEnter < 0 || idxInd < 0 {
		t.Fatalf("missing trace lines:\n%s", out)
	}
	if !(idxExit < idxEnter && idxEnter < idxInd) {
		t.Fatalf("trace lines out of order:\n%s", out)
	}
}
