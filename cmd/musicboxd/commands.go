package main

import "fmt"

// ==============================
// Commands (side effects)
// ==============================

// Command is a device side effect requested by a state's entry or exit action.
// Commands are plain data; runEffect is the only place that turns them into device calls.
type Command interface {
	commandMarker()
	String() string
}

// CmdSetIndicator switches the power indicator.
type CmdSetIndicator struct {
	On bool
}

func (CmdSetIndicator) commandMarker()   {}
func (c CmdSetIndicator) String() string { return fmt.Sprintf("CmdSetIndicator(on=%v)", c.On) }

// CmdStartPlayback starts (or resumes) playback.
type CmdStartPlayback struct{}

func (CmdStartPlayback) commandMarker() {}
func (CmdStartPlayback) String() string { return "CmdStartPlayback()" }

// CmdPausePlayback pauses playback.
type CmdPausePlayback struct{}

func (CmdPausePlayback) commandMarker() {}
func (CmdPausePlayback) String() string { return "CmdPausePlayback()" }
