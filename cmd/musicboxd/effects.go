package main

// runEffect executes a single Command against the device.
//
// Design rules:
//   - This is the only place that calls Device methods.
//   - It never looks at or changes controller state; the controller records the
//     indicator flag itself before calling in here.
func runEffect(device Device, cmd Command) error {
	if device == nil {
		return errNoDevice{}
	}

	switch c := cmd.(type) {
	case CmdSetIndicator:
		device.SetIndicator(c.On)
	case CmdStartPlayback:
		device.StartPlayback()
	case CmdPausePlayback:
		device.PausePlayback()
	default:
		return errUnknownCommand{cmd: cmd}
	}
	return nil
}

// errNoDevice indicates a command was executed without a device.
type errNoDevice struct{}

func (errNoDevice) Error() string { return "no device" }

type errUnknownCommand struct {
	cmd Command
}

func (e errUnknownCommand) Error() string {
	if e.cmd == nil {
		return "unknown command: <nil>"
	}
	return "unknown command: " + e.cmd.String()
}
