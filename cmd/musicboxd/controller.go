package main

import (
	"errors"
	"log/slog"
)

// ErrReentrantHandle is returned when Handle is called while a transition is running,
// for example from inside a device action.
var ErrReentrantHandle = errors.New("event delivered while a transition is in progress")

// TraceKind tells whether a TraceStep is an exit or an entry.
type TraceKind int

const (
	TraceExit TraceKind = iota
	TraceEntry
)

func (k TraceKind) String() string {
	switch k {
	case TraceExit:
		return "exit"
	case TraceEntry:
		return "entry"
	default:
		return "unknown"
	}
}

// TraceStep is reported once per exit and once per entry, in execution order.
type TraceStep struct {
	Kind  TraceKind
	State StateID
}

// Transition describes the outcome of Handle. When Changed is false the event was
// ignored and From == To.
type Transition struct {
	Event   Event
	From    StateID
	To      StateID
	Changed bool
}

// ControllerOption is a functional option for configuring a Controller.
type ControllerOption func(*Controller)

// WithControllerLogger sets the logger used for state trace lines.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithTrace sets a callback invoked for every exit and entry step.
func WithTrace(fn func(TraceStep)) ControllerOption {
	return func(c *Controller) {
		c.trace = fn
	}
}

// Controller owns the current state of the player and runs the transition protocol:
// exit(old), swap, entry(new).
//
// A Controller is not safe for concurrent use. The daemon loop is its single owner;
// other goroutines deliver events through the daemon's message channel.
type Controller struct {
	current   StateID
	indicator bool

	device Device
	logger *slog.Logger
	trace  func(TraceStep)

	// busy is set for the whole exit/swap/entry sequence.
	busy bool
}

// NewController builds a controller in the Inactive state and runs Inactive's entry action.
func NewController(device Device, opts ...ControllerOption) *Controller {
	c := &Controller{
		current: StateInactive,
		device:  device,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.device == nil {
		c.device = nopDevice{}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}

	c.busy = true
	c.enter(StateInactive)
	c.busy = false

	return c
}

// Handle delivers one event. If the current state reacts to it, the outgoing state's
// exit runs, the current state is replaced and the incoming state's entry runs, all
// before Handle returns. Events the current state ignores are a no-op.
func (c *Controller) Handle(ev Event) (Transition, error) {
	from := c.current
	if c.busy {
		return Transition{Event: ev, From: from, To: from}, ErrReentrantHandle
	}

	to, ok := Next(from, ev)
	if !ok {
		c.logger.Debug("event ignored", "event", ev, "state", from)
		return Transition{Event: ev, From: from, To: from}, nil
	}

	c.logger.Debug("handling event", "event", ev, "from", from, "to", to)

	c.busy = true
	defer func() { c.busy = false }()

	c.exit(from)
	c.current = to
	c.enter(to)

	return Transition{Event: ev, From: from, To: to, Changed: true}, nil
}

// CurrentState returns the active state.
func (c *Controller) CurrentState() StateID {
	return c.current
}

// CurrentStateName returns the active state's name. Display only.
func (c *Controller) CurrentStateName() string {
	return c.current.String()
}

// Indicator reports whether the power indicator is lit.
func (c *Controller) Indicator() bool {
	return c.indicator
}

func (c *Controller) enter(s StateID) {
	c.logger.Info("entering state", "state", s)
	if c.trace != nil {
		c.trace(TraceStep{Kind: TraceEntry, State: s})
	}
	for _, cmd := range entryActions[s] {
		c.apply(cmd)
	}
}

func (c *Controller) exit(s StateID) {
	c.logger.Info("exiting state", "state", s)
	if c.trace != nil {
		c.trace(TraceStep{Kind: TraceExit, State: s})
	}
	for _, cmd := range exitActions[s] {
		c.apply(cmd)
	}
}

// apply records controller-owned state for cmd, then hands it to the device.
func (c *Controller) apply(cmd Command) {
	if ind, ok := cmd.(CmdSetIndicator); ok {
		c.indicator = ind.On
	}
	if err := runEffect(c.device, cmd); err != nil {
		c.logger.Warn("device command failed", "command", cmd.String(), "error", err)
	}
}
