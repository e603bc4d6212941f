package main

import "sort"

// This file holds the player policy as data:
//
//   - transitions: (state, event) -> next state
//   - entryActions / exitActions: the Commands a state runs when it becomes / stops being current
//   - Next(): the pure lookup used by the controller
//
// Next performs no I/O and never runs entry or exit actions. The controller owns the
// exit -> swap -> entry sequence and is the only caller that executes Commands.

type transitionKey struct {
	From  StateID
	Event Event
}

// transitions is the complete table. A (state, event) pair that is missing is ignored:
// no transition, no exit/entry, no device call.
var transitions = map[transitionKey]StateID{
	{StateInactive, PowerToggle}: StateOn,

	{StateOn, PowerToggle}:     StateInactive,
	{StateOn, PlayPauseToggle}: StatePlaying,

	// Playing does not react to PowerToggle; pause first, then power off.
	{StatePlaying, PlayPauseToggle}: StatePaused,

	{StatePaused, PowerToggle}:     StateInactive,
	{StatePaused, PlayPauseToggle}: StatePlaying,
}

var entryActions = map[StateID][]Command{
	StateInactive: {CmdSetIndicator{On: false}},
	StateOn:       {CmdSetIndicator{On: true}},
	StatePlaying:  {CmdStartPlayback{}},
	StatePaused:   {CmdPausePlayback{}},
}

// No state has exit side effects today; exits are traced only.
var exitActions = map[StateID][]Command{}

// Next returns the state that e leads to from s, and false if s ignores e.
func Next(s StateID, e Event) (StateID, bool) {
	to, ok := transitions[transitionKey{From: s, Event: e}]
	return to, ok
}

// Rule is one row of the transition table.
type Rule struct {
	From  StateID
	Event Event
	To    StateID
}

// Rules returns the transition table ordered by source state, then event.
func Rules() []Rule {
	rules := make([]Rule, 0, len(transitions))
	for k, to := range transitions {
		rules = append(rules, Rule{From: k.From, Event: k.Event, To: to})
	}
	sort.Slice(rules, func(i, j int) bool {
		if rules[i].From != rules[j].From {
			return rules[i].From < rules[j].From
		}
		return rules[i].Event < rules[j].Event
	})
	return rules
}
