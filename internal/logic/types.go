// Package logic contains the pure input-conditioning logic for the button.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents the debounced logical state of the button.
type State string

const (
	StatePushed   State = "PUSHED"
	StateReleased State = "RELEASED"
)

// EventType represents a button event to be published.
type EventType string

const (
	EventPushed   EventType = "PUSHED"   // stable state went released -> pushed (polling)
	EventReleased EventType = "RELEASED" // stable state went pushed -> released (polling)
	EventPressed  EventType = "PRESSED"  // one or more edges consumed (interrupt)
)

// Event represents a button event to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	State     State
	// Presses is the number of edges folded into a PRESSED event.
	// Zero for polling events.
	Presses int
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Pushed   int
	Released int
	Presses  int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

// StateOf converts a debounced boolean into a State.
func StateOf(pushed bool) State {
	if pushed {
		return StatePushed
	}
	return StateReleased
}
