package session

import (
	"macro/internal/input"
)

// EventKind tells front ends what changed
type EventKind int

const (
	// EventStatusChanged carries new control labels
	EventStatusChanged EventKind = iota
	// EventTriggerResolved fires once per successful capture
	EventTriggerResolved
	// EventError reports a recoverable or capture/playback failure
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStatusChanged:
		return "status"
	case EventTriggerResolved:
		return "trigger"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Status is the label and enabled state of the two controls a front end shows
type Status struct {
	CaptureLabel   string `json:"capture_label"`
	CaptureEnabled bool   `json:"capture_enabled"`
	RunLabel       string `json:"run_label"`
	RunEnabled     bool   `json:"run_enabled"`
}

// Event is delivered to observers on the dispatcher goroutine, never on a
// listener or playback goroutine.
type Event struct {
	Kind    EventKind
	State   State
	Status  Status
	Trigger input.Trigger
	// Text is the trigger description for EventTriggerResolved and the error
	// message for EventError.
	Text string
	Err  error
}

// Observer receives session events. Notify must not block for long; it shares
// a single dispatcher goroutine with every other observer.
type Observer interface {
	Notify(ev Event)
}

// ObserverFunc adapts a function to Observer
type ObserverFunc func(Event)

// Notify calls f(ev)
func (f ObserverFunc) Notify(ev Event) {
	f(ev)
}

// Snapshot is a consistent read of the session for status queries
type Snapshot struct {
	State   State         `json:"state"`
	Trigger input.Trigger `json:"trigger"`
	Status  Status        `json:"status"`
}
