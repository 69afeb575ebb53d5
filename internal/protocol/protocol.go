// Package protocol defines the JSON messages exchanged over the control WebSocket.
package protocol

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeStatus is sent by the server whenever control labels change
	TypeStatus MessageType = "status"

	// TypeTrigger is sent by the server once per resolved capture
	TypeTrigger MessageType = "trigger"

	// TypeError is sent by the server for capture, playback and config errors
	TypeError MessageType = "error"

	// TypeCapture is sent by a client to begin capturing a trigger
	TypeCapture MessageType = "capture"

	// TypeToggle is sent by a client to start or stop playback
	TypeToggle MessageType = "toggle"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// StatusPayload is the payload for TypeStatus
type StatusPayload struct {
	State          string `json:"state"`
	CaptureLabel   string `json:"capture_label"`
	CaptureEnabled bool   `json:"capture_enabled"`
	RunLabel       string `json:"run_label"`
	RunEnabled     bool   `json:"run_enabled"`
}

// TriggerPayload is the payload for TypeTrigger
type TriggerPayload struct {
	Description string `json:"description"`
	Kind        string `json:"kind"`
	Key         string `json:"key,omitempty"`
	Button      string `json:"button,omitempty"`
}

// ErrorPayload is the payload for TypeError
type ErrorPayload struct {
	Message string `json:"message"`
}

// TogglePayload is the payload for TypeToggle and the body of POST /api/toggle
type TogglePayload struct {
	Interval string `json:"interval"`
	Delay    string `json:"delay"`
}
