// Package eventsource implements the Server-Sent Events wire format used by
// the activity stream.
package eventsource

// Event names carried on the activity stream.
const (
	EventConnected = "connected"
	EventHeartbeat = "heartbeat"
	EventActivity  = "activity"
)

// Frame is one dispatched SSE event. Event defaults to "message" when the
// server sent no event field.
type Frame struct {
	Event string
	Data  []byte
	ID    string
}
