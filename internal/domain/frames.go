package domain

// Event names the frame kinds exchanged over the live transport.
type Event string

const (
	// Client to coordinator.
	EventJoin Event = "join"
	EventSend Event = "send"
	EventAck  Event = "ack"

	// Coordinator to client. Status delivery is best-effort.
	EventPush   Event = "push"
	EventStatus Event = "status"
)

// Frame is one JSON message on the websocket transport.
type Frame struct {
	Event     Event     `json:"event"`
	RoomID    RoomID    `json:"roomId,omitempty"`
	MessageID MessageID `json:"messageId,omitempty"`
	Status    Status    `json:"status,omitempty"`
	Envelope  *Envelope `json:"envelope,omitempty"`
}
