package coordinator

import (
	"sync"

	"kittycore/internal/domain"
)

// sendBuffer bounds each member's outbound queue. Fan-out is
// best-effort: a member that cannot keep up loses frames rather than
// blocking the room.
const sendBuffer = 32

// member is one live websocket connection's view inside the hub.
type member struct {
	user domain.UserID
	send chan domain.Frame
}

// Hub tracks which users are connected to which rooms and fans
// frames out to them.
type Hub struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]map[*member]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[domain.RoomID]map[*member]struct{})}
}

// Join registers a connection as present in the room and returns its
// membership handle.
func (h *Hub) Join(room domain.RoomID, user domain.UserID) *member {
	m := &member{user: user, send: make(chan domain.Frame, sendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*member]struct{})
	}
	h.rooms[room][m] = struct{}{}
	return m
}

// Leave removes the connection from the room and closes its queue.
func (h *Hub) Leave(room domain.RoomID, m *member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		if _, present := members[m]; present {
			delete(members, m)
			close(m.send)
		}
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast queues the frame for every room member except the
// excluded user. Members with full queues are skipped.
func (h *Hub) Broadcast(room domain.RoomID, exclude domain.UserID, f domain.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for m := range h.rooms[room] {
		if m.user == exclude {
			continue
		}
		select {
		case m.send <- f:
		default:
			// Slow consumer; drop. Catch-up happens via listPending.
		}
	}
}
