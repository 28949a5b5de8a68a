package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"kittycore/internal/domain"
)

const (
	dialAttempts = 3
	dialBackoff  = 500 * time.Millisecond
)

// Handlers receives server-initiated frames. Nil fields are skipped.
// Callbacks run on the session's read loop, so they must not block.
type Handlers struct {
	OnPush   func(room domain.RoomID, env domain.Envelope)
	OnStatus func(room domain.RoomID, msg domain.MessageID, status domain.Status)
}

// Session is one live websocket connection to the coordinator.
type Session struct {
	conn     *websocket.Conn
	handlers Handlers

	writeMu sync.Mutex

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

var _ domain.Transport = (*Session)(nil)

// Dial connects to the coordinator's websocket endpoint. The dial is
// retried a bounded number of times; after that the error is returned
// and the caller decides what to do without one.
func Dial(wsURL string, handlers Handlers) (*Session, error) {
	var conn *websocket.Conn
	var err error
	for attempt := 0; attempt < dialAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(dialBackoff)
		}
		conn, _, err = websocket.DefaultDialer.Dial(wsURL, nil)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "dial coordinator")
	}

	s := &Session{conn: conn, handlers: handlers, done: make(chan struct{})}
	go s.readLoop()
	return s, nil
}

// Join announces presence in the room so pushes start flowing.
func (s *Session) Join(room domain.RoomID) error {
	return s.write(domain.Frame{Event: domain.EventJoin, RoomID: room})
}

// Send submits one envelope for append and broadcast.
func (s *Session) Send(room domain.RoomID, env domain.Envelope) error {
	return s.write(domain.Frame{Event: domain.EventSend, RoomID: room, Envelope: &env})
}

// Ack reports that msg was decrypted and cached locally.
func (s *Session) Ack(room domain.RoomID, msg domain.MessageID) error {
	return s.write(domain.Frame{Event: domain.EventAck, RoomID: room, MessageID: msg})
}

// Close tears the session down. Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.conn.Close()
}

// Done is closed when the read loop exits, whether by Close or by the
// connection dropping.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) write(f domain.Frame) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrClosed
	}
	s.mu.Unlock()

	s.writeMu.Lock()
	err := s.conn.WriteJSON(f)
	s.writeMu.Unlock()
	if err != nil {
		s.Close()
		return domain.ErrClosed
	}
	return nil
}

func (s *Session) readLoop() {
	defer close(s.done)
	for {
		var f domain.Frame
		if err := s.conn.ReadJSON(&f); err != nil {
			s.Close()
			return
		}
		switch f.Event {
		case domain.EventPush:
			if s.handlers.OnPush != nil && f.Envelope != nil {
				s.handlers.OnPush(f.RoomID, *f.Envelope)
			}
		case domain.EventStatus:
			if s.handlers.OnStatus != nil {
				s.handlers.OnStatus(f.RoomID, f.MessageID, f.Status)
			}
		}
	}
}
