package coordinator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kittycore/internal/domain"
)

func TestHub_BroadcastExcludesSender(t *testing.T) {
	h := NewHub()
	room := domain.RoomID("r1")
	alice := h.Join(room, "alice")
	bob := h.Join(room, "bob")

	f := domain.Frame{Event: domain.EventPush, RoomID: room}
	h.Broadcast(room, "alice", f)

	select {
	case got := <-bob.send:
		assert.Equal(t, domain.EventPush, got.Event)
	default:
		t.Fatal("bob received nothing")
	}
	select {
	case <-alice.send:
		t.Fatal("sender must not receive its own broadcast")
	default:
	}
}

func TestHub_BroadcastScopedToRoom(t *testing.T) {
	h := NewHub()
	bob := h.Join("r1", "bob")
	carol := h.Join("r2", "carol")

	h.Broadcast("r1", "alice", domain.Frame{Event: domain.EventPush, RoomID: "r1"})

	require.Len(t, bob.send, 1)
	assert.Empty(t, carol.send)
}

func TestHub_LeaveClosesQueue(t *testing.T) {
	h := NewHub()
	bob := h.Join("r1", "bob")
	h.Leave("r1", bob)

	_, open := <-bob.send
	assert.False(t, open)

	// Leaving twice must not double-close.
	h.Leave("r1", bob)

	// A broadcast into the now empty room is a no-op.
	h.Broadcast("r1", "alice", domain.Frame{Event: domain.EventPush})
}

func TestHub_SlowConsumerDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	bob := h.Join("r1", "bob")

	for i := 0; i < sendBuffer+5; i++ {
		h.Broadcast("r1", "alice", domain.Frame{Event: domain.EventPush})
	}
	assert.Len(t, bob.send, sendBuffer)
}
