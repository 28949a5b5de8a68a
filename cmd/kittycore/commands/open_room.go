package commands

import (
	"context"

	"kittycore/internal/cache"
	"kittycore/internal/domain"
	"kittycore/internal/logging"
	"kittycore/internal/reconciler"
	"kittycore/internal/transport"
)

// openedRoom bundles everything a command needs while a room is open.
type openedRoom struct {
	rec     *reconciler.Reconciler
	session *transport.Session
	store   *cache.Store
	roomID  domain.RoomID
}

func (o *openedRoom) close() {
	if o.session != nil {
		_ = o.session.Close()
	}
	_ = o.store.Close()
}

// openRoom resolves the room with peer, opens the local cache, dials
// the live transport, and joins. Pass nil handlers for commands that
// do not consume pushes.
func openRoom(ctx context.Context, peer domain.UserID, handlers transport.Handlers) (*openedRoom, error) {
	self, err := currentProfile()
	if err != nil {
		return nil, err
	}
	kp, err := wire.KeyExchange.LoadSecret(self)
	if err != nil {
		return nil, err
	}

	roomID, peerKey, err := wire.Directory.CreateOrGetRoom(ctx, peer)
	if err != nil {
		return nil, err
	}

	store, err := wire.OpenCache()
	if err != nil {
		return nil, err
	}

	rec := reconciler.New(self, kp, roomID, peerKey, store, wire.Directory, logging.Log)
	if handlers.OnPush == nil {
		handlers.OnPush = rec.OnPush
	}

	wsURL, err := wire.Directory.WebsocketURL()
	if err != nil {
		store.Close()
		return nil, err
	}
	session, err := transport.Dial(wsURL, handlers)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := session.Join(roomID); err != nil {
		session.Close()
		store.Close()
		return nil, err
	}
	rec.AttachTransport(session)

	return &openedRoom{rec: rec, session: session, store: store, roomID: roomID}, nil
}
