package coordinator_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kittycore/internal/cache"
	"kittycore/internal/coordinator"
	"kittycore/internal/directory"
	"kittycore/internal/domain"
	"kittycore/internal/keyexchange"
	"kittycore/internal/reconciler"
	"kittycore/internal/store"
	"kittycore/internal/transport"
)

// client is one device: directory session, identity keys, local cache,
// and (once a room is open) a reconciler on a live transport.
type client struct {
	id    domain.UserID
	dir   *directory.Client
	keys  domain.KeyPair
	cache *cache.Store
	rec   *reconciler.Reconciler
	sess  *transport.Session
}

func newClient(t *testing.T, baseURL, name string) *client {
	t.Helper()
	ctx := context.Background()

	dir := directory.New(baseURL, nil)
	_, err := dir.Register(ctx, name, "pw-"+name)
	require.NoError(t, err)
	_, id, err := dir.Login(ctx, name, "pw-"+name)
	require.NoError(t, err)

	home := t.TempDir()
	km := keyexchange.New(store.NewFileKeystore(home), dir)
	kp, err := km.EnsureIdentity(ctx, id)
	require.NoError(t, err)

	localCache, err := cache.Open(filepath.Join(home, "cache"))
	require.NoError(t, err)
	t.Cleanup(func() { localCache.Close() })

	return &client{id: id, dir: dir, keys: kp, cache: localCache}
}

// open dials the live transport and joins the room with peer.
func (c *client) open(t *testing.T, peer domain.UserID) {
	t.Helper()
	roomID, peerKey, err := c.dir.CreateOrGetRoom(context.Background(), peer)
	require.NoError(t, err)

	c.rec = reconciler.New(c.id, c.keys, roomID, peerKey, c.cache, c.dir, nil)

	wsURL, err := c.dir.WebsocketURL()
	require.NoError(t, err)
	sess, err := transport.Dial(wsURL, transport.Handlers{OnPush: c.rec.OnPush})
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	require.NoError(t, sess.Join(roomID))
	c.rec.AttachTransport(sess)
	c.sess = sess
}

func (c *client) history(t *testing.T) []domain.LocalRecord {
	t.Helper()
	recs, err := c.rec.History()
	require.NoError(t, err)
	return recs
}

func TestEndToEnd_SendPushAck(t *testing.T) {
	dbStore, err := coordinator.OpenStore(filepath.Join(t.TempDir(), "coordinator.db"))
	require.NoError(t, err)
	defer dbStore.Close()

	srv := httptest.NewServer(coordinator.NewServer(dbStore, nil).Router())
	defer srv.Close()

	alice := newClient(t, srv.URL, "alice")
	bob := newClient(t, srv.URL, "bob")

	alice.open(t, bob.id)
	bob.open(t, alice.id)

	sent, err := alice.rec.SendLocal("hi bob", domain.TypeText, "", "")
	require.NoError(t, err)

	// The push reaches bob's device, decrypts, and lands in his cache.
	require.Eventually(t, func() bool {
		recs, err := bob.rec.History()
		return err == nil && len(recs) == 1 && recs[0].Plaintext == "hi bob"
	}, 5*time.Second, 20*time.Millisecond)

	bobView := bob.history(t)[0]
	assert.Equal(t, sent.ID, bobView.ID)
	assert.Equal(t, alice.id, bobView.Sender)
	assert.False(t, bobView.IsSender)

	// Bob's ack flips the envelope to sent, so catch-up has nothing
	// left to offer.
	roomID, _, err := alice.dir.CreateOrGetRoom(context.Background(), bob.id)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		pending, err := alice.dir.ListPending(context.Background(), roomID)
		return err == nil && len(pending) == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestEndToEnd_OfflineCatchUp(t *testing.T) {
	dbStore, err := coordinator.OpenStore(filepath.Join(t.TempDir(), "coordinator.db"))
	require.NoError(t, err)
	defer dbStore.Close()

	srv := httptest.NewServer(coordinator.NewServer(dbStore, nil).Router())
	defer srv.Close()

	alice := newClient(t, srv.URL, "alice")
	bob := newClient(t, srv.URL, "bob")

	// Alice sends while bob has no live session.
	alice.open(t, bob.id)
	_, err = alice.rec.SendLocal("first", domain.TypeText, "", "")
	require.NoError(t, err)
	_, err = alice.rec.SendLocal("second", domain.TypeText, "", "")
	require.NoError(t, err)

	// Bob connects later and catches up through the pending fetch.
	bob.open(t, alice.id)
	merged, err := bob.rec.SyncFromRemote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	recs := bob.history(t)
	require.Len(t, recs, 2)
	assert.Equal(t, "first", recs[0].Plaintext)
	assert.Equal(t, "second", recs[1].Plaintext)

	// Re-syncing after the acks is a no-op.
	merged, err = bob.rec.SyncFromRemote(context.Background())
	require.NoError(t, err)
	assert.Zero(t, merged)
	assert.Len(t, bob.history(t), 2)
}

func TestEndToEnd_RoomRequiresPeerKey(t *testing.T) {
	dbStore, err := coordinator.OpenStore(filepath.Join(t.TempDir(), "coordinator.db"))
	require.NoError(t, err)
	defer dbStore.Close()

	srv := httptest.NewServer(coordinator.NewServer(dbStore, nil).Router())
	defer srv.Close()

	alice := newClient(t, srv.URL, "alice")

	// Carol exists but never published a key.
	carolDir := directory.New(srv.URL, nil)
	_, err = carolDir.Register(context.Background(), "carol", "pw")
	require.NoError(t, err)
	_, carolID, err := carolDir.Login(context.Background(), "carol", "pw")
	require.NoError(t, err)

	_, _, err = alice.dir.CreateOrGetRoom(context.Background(), carolID)
	assert.ErrorIs(t, err, domain.ErrMissingPublicKey)
}
