package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kittycore/internal/cache"
	"kittycore/internal/crypto"
	"kittycore/internal/domain"
	"kittycore/internal/protocol/ratchet"
)

const testRoom = domain.RoomID("room-1")

type fakeDirectory struct {
	domain.Directory
	pending []domain.Envelope
}

func (f *fakeDirectory) ListPending(_ context.Context, room domain.RoomID) ([]domain.Envelope, error) {
	return f.pending, nil
}

type fakeTransport struct {
	sent   []domain.Envelope
	acked  []domain.MessageID
	broken bool
}

func (f *fakeTransport) Join(domain.RoomID) error { return nil }

func (f *fakeTransport) Send(_ domain.RoomID, env domain.Envelope) error {
	if f.broken {
		return domain.ErrClosed
	}
	f.sent = append(f.sent, env)
	return nil
}

func (f *fakeTransport) Ack(_ domain.RoomID, msg domain.MessageID) error {
	if f.broken {
		return domain.ErrClosed
	}
	f.acked = append(f.acked, msg)
	return nil
}

func (f *fakeTransport) Close() error { return nil }

type fixture struct {
	rec   *Reconciler
	dir   *fakeDirectory
	tr    *fakeTransport
	alice domain.KeyPair
	bob   domain.KeyPair
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	alicePriv, alicePub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	bobPriv, bobPub, err := crypto.GenerateX25519()
	require.NoError(t, err)

	dir := &fakeDirectory{}
	tr := &fakeTransport{}
	r := New("alice", domain.KeyPair{Public: alicePub, Private: alicePriv},
		testRoom, bobPub, store, dir, nil)
	r.AttachTransport(tr)

	return &fixture{
		rec:   r,
		dir:   dir,
		tr:    tr,
		alice: domain.KeyPair{Public: alicePub, Private: alicePriv},
		bob:   domain.KeyPair{Public: bobPub, Private: bobPriv},
	}
}

// envelopeFromBob seals plaintext to alice the way a real peer would.
func (f *fixture) envelopeFromBob(t *testing.T, plaintext string) domain.Envelope {
	t.Helper()
	ciphertext, eph, err := ratchet.Encrypt(f.alice.Public, []byte(plaintext))
	require.NoError(t, err)
	return domain.Envelope{
		ID:                 domain.MessageID(uuid.NewString()),
		RoomID:             testRoom,
		Sender:             "bob",
		Ciphertext:         ciphertext,
		SenderEphemeralKey: eph,
		Timestamp:          time.Now().UTC(),
		Status:             domain.StatusPending,
		Type:               domain.TypeText,
	}
}

func TestSyncFromRemote_DecryptsAndAcks(t *testing.T) {
	f := newFixture(t)
	f.dir.pending = []domain.Envelope{
		f.envelopeFromBob(t, "hello"),
		f.envelopeFromBob(t, "world"),
	}

	merged, err := f.rec.SyncFromRemote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	recs, err := f.rec.History()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "hello", recs[0].Plaintext)
	assert.Equal(t, "world", recs[1].Plaintext)
	assert.False(t, recs[0].IsSender)

	require.Len(t, f.tr.acked, 2)
	assert.Equal(t, f.dir.pending[0].ID, f.tr.acked[0])
}

func TestSyncFromRemote_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.dir.pending = []domain.Envelope{f.envelopeFromBob(t, "once")}

	for i := 0; i < 3; i++ {
		_, err := f.rec.SyncFromRemote(context.Background())
		require.NoError(t, err)
	}

	recs, err := f.rec.History()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "once", recs[0].Plaintext)
}

func TestSyncFromRemote_UndecryptablePlaceholderContinuesBatch(t *testing.T) {
	f := newFixture(t)
	bad := f.envelopeFromBob(t, "garbled")
	bad.Ciphertext = "bm90IGEgcmVhbCBjaXBoZXJ0ZXh0IGF0IGFsbCE="
	f.dir.pending = []domain.Envelope{
		f.envelopeFromBob(t, "before"),
		bad,
		f.envelopeFromBob(t, "after"),
	}

	merged, err := f.rec.SyncFromRemote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, merged)

	recs, err := f.rec.History()
	require.NoError(t, err)
	require.Len(t, recs, 3)

	byID := map[domain.MessageID]domain.LocalRecord{}
	for _, r := range recs {
		byID[r.ID] = r
	}
	assert.True(t, byID[bad.ID].Undecryptable)
	assert.Empty(t, byID[bad.ID].Plaintext)

	// The placeholder stays pending on the coordinator.
	assert.Len(t, f.tr.acked, 2)
	assert.NotContains(t, f.tr.acked, bad.ID)
}

func TestSyncFromRemote_SkipsOwnEnvelopes(t *testing.T) {
	f := newFixture(t)
	own := f.envelopeFromBob(t, "mine")
	own.Sender = "alice"
	f.dir.pending = []domain.Envelope{own}

	_, err := f.rec.SyncFromRemote(context.Background())
	require.NoError(t, err)

	recs, err := f.rec.History()
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Empty(t, f.tr.acked)
}

func TestOnPush_MergesAndAcks(t *testing.T) {
	f := newFixture(t)
	env := f.envelopeFromBob(t, "live")

	f.rec.OnPush(testRoom, env)
	f.rec.OnPush("other-room", f.envelopeFromBob(t, "stray"))

	recs, err := f.rec.History()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "live", recs[0].Plaintext)
	assert.Equal(t, []domain.MessageID{env.ID}, f.tr.acked)
}

func TestSendLocal_EncryptsAndCaches(t *testing.T) {
	f := newFixture(t)

	rec, err := f.rec.SendLocal("hi bob", domain.TypeText, "", "")
	require.NoError(t, err)
	assert.True(t, rec.IsSender)
	assert.Equal(t, "hi bob", rec.Plaintext)

	require.Len(t, f.tr.sent, 1)
	env := f.tr.sent[0]
	assert.Equal(t, rec.ID, env.ID)
	assert.NotContains(t, env.Ciphertext, "hi bob")

	// Bob can open what went over the wire.
	plaintext, err := ratchet.Decrypt(f.bob.Private, env.SenderEphemeralKey, env.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "hi bob", string(plaintext))
}

// A transport failure during send leaves the message cached locally
// and nowhere else. Nothing requeues it.
func TestSendLocal_TransportDown_LocalOnly(t *testing.T) {
	f := newFixture(t)
	f.tr.broken = true

	rec, err := f.rec.SendLocal("lost", domain.TypeText, "", "")
	assert.ErrorIs(t, err, domain.ErrClosed)

	recs, err2 := f.rec.History()
	require.NoError(t, err2)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
	assert.Equal(t, "lost", recs[0].Plaintext)

	// Nothing reached the wire, and a later healthy send does not
	// resurrect the failed one.
	assert.Empty(t, f.tr.sent)
	f.tr.broken = false
	_, err = f.rec.SendLocal("next", domain.TypeText, "", "")
	require.NoError(t, err)
	require.Len(t, f.tr.sent, 1)
	assert.Equal(t, "next", mustDecrypt(t, f.bob.Private, f.tr.sent[0]))
}

func TestClear_WipesLocalOnly(t *testing.T) {
	f := newFixture(t)
	_, err := f.rec.SendLocal("ephemeral", domain.TypeText, "", "")
	require.NoError(t, err)

	require.NoError(t, f.rec.Clear())
	recs, err := f.rec.History()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func mustDecrypt(t *testing.T, priv domain.X25519Private, env domain.Envelope) string {
	t.Helper()
	plaintext, err := ratchet.Decrypt(priv, env.SenderEphemeralKey, env.Ciphertext)
	require.NoError(t, err)
	return string(plaintext)
}
