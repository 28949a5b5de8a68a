package reconciler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"kittycore/internal/domain"
	"kittycore/internal/protocol/ratchet"
)

// Reconciler owns one open room on one device: it decrypts incoming
// envelopes into the local cache, acknowledges them, and encrypts
// outgoing plaintext.
type Reconciler struct {
	self    domain.UserID
	keys    domain.KeyPair
	room    domain.RoomID
	peerKey domain.X25519Public

	store domain.LocalStore
	dir   domain.Directory
	log   *logrus.Entry

	transport domain.Transport
}

// New returns a reconciler for one room. Attach a live transport with
// AttachTransport before sending or expecting pushes.
func New(self domain.UserID, keys domain.KeyPair, room domain.RoomID, peerKey domain.X25519Public,
	store domain.LocalStore, dir domain.Directory, log *logrus.Logger) *Reconciler {
	if log == nil {
		log = logrus.New()
	}
	return &Reconciler{
		self:    self,
		keys:    keys,
		room:    room,
		peerKey: peerKey,
		store:   store,
		dir:     dir,
		log:     log.WithField("room", room),
	}
}

// AttachTransport installs the live session used for sends and acks.
func (r *Reconciler) AttachTransport(t domain.Transport) {
	r.transport = t
}

// SyncFromRemote fetches the room's pending envelopes and merges each
// one. It returns how many envelopes were merged. One undecryptable
// envelope does not abort the rest of the batch.
func (r *Reconciler) SyncFromRemote(ctx context.Context) (int, error) {
	envs, err := r.dir.ListPending(ctx, r.room)
	if err != nil {
		return 0, errors.Wrap(err, "fetch pending envelopes")
	}
	merged := 0
	for _, env := range envs {
		if err := r.merge(env); err != nil {
			return merged, err
		}
		merged++
	}
	return merged, nil
}

// OnPush merges a single live envelope. Wire it as the transport's
// push handler.
func (r *Reconciler) OnPush(room domain.RoomID, env domain.Envelope) {
	if room != r.room {
		return
	}
	if err := r.merge(env); err != nil {
		r.log.WithError(err).Warn("merge pushed envelope")
	}
}

// merge is the single idempotent entry point for an envelope from any
// source. Decrypt, upsert by id, then acknowledge on success.
func (r *Reconciler) merge(env domain.Envelope) error {
	if env.Sender == r.self {
		// Our own envelope coming back through catch-up. The optimistic
		// record from SendLocal already holds the plaintext; the ciphertext
		// is sealed to the peer and cannot be opened here.
		return nil
	}

	rec := domain.LocalRecord{
		ID:        env.ID,
		RoomID:    r.room,
		Sender:    env.Sender,
		IsSender:  false,
		Timestamp: env.Timestamp,
		Type:      env.Type,
		FileName:  env.FileName,
		FileType:  env.FileType,
	}

	plaintext, err := ratchet.Decrypt(r.keys.Private, env.SenderEphemeralKey, env.Ciphertext)
	switch {
	case err == nil:
		rec.Plaintext = string(plaintext)
	case errors.Is(err, domain.ErrDecrypt):
		rec.Undecryptable = true
		r.log.WithField("message", env.ID).Warn("envelope failed authentication")
	default:
		return err
	}

	if err := r.store.Upsert(rec); err != nil {
		return errors.Wrap(err, "cache record")
	}

	if rec.Undecryptable {
		// Leave it pending on the coordinator; a device holding the right
		// key may still consume it.
		return nil
	}
	if r.transport != nil {
		if err := r.transport.Ack(r.room, env.ID); err != nil {
			// The record is cached either way; the coordinator will offer
			// the envelope again on the next catch-up and the merge is a
			// no-op then.
			r.log.WithError(err).WithField("message", env.ID).Debug("ack not delivered")
		}
	}
	return nil
}

// SendLocal encrypts plaintext for the peer, caches the sender-side
// record, and submits the envelope over the live transport. The cache
// write happens first; if the transport then fails, the error is
// returned and the message exists only locally. There is no retry.
func (r *Reconciler) SendLocal(plaintext string, typ domain.MessageType, fileName, fileType string) (domain.LocalRecord, error) {
	ciphertext, eph, err := ratchet.Encrypt(r.peerKey, []byte(plaintext))
	if err != nil {
		return domain.LocalRecord{}, err
	}

	now := time.Now().UTC()
	env := domain.Envelope{
		ID:                 domain.MessageID(uuid.NewString()),
		RoomID:             r.room,
		Sender:             r.self,
		Ciphertext:         ciphertext,
		SenderEphemeralKey: eph,
		Timestamp:          now,
		Type:               typ,
		FileName:           fileName,
		FileType:           fileType,
	}
	if err := env.Validate(); err != nil {
		return domain.LocalRecord{}, err
	}

	rec := domain.LocalRecord{
		ID:        env.ID,
		RoomID:    r.room,
		Sender:    r.self,
		Plaintext: plaintext,
		IsSender:  true,
		Timestamp: now,
		Type:      typ,
		FileName:  fileName,
		FileType:  fileType,
	}
	if err := r.store.Upsert(rec); err != nil {
		return domain.LocalRecord{}, errors.Wrap(err, "cache outgoing record")
	}

	if r.transport == nil {
		return rec, domain.ErrClosed
	}
	if err := r.transport.Send(r.room, env); err != nil {
		return rec, err
	}
	return rec, nil
}

// History returns the room's cached records, oldest first, without
// touching the network.
func (r *Reconciler) History() ([]domain.LocalRecord, error) {
	return r.store.ListRoom(r.room)
}

// Clear wipes the room's local cache. Coordinator state is untouched.
func (r *Reconciler) Clear() error {
	return r.store.Clear(r.room)
}
