package domain

import "context"

// Keystore persists static secret key pairs on the owning device, one
// namespace per owner so switching accounts never clobbers another
// account's secret.
type Keystore interface {
	SaveKeyPair(owner UserID, kp KeyPair) error
	// LoadKeyPair returns ErrNotFound when no credential matches owner.
	LoadKeyPair(owner UserID) (KeyPair, error)
}

// Directory is the identity directory and room-control collaborator as
// seen from a client.
type Directory interface {
	Register(ctx context.Context, name, password string) (UserID, error)
	Login(ctx context.Context, name, password string) (SessionToken, UserID, error)
	SetPublicKey(ctx context.Context, pub X25519Public) error
	// PublicKey returns ErrMissingPublicKey when the user has not
	// published a key.
	PublicKey(ctx context.Context, user UserID) (X25519Public, error)
	// CreateOrGetRoom fails with ErrMissingPublicKey when either side
	// has not published a key.
	CreateOrGetRoom(ctx context.Context, peer UserID) (RoomID, X25519Public, error)
	ListPending(ctx context.Context, room RoomID) ([]Envelope, error)
}

// LocalStore is the durable client-side cache of decrypted records.
// Only the reconciler on the owning device mutates it.
type LocalStore interface {
	Upsert(rec LocalRecord) error
	ListRoom(room RoomID) ([]LocalRecord, error)
	Clear(room RoomID) error
	Close() error
}

// Transport is a live session to the coordinator, connected on room
// open and closed on room exit.
type Transport interface {
	Join(room RoomID) error
	// Send returns ErrClosed once the session is torn down; the caller
	// does not queue or retry.
	Send(room RoomID, env Envelope) error
	Ack(room RoomID, msg MessageID) error
	Close() error
}
