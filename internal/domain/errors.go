package domain

import "errors"

var (
	// ErrNotFound indicates a missing secret key, user, room, or message.
	// For secret keys, callers must treat it as "generate and register",
	// not as a failure.
	ErrNotFound = errors.New("not found")

	// ErrMissingPublicKey is a precondition failure: a room cannot be
	// opened and a message cannot be encrypted until the peer has
	// published a static public key.
	ErrMissingPublicKey = errors.New("peer has no published public key")

	// ErrDecrypt is returned on any authentication failure during
	// decryption. Corrupted plaintext is never returned alongside it.
	ErrDecrypt = errors.New("decryption failed")

	// ErrInvalidEnvelope rejects an envelope missing ciphertext,
	// ephemeral key, or type-specific metadata.
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// ErrClosed is returned when sending on a transport session that has
	// been torn down.
	ErrClosed = errors.New("transport session closed")

	// ErrUnauthorized indicates a bad or expired session token.
	ErrUnauthorized = errors.New("unauthorized")
)
