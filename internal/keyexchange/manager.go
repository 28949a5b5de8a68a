package keyexchange

import (
	"context"
	"errors"

	"kittycore/internal/crypto"
	"kittycore/internal/domain"
)

// Manager handles identity key lifecycle for one device: generation,
// local persistence, publication to the directory, and peer lookups.
type Manager struct {
	keys domain.Keystore
	dir  domain.Directory
}

// New returns a manager backed by the given keystore and directory.
func New(keys domain.Keystore, dir domain.Directory) *Manager {
	return &Manager{keys: keys, dir: dir}
}

// GenerateIdentity produces a fresh static key pair. Pure generation,
// no side effects.
func (m *Manager) GenerateIdentity() (domain.KeyPair, error) {
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		return domain.KeyPair{}, err
	}
	return domain.KeyPair{Public: pub, Private: priv}, nil
}

// PersistSecret stores the owner's key pair in the owner's namespace.
func (m *Manager) PersistSecret(owner domain.UserID, kp domain.KeyPair) error {
	return m.keys.SaveKeyPair(owner, kp)
}

// LoadSecret returns domain.ErrNotFound when the owner has no stored
// credential; the caller must regenerate and republish.
func (m *Manager) LoadSecret(owner domain.UserID) (domain.KeyPair, error) {
	return m.keys.LoadKeyPair(owner)
}

// PublishPublicKey upserts the owner's public key in the directory.
// The upload is idempotent, keyed by the authenticated owner.
func (m *Manager) PublishPublicKey(ctx context.Context, pub domain.X25519Public) error {
	return m.dir.SetPublicKey(ctx, pub)
}

// FetchPeerPublicKey resolves a peer's static public key. A
// domain.ErrMissingPublicKey result blocks room creation; the peer must
// publish a key first.
func (m *Manager) FetchPeerPublicKey(ctx context.Context, peer domain.UserID) (domain.X25519Public, error) {
	return m.dir.PublicKey(ctx, peer)
}

// EnsureIdentity loads the owner's key pair, or on ErrNotFound
// generates a fresh one, persists it, and publishes the public half.
func (m *Manager) EnsureIdentity(ctx context.Context, owner domain.UserID) (domain.KeyPair, error) {
	kp, err := m.keys.LoadKeyPair(owner)
	if err == nil {
		return kp, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.KeyPair{}, err
	}

	kp, err = m.GenerateIdentity()
	if err != nil {
		return domain.KeyPair{}, err
	}
	if err := m.keys.SaveKeyPair(owner, kp); err != nil {
		return domain.KeyPair{}, err
	}
	if err := m.dir.SetPublicKey(ctx, kp.Public); err != nil {
		return domain.KeyPair{}, err
	}
	return kp, nil
}

// Fingerprint returns the short display fingerprint of a public key.
func (m *Manager) Fingerprint(pub domain.X25519Public) string {
	return crypto.Fingerprint(pub.Slice())
}
