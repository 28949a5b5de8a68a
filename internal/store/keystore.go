package store

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"kittycore/internal/domain"
)

const keysDir = "keys"

// FileKeystore stores one key pair per owner under <home>/keys/.
type FileKeystore struct {
	home string
	mu   sync.Mutex
}

// NewFileKeystore returns a keystore rooted at home.
func NewFileKeystore(home string) *FileKeystore { return &FileKeystore{home: home} }

// SaveKeyPair writes the owner's key pair to its own file. Saving for a
// second owner leaves the first owner's secret untouched.
func (s *FileKeystore) SaveKeyPair(owner domain.UserID, kp domain.KeyPair) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.home, keysDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "create keys dir")
	}
	return writeJSON(s.ownerPath(owner), kp, 0o600)
}

// LoadKeyPair returns domain.ErrNotFound when no credential matches
// owner; callers treat that as "generate and register".
func (s *FileKeystore) LoadKeyPair(owner domain.UserID) (domain.KeyPair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kp domain.KeyPair
	ok, err := readJSON(s.ownerPath(owner), &kp)
	if err != nil {
		return domain.KeyPair{}, errors.Wrapf(err, "read key pair for %s", owner)
	}
	if !ok {
		return domain.KeyPair{}, domain.ErrNotFound
	}
	return kp, nil
}

// ownerPath encodes the owner id so arbitrary ids stay within keysDir.
func (s *FileKeystore) ownerPath(owner domain.UserID) string {
	name := base64.URLEncoding.EncodeToString([]byte(owner)) + ".json"
	return filepath.Join(s.home, keysDir, name)
}

// Compile-time assertion that FileKeystore implements domain.Keystore.
var _ domain.Keystore = (*FileKeystore)(nil)
