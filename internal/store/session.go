package store

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"kittycore/internal/domain"
)

const sessionFile = "session.json"

// Profile is the device's logged-in identity: who we are plus the
// session credential for the coordinator. The token authenticates; it
// never substitutes for the user id.
type Profile struct {
	UserID domain.UserID       `json:"userId"`
	Name   string              `json:"name"`
	Token  domain.SessionToken `json:"token"`
}

// SessionStore persists the active profile at <home>/session.json so
// separate CLI invocations share one login.
type SessionStore struct {
	home string
	mu   sync.Mutex
}

// NewSessionStore returns a session store rooted at home.
func NewSessionStore(home string) *SessionStore { return &SessionStore{home: home} }

// Save replaces the active profile.
func (s *SessionStore) Save(p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.home, 0o700); err != nil {
		return errors.Wrap(err, "create home dir")
	}
	return writeJSON(s.path(), p, 0o600)
}

// Load returns domain.ErrNotFound when nobody is logged in on this
// device.
func (s *SessionStore) Load() (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p Profile
	ok, err := readJSON(s.path(), &p)
	if err != nil {
		return Profile{}, errors.Wrap(err, "read session")
	}
	if !ok {
		return Profile{}, domain.ErrNotFound
	}
	return p, nil
}

// Clear logs the device out. Clearing an absent session is a no-op.
func (s *SessionStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "clear session")
	}
	return nil
}

func (s *SessionStore) path() string {
	return filepath.Join(s.home, sessionFile)
}
