package app

import (
	"path/filepath"

	"kittycore/internal/cache"
	"kittycore/internal/directory"
	"kittycore/internal/keyexchange"
	"kittycore/internal/store"
)

// Wire bundles the stores, clients, and services the CLI commands use.
type Wire struct {
	Home        string
	Keys        *store.FileKeystore
	Sessions    *store.SessionStore
	Directory   *directory.Client
	KeyExchange *keyexchange.Manager
}

// NewWire constructs the dependency graph from cfg. The local record
// cache is not opened here; it takes an exclusive lock on its
// directory, so commands open it only when they need it via OpenCache.
func NewWire(cfg Config) (*Wire, error) {
	keys := store.NewFileKeystore(cfg.Home)
	sessions := store.NewSessionStore(cfg.Home)
	dir := directory.New(cfg.ServerURL, cfg.HTTP)

	return &Wire{
		Home:        cfg.Home,
		Keys:        keys,
		Sessions:    sessions,
		Directory:   dir,
		KeyExchange: keyexchange.New(keys, dir),
	}, nil
}

// OpenCache opens the device's local record cache.
func (w *Wire) OpenCache() (*cache.Store, error) {
	return cache.Open(filepath.Join(w.Home, "cache"))
}
