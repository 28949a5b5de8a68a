package cache

import (
	"encoding/json"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"kittycore/internal/domain"
)

// Store is a badger-backed domain.LocalStore.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the cache at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open local cache")
	}
	return &Store{db: db}, nil
}

// Upsert writes the record under its envelope id. Re-applying the same
// id replaces the record in place; it can never create a duplicate.
func (s *Store) Upsert(rec domain.LocalRecord) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal record")
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.RoomID, rec.ID), val)
	})
	return errors.Wrap(err, "upsert record")
}

// ListRoom returns every cached record for the room, oldest first.
// It touches only the local store; no network.
func (s *Store) ListRoom(room domain.RoomID) ([]domain.LocalRecord, error) {
	var out []domain.LocalRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := roomPrefix(room)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var rec domain.LocalRecord
				if err := json.Unmarshal(val, &rec); err != nil {
					return err
				}
				out = append(out, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "list room records")
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Clear removes every record for the room. This is the only deletion
// path; reconciliation never deletes.
func (s *Store) Clear(room domain.RoomID) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
		defer it.Close()
		prefix := roomPrefix(room)
		var keys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "clear room")
}

// Close releases the underlying badger database.
func (s *Store) Close() error { return s.db.Close() }

func roomPrefix(room domain.RoomID) []byte {
	return []byte("room/" + room.String() + "/msg/")
}

func recordKey(room domain.RoomID, id domain.MessageID) []byte {
	return append(roomPrefix(room), id.String()...)
}

// Compile-time assertion that Store implements domain.LocalStore.
var _ domain.LocalStore = (*Store)(nil)
