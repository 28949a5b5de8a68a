package coordinator

import (
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"

	"kittycore/internal/domain"
)

const (
	saltBytes  = 16
	tokenBytes = 32
)

// Store persists users, sessions, rooms, and the envelope log in
// SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// SQLite supports one writer at a time; serialising connections
	// keeps concurrent handlers from tripping over lock errors.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.makeTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) makeTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            TEXT NOT NULL PRIMARY KEY,
			name          TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			public_key    TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			token      TEXT NOT NULL PRIMARY KEY,
			user_id    TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		// pair is the normalized unordered participant pair. The unique
		// constraint makes find-or-create atomic: two simultaneous first
		// contacts cannot produce two rooms.
		`CREATE TABLE IF NOT EXISTS rooms (
			id     TEXT NOT NULL PRIMARY KEY,
			pair   TEXT NOT NULL UNIQUE,
			user_a TEXT NOT NULL,
			user_b TEXT NOT NULL
		);`,
		// One row per envelope; INSERT is the atomic append and rowid is
		// the authoritative append order.
		`CREATE TABLE IF NOT EXISTS messages (
			id            TEXT NOT NULL PRIMARY KEY,
			room_id       TEXT NOT NULL,
			sender        TEXT NOT NULL,
			ciphertext    TEXT NOT NULL,
			ephemeral_key TEXT NOT NULL,
			timestamp     TIMESTAMP NOT NULL,
			status        TEXT NOT NULL,
			type          TEXT NOT NULL,
			file_name     TEXT,
			file_type     TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_room_status ON messages(room_id, status);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return errors.Wrap(err, "make tables")
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// ---------- Users & sessions ----------

// CreateUser registers a new account with an argon2id password hash.
func (s *Store) CreateUser(name, password string) (domain.UserID, error) {
	if name == "" || password == "" {
		return "", errors.New("name and password required")
	}
	id := domain.UserID(uuid.NewString())
	hash, err := hashPassword(password)
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(`INSERT INTO users (id, name, password_hash) VALUES (?, ?, ?)`,
		id.String(), name, hash)
	if err != nil {
		return "", errors.Wrap(err, "create user")
	}
	return id, nil
}

// Authenticate verifies credentials and mints a session token. The
// token is a credential only; handlers resolve it to a UserID exactly
// once via ResolveToken.
func (s *Store) Authenticate(name, password string) (domain.SessionToken, domain.UserID, error) {
	var id, hash string
	err := s.db.QueryRow(`SELECT id, password_hash FROM users WHERE name = ?`, name).
		Scan(&id, &hash)
	if err == sql.ErrNoRows {
		return "", "", domain.ErrUnauthorized
	}
	if err != nil {
		return "", "", errors.Wrap(err, "look up user")
	}
	if !verifyPassword(password, hash) {
		return "", "", domain.ErrUnauthorized
	}

	tok := make([]byte, tokenBytes)
	if _, err := rand.Read(tok); err != nil {
		return "", "", err
	}
	token := domain.SessionToken(hex.EncodeToString(tok))
	_, err = s.db.Exec(`INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)`,
		token.String(), id, time.Now().UTC())
	if err != nil {
		return "", "", errors.Wrap(err, "create session")
	}
	return token, domain.UserID(id), nil
}

// ResolveToken maps a session token to its user id, or
// domain.ErrUnauthorized.
func (s *Store) ResolveToken(token domain.SessionToken) (domain.UserID, error) {
	var id string
	err := s.db.QueryRow(`SELECT user_id FROM sessions WHERE token = ?`, token.String()).
		Scan(&id)
	if err == sql.ErrNoRows {
		return "", domain.ErrUnauthorized
	}
	if err != nil {
		return "", errors.Wrap(err, "resolve token")
	}
	return domain.UserID(id), nil
}

// SetPublicKey upserts the user's static public key. Idempotent.
func (s *Store) SetPublicKey(user domain.UserID, pub domain.X25519Public) error {
	text, _ := pub.MarshalText()
	res, err := s.db.Exec(`UPDATE users SET public_key = ? WHERE id = ?`,
		string(text), user.String())
	if err != nil {
		return errors.Wrap(err, "set public key")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// PublicKey returns the user's published key, or
// domain.ErrMissingPublicKey if none has been published.
func (s *Store) PublicKey(user domain.UserID) (domain.X25519Public, error) {
	var text sql.NullString
	err := s.db.QueryRow(`SELECT public_key FROM users WHERE id = ?`, user.String()).
		Scan(&text)
	if err == sql.ErrNoRows {
		return domain.X25519Public{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.X25519Public{}, errors.Wrap(err, "get public key")
	}
	if !text.Valid || text.String == "" {
		return domain.X25519Public{}, domain.ErrMissingPublicKey
	}
	var pub domain.X25519Public
	if err := pub.UnmarshalText([]byte(text.String)); err != nil {
		return domain.X25519Public{}, err
	}
	return pub, nil
}

// ---------- Rooms ----------

// GetOrCreateRoom returns the unique room for the unordered pair
// {a, b}, creating it if absent. Both users must have published static
// public keys first.
func (s *Store) GetOrCreateRoom(a, b domain.UserID) (domain.Room, error) {
	for _, u := range []domain.UserID{a, b} {
		if _, err := s.PublicKey(u); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Room{}, domain.ErrNotFound
			}
			return domain.Room{}, err
		}
	}

	lo, hi := normalizePair(a, b)
	pair := lo.String() + "|" + hi.String()

	// INSERT OR IGNORE + SELECT is the atomic find-or-insert; the unique
	// pair constraint arbitrates simultaneous first contact.
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO rooms (id, pair, user_a, user_b) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), pair, lo.String(), hi.String())
	if err != nil {
		return domain.Room{}, errors.Wrap(err, "create room")
	}

	var id string
	err = s.db.QueryRow(`SELECT id FROM rooms WHERE pair = ?`, pair).Scan(&id)
	if err != nil {
		return domain.Room{}, errors.Wrap(err, "look up room")
	}
	return domain.Room{ID: domain.RoomID(id), Participants: [2]domain.UserID{lo, hi}}, nil
}

// Room returns the room by id, or domain.ErrNotFound.
func (s *Store) Room(id domain.RoomID) (domain.Room, error) {
	var a, b string
	err := s.db.QueryRow(`SELECT user_a, user_b FROM rooms WHERE id = ?`, id.String()).
		Scan(&a, &b)
	if err == sql.ErrNoRows {
		return domain.Room{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Room{}, errors.Wrap(err, "look up room")
	}
	return domain.Room{ID: id, Participants: [2]domain.UserID{domain.UserID(a), domain.UserID(b)}}, nil
}

// IsMember reports whether user participates in the room.
func (s *Store) IsMember(id domain.RoomID, user domain.UserID) (bool, error) {
	room, err := s.Room(id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return room.Participants[0] == user || room.Participants[1] == user, nil
}

// ---------- Envelope log ----------

// AppendEnvelope validates and appends an envelope with status pending.
// The single INSERT is the required atomic append: two concurrent
// senders can never lose a message to a read-modify-write race.
func (s *Store) AppendEnvelope(room domain.RoomID, env domain.Envelope) (domain.Envelope, error) {
	if err := env.Validate(); err != nil {
		return domain.Envelope{}, err
	}
	if _, err := s.Room(room); err != nil {
		return domain.Envelope{}, err
	}

	env.RoomID = room
	env.Status = domain.StatusPending
	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now().UTC()
	}

	ephText, _ := env.SenderEphemeralKey.MarshalText()
	_, err := s.db.Exec(
		`INSERT INTO messages (id, room_id, sender, ciphertext, ephemeral_key, timestamp, status, type, file_name, file_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		env.ID.String(), room.String(), env.Sender.String(), env.Ciphertext,
		string(ephText), env.Timestamp.UTC().Format(time.RFC3339Nano),
		string(env.Status), string(env.Type), env.FileName, env.FileType)
	if err != nil {
		return domain.Envelope{}, errors.Wrap(err, "append envelope")
	}
	return env, nil
}

// ListPending returns the room's pending envelopes in append order, so
// a (re)joining participant catches up without re-receiving already
// acknowledged history.
func (s *Store) ListPending(room domain.RoomID) ([]domain.Envelope, error) {
	rows, err := s.db.Query(
		`SELECT id, room_id, sender, ciphertext, ephemeral_key, timestamp, status, type, file_name, file_type
		 FROM messages WHERE room_id = ? AND status = ? ORDER BY rowid`,
		room.String(), string(domain.StatusPending))
	if err != nil {
		return nil, errors.Wrap(err, "list pending")
	}
	defer rows.Close()

	var out []domain.Envelope
	for rows.Next() {
		env, err := scanEnvelope(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, rows.Err()
}

// Acknowledge flips the message to sent if it is currently pending and
// reports whether it flipped. Unknown ids, duplicates, and out-of-order
// acks are no-ops, never errors.
func (s *Store) Acknowledge(room domain.RoomID, id domain.MessageID) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE messages SET status = ? WHERE id = ? AND room_id = ? AND status = ?`,
		string(domain.StatusSent), id.String(), room.String(), string(domain.StatusPending))
	if err != nil {
		return false, errors.Wrap(err, "acknowledge")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ---------- helpers ----------

func scanEnvelope(rows *sql.Rows) (domain.Envelope, error) {
	var env domain.Envelope
	var id, roomID, sender, eph, ts, status, typ string
	var fileName, fileType sql.NullString
	err := rows.Scan(&id, &roomID, &sender, &env.Ciphertext, &eph, &ts, &status, &typ, &fileName, &fileType)
	if err != nil {
		return domain.Envelope{}, errors.Wrap(err, "scan envelope")
	}
	env.ID = domain.MessageID(id)
	env.RoomID = domain.RoomID(roomID)
	env.Sender = domain.UserID(sender)
	env.Status = domain.Status(status)
	env.Type = domain.MessageType(typ)
	env.FileName = fileName.String
	env.FileType = fileType.String
	if err := env.SenderEphemeralKey.UnmarshalText([]byte(eph)); err != nil {
		return domain.Envelope{}, err
	}
	env.Timestamp, err = time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return domain.Envelope{}, errors.Wrap(err, "parse timestamp")
	}
	return env, nil
}

func normalizePair(a, b domain.UserID) (lo, hi domain.UserID) {
	if strings.Compare(a.String(), b.String()) <= 0 {
		return a, b
	}
	return b, a
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	sum := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(sum), nil
}

func verifyPassword(password, stored string) bool {
	parts := strings.SplitN(stored, "$", 2)
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, 1, 64*1024, 4, 32)
	return subtle.ConstantTimeCompare(got, want) == 1
}
