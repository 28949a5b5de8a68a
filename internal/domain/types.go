package domain

// UserID identifies a registered account in the identity directory.
type UserID string

// String returns the string form of the user id.
func (u UserID) String() string { return string(u) }

// RoomID identifies a two-party room.
type RoomID string

// String returns the string form of the room id.
func (r RoomID) String() string { return string(r) }

// MessageID identifies an envelope. It is generated client-side.
type MessageID string

// String returns the string form of the message id.
func (m MessageID) String() string { return string(m) }

// SessionToken is an authentication credential. It is deliberately a
// separate type from UserID: a token is resolved to an identity exactly
// once, by the coordinator's auth middleware.
type SessionToken string

// String returns the string form of the token.
func (t SessionToken) String() string { return string(t) }
