package domain

import "time"

// Status tracks delivery of an envelope. The machine is monotonic:
// pending transitions to sent exactly once and never reverses.
type Status string

const (
	// StatusPending marks an envelope persisted but not yet decrypted by
	// its recipient.
	StatusPending Status = "pending"
	// StatusSent marks an envelope acknowledged by the recipient.
	StatusSent Status = "sent"
)

// MessageType distinguishes payload kinds. The coordinator never sees
// the payload itself; the type only drives metadata validation.
type MessageType string

const (
	TypeText  MessageType = "text"
	TypeImage MessageType = "image"
	TypeFile  MessageType = "file"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeFile:
		return true
	}
	return false
}

// Envelope is the wire and storage form of a single encrypted message.
// It is created by the sender and immutable once appended, except for
// Status which the coordinator advances.
type Envelope struct {
	ID                 MessageID    `json:"id"`
	RoomID             RoomID       `json:"roomId"`
	Sender             UserID       `json:"sender"`
	Ciphertext         string       `json:"ciphertext"`
	SenderEphemeralKey X25519Public `json:"senderEphemeralKey"`
	Timestamp          time.Time    `json:"timestamp"`
	Status             Status       `json:"status"`
	Type               MessageType  `json:"type"`
	FileName           string       `json:"fileName,omitempty"`
	FileType           string       `json:"fileType,omitempty"`
}

// Validate checks the fields a coordinator must refuse to persist
// without. Append order, not Timestamp, is the authoritative ordering.
func (e Envelope) Validate() error {
	if e.ID == "" || e.Ciphertext == "" {
		return ErrInvalidEnvelope
	}
	if e.SenderEphemeralKey.IsZero() {
		return ErrInvalidEnvelope
	}
	if !e.Type.Valid() {
		return ErrInvalidEnvelope
	}
	if e.Type != TypeText && (e.FileName == "" || e.FileType == "") {
		return ErrInvalidEnvelope
	}
	return nil
}

// Room is an unordered pair of participants. For any pair there is at
// most one room.
type Room struct {
	ID           RoomID `json:"roomId"`
	Participants [2]UserID `json:"participants"`
}

// Other returns the participant that is not u.
func (r Room) Other(u UserID) UserID {
	if r.Participants[0] == u {
		return r.Participants[1]
	}
	return r.Participants[0]
}
