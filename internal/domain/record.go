package domain

import "time"

// LocalRecord is the client-side projection of an envelope: same id,
// decrypted plaintext, and whether the local user authored it. Records
// are upserted by id on every reconciliation pass, so re-processing an
// envelope can never duplicate one.
type LocalRecord struct {
	ID            MessageID   `json:"id"`
	RoomID        RoomID      `json:"roomId"`
	Sender        UserID      `json:"sender"`
	Plaintext     string      `json:"plaintext"`
	IsSender      bool        `json:"isSender"`
	Undecryptable bool        `json:"undecryptable,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
	Type          MessageType `json:"type"`
	FileName      string      `json:"fileName,omitempty"`
	FileType      string      `json:"fileType,omitempty"`
}
