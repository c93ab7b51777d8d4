package models

import "time"

// EscrowEntry holds the sealed copy of the key a file was encrypted with.
// There is exactly one entry per File.
type EscrowEntry struct {
	ID        string
	OwnerID   string
	FileID    string
	SealedKey []byte
	CreatedAt time.Time
}
