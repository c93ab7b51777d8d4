// Package models defines server-side data models persisted in the database.
package models

import "time"

// FileStatus is the approval state of a file. Rejected files are deleted,
// so "rejected" is never stored.
type FileStatus string

const (
	FilePending  FileStatus = "pending"
	FileApproved FileStatus = "approved"
	FileRejected FileStatus = "rejected"
)

// File describes server-side metadata for an encrypted upload. The
// ciphertext itself lives in object storage under PublicID.
type File struct {
	ID string
	// PublicID is the object-storage key of the ciphertext blob.
	PublicID         string
	OriginalFilename string
	OwnerID          string
	// IV is the hex initialization vector the client encrypted with.
	IV     string
	Status FileStatus
	// ManagerEmail is the reviewer assigned at upload time.
	ManagerEmail string
	// ApprovedBy is the email of the approving reviewer, empty while pending.
	ApprovedBy string
	CreatedAt  time.Time
}
