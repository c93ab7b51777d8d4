// Package models defines the API payloads the client exchanges with the
// sealdrop server.
package models

import "time"

// File is the metadata of an uploaded file as seen by its owner or reviewer.
// URL is a short-lived link to the ciphertext.
type File struct {
	ID               string    `json:"id"`
	URL              string    `json:"url"`
	IV               string    `json:"iv"`
	OriginalFilename string    `json:"original_filename"`
	Status           string    `json:"status"`
	ApprovedBy       string    `json:"approved_by,omitempty"`
	OwnerEmail       string    `json:"owner_email,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AdminFile is File plus the escrowed encryption key of its owner.
type AdminFile struct {
	File
	OwnerID       string `json:"owner_id"`
	EncryptionKey string `json:"encryptionKey"`
}

// Transition is the result of an approve or reject action.
type Transition struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// File review actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)
