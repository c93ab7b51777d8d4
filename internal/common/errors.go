// Package common defines shared constants and sentinel errors used across
// client and server layers of sealdrop. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")

	// Validation errors (malformed iv, key or request fields).
	ErrorIncorrectMetadata = errors.New("incorrect metadata")

	// Auth errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrAccountRejected     = errors.New("account rejected")

	// Encryption errors. ErrDecryptionFailed is deliberately uniform: wrong
	// key, wrong iv, tampered or truncated ciphertext all map to it.
	ErrNoKeyFound       = errors.New("no encryption key found")
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrInvalidKey       = errors.New("invalid encryption key")
	ErrNotPreviewable   = errors.New("file type cannot be previewed")

	// Storage errors. ErrBlobUnavailable is transient and safe to retry on reads.
	ErrBlobUnavailable = errors.New("blob unavailable")

	// Workflow errors.
	ErrInvalidTransition = errors.New("invalid status transition")

	// Escrow integrity errors.
	ErrEscrowMissing = errors.New("escrow entry missing")
	ErrEscrowCorrupt = errors.New("escrow entry corrupt")
)
