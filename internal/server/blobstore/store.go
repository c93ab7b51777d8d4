// Package blobstore keeps encrypted file bodies in S3-compatible object
// storage. Blobs are opaque to the server: it never sees plaintext.
package blobstore

import "context"

// Store is the blob boundary used by the file service.
type Store interface {
	// Put stores data under a fresh key and returns that key.
	Put(ctx context.Context, data []byte) (string, error)
	// URL returns a time-limited GET URL for the blob.
	URL(ctx context.Context, publicID string) (string, error)
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, publicID string) error
}
