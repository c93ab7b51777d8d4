// Package escrow stores the sealed copies of file keys used for admin
// recovery. Callers seal and open keys with cryptox.EscrowSealer; this
// package only moves opaque bytes.
package escrow

import (
	"context"

	"github.com/dmitrijs2005/sealdrop/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, entry *models.EscrowEntry) (*models.EscrowEntry, error)
	// GetByFileID returns common.ErrEscrowMissing when the file has no entry.
	GetByFileID(ctx context.Context, fileID string) (*models.EscrowEntry, error)
	// DeleteByFileID is a no-op when nothing matches.
	DeleteByFileID(ctx context.Context, fileID string) error
	// ListByOwner returns the owner's entries keyed by file ID.
	ListByOwner(ctx context.Context, ownerID string) (map[string]*models.EscrowEntry, error)
}
