// Package files declares and implements the file metadata repository,
// including the conditional updates that drive the approval workflow.
package files

import (
	"context"

	"github.com/dmitrijs2005/sealdrop/internal/server/models"
)

type Repository interface {
	// Create inserts a pending file and fills in ID and CreatedAt.
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, id string) (*models.File, error)
	// ListByOwner returns the owner's files, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error)
	// ListByReviewer returns files assigned to managerEmail in the given status.
	ListByReviewer(ctx context.Context, managerEmail string, status models.FileStatus) ([]*models.File, error)
	// Approve moves a pending file to approved. A missing file is
	// common.ErrorNotFound; a file no longer pending is
	// common.ErrInvalidTransition.
	Approve(ctx context.Context, id, approvedBy string) error
	// DeletePending removes a file only while it is pending and returns its
	// blob reference. Errors as for Approve.
	DeletePending(ctx context.Context, id string) (string, error)
	// Delete removes a file regardless of status and returns its blob reference.
	Delete(ctx context.Context, id string) (string, error)
}
