// Package refreshtokens declares the repository contract for refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sealdrop/internal/server/models"
)

// Repository issues, looks up and revokes refresh tokens.
type Repository interface {
	// Create stores token for userID, valid until now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error
	// Find returns common.ErrorNotFound for unknown tokens.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	// Delete consumes one token. It returns common.ErrorNotFound when the
	// token is unknown or was already consumed.
	Delete(ctx context.Context, token string) error
	// DeleteByUser revokes every token of userID.
	DeleteByUser(ctx context.Context, userID string) error
}
