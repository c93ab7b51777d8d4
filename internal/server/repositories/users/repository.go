// Package users declares and implements the account repository.
package users

import (
	"context"

	"github.com/dmitrijs2005/sealdrop/internal/server/models"
)

type Repository interface {
	// Create inserts user and fills in ID and CreatedAt. A duplicate email
	// yields common.ErrorAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// List returns every account, oldest first.
	List(ctx context.Context) ([]*models.User, error)
	// ListByManager returns the accounts whose reviewer is managerEmail.
	ListByManager(ctx context.Context, managerEmail string) ([]*models.User, error)
	UpdateStatus(ctx context.Context, id string, status models.AccountStatus) error
	UpdatePassword(ctx context.Context, id string, hash []byte) error
}
