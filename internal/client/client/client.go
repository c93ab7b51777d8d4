package client

import (
	"context"

	"github.com/dmitrijs2005/sealdrop/internal/client/models"
)

// Client is the sealdrop API as used by the CLI.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	// SetSession installs tokens restored from local storage.
	SetSession(s *models.Session)
	// OnRefresh registers a callback invoked after tokens were rotated.
	OnRefresh(fn func(s *models.Session))

	Signup(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	AdminLogin(ctx context.Context, email, password string) (*models.Session, error)
	ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error
	CreateUser(ctx context.Context, u models.NewUser) (*models.User, error)
	SetUserStatus(ctx context.Context, userID, status string) error
	ListUsers(ctx context.Context) ([]models.User, error)
	ManagedUsers(ctx context.Context) ([]models.User, error)

	UploadFile(ctx context.Context, filename string, ciphertext []byte, ivHex, keyHex string) (*models.File, error)
	ListFiles(ctx context.Context) ([]models.File, error)
	GetFile(ctx context.Context, id string) (*models.File, error)
	DeleteFile(ctx context.Context, id string) error
	ReviewFile(ctx context.Context, id, action string) (*models.Transition, error)
	PendingFiles(ctx context.Context) ([]models.File, error)
	GetAdminFile(ctx context.Context, id string) (*models.AdminFile, error)
	ListUserFiles(ctx context.Context, userID string) ([]models.AdminFile, error)
}
