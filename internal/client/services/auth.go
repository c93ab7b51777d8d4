// Package services contains application services for the sealdrop client.
// This file defines the authentication service: login, signup, logout,
// password change and persistence of the session in local metadata.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sealdrop/internal/client/client"
	"github.com/dmitrijs2005/sealdrop/internal/client/models"
	"github.com/dmitrijs2005/sealdrop/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/dbx"
	"github.com/dmitrijs2005/sealdrop/internal/logging"
)

// Metadata keys of the persisted session.
const (
	sessionEmailKey   = "session.email"
	sessionAccessKey  = "session.access_token"
	sessionRefreshKey = "session.refresh_token"
	sessionRoleKey    = "session.role"
)

var sessionKeys = []string{sessionEmailKey, sessionAccessKey, sessionRefreshKey, sessionRoleKey}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login/AdminLogin: authenticate and persist the session locally.
//   - RestoreSession: reload a persisted session into the API client.
//   - Logout: forget the session. The encryption key is kept, otherwise
//     files uploaded earlier could no longer be decrypted.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.Session, error)
	AdminLogin(ctx context.Context, email, password string) (*models.Session, error)
	ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error
	RestoreSession(ctx context.Context) (*models.Session, error)
	Logout(ctx context.Context) error
	Close(ctx context.Context) error
}

// authService is the concrete AuthService backed by a remote Client
// and the local metadata table.
type authService struct {
	client client.Client
	db     *sql.DB
	log    logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and
// DB. Tokens rotated by the client are written back to the DB.
func NewAuthService(c client.Client, db *sql.DB, l logging.Logger) AuthService {
	a := &authService{client: c, db: db, log: l.With("module", "auth")}
	c.OnRefresh(a.storeRefreshed)
	return a
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

func (a *authService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	return a.client.Signup(ctx, email, password)
}

func (a *authService) Login(ctx context.Context, email, password string) (*models.Session, error) {
	s, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

func (a *authService) AdminLogin(ctx context.Context, email, password string) (*models.Session, error) {
	s, err := a.client.AdminLogin(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	if err := a.saveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("session saving error: %w", err)
	}
	return s, nil
}

// ChangePassword also ends the local session: the server revokes all
// refresh tokens of the account.
func (a *authService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	if err := a.client.ChangePassword(ctx, email, oldPassword, newPassword); err != nil {
		return err
	}
	return a.Logout(ctx)
}

// saveSession persists the session in a single transaction.
func (a *authService) saveSession(ctx context.Context, s *models.Session) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		values := map[string]string{
			sessionEmailKey:   s.Email,
			sessionAccessKey:  s.AccessToken,
			sessionRefreshKey: s.RefreshToken,
			sessionRoleKey:    s.Role,
		}
		for k, v := range values {
			if err := repo.Set(ctx, k, []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
}

// storeRefreshed keeps the persisted tokens in step with the client.
func (a *authService) storeRefreshed(s *models.Session) {
	ctx := context.Background()
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, sessionAccessKey, []byte(s.AccessToken)); err != nil {
			return err
		}
		return repo.Set(ctx, sessionRefreshKey, []byte(s.RefreshToken))
	})
	if err != nil {
		a.log.Warn(ctx, "failed to persist refreshed tokens", "error", err)
	}
}

// RestoreSession loads the persisted session into the client. It returns
// client.ErrNotLoggedIn when there is none.
func (a *authService) RestoreSession(ctx context.Context) (*models.Session, error) {
	repo := a.getMetadataRepo()

	values := make(map[string]string, len(sessionKeys))
	for _, k := range sessionKeys {
		v, err := repo.Get(ctx, k)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil, client.ErrNotLoggedIn
			}
			return nil, err
		}
		values[k] = string(v)
	}

	s := &models.Session{
		Email:        values[sessionEmailKey],
		AccessToken:  values[sessionAccessKey],
		RefreshToken: values[sessionRefreshKey],
		Role:         values[sessionRoleKey],
	}
	a.client.SetSession(s)
	return s, nil
}

// Logout removes the session keys only.
func (a *authService) Logout(ctx context.Context) error {
	a.client.SetSession(nil)
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		for _, k := range sessionKeys {
			if err := repo.Delete(ctx, k); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases resources held by the underlying client.
func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
