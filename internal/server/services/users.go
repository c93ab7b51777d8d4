// Package services contains server-side business logic. UserService covers
// accounts and tokens; FileService covers uploads, review and escrow access.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/dbx"
	"github.com/dmitrijs2005/sealdrop/internal/logging"
	"github.com/dmitrijs2005/sealdrop/internal/server/auth"
	"github.com/dmitrijs2005/sealdrop/internal/server/config"
	"github.com/dmitrijs2005/sealdrop/internal/server/mailer"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
	"github.com/dmitrijs2005/sealdrop/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Role         models.Role
}

type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	notifier                     *mailer.Notifier
	log                          logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, n *mailer.Notifier, log logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		notifier:                     n,
		log:                          log.With("module", "users"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", common.ErrorIncorrectMetadata)
	}
	return email, nil
}

func hashPassword(password string) ([]byte, error) {
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrWeakPassword) {
		return nil, fmt.Errorf("%w: %v", common.ErrorIncorrectMetadata, err)
	}
	return hash, err
}

// Authenticate verifies an access token.
func (s *UserService) Authenticate(token string) (*auth.Identity, error) {
	return auth.ParseToken(token, s.jwtSecret)
}

// Signup registers a self-service employee account awaiting approval.
func (s *UserService) Signup(ctx context.Context, email, password string) (*models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleEmployee,
		Status:       models.AccountPending,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "account registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and mints a token pair. Unknown emails and
// wrong passwords are indistinguishable.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.generateTokenPair(ctx, s.db, user)
}

// AdminLogin is Login restricted to admin accounts.
func (s *UserService) AdminLogin(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleAdmin {
		return nil, common.ErrorUnauthorized
	}
	return s.generateTokenPair(ctx, s.db, user)
}

func (s *UserService) checkCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}
	if user.Status == models.AccountRejected {
		return nil, common.ErrAccountRejected
	}
	return user, nil
}

// RefreshToken rotates a refresh token: the old one is consumed and a new
// pair is issued in the same transaction.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}

	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var tokenPair *TokenPair

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			return err
		}
		if user.Status == models.AccountRejected {
			return common.ErrAccountRejected
		}

		tokenPair, err = s.generateTokenPair(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return tokenPair, nil
}

// ChangePassword replaces the password after checking the old one and
// revokes every outstanding refresh token of the account.
func (s *UserService) ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error {
	user, err := s.checkCredentials(ctx, email, oldPassword)
	if err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, user.ID, hash); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, user.ID)
	})
}

// CreateUser lets an admin open an approved account and mails the
// credentials to its owner. Mail failure is logged, not returned.
func (s *UserService) CreateUser(ctx context.Context, caller *auth.Identity, email, password string, role models.Role, managerEmail string) (*models.User, error) {
	if caller.Role != models.RoleAdmin {
		return nil, common.ErrForbidden
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if role == "" {
		role = models.RoleEmployee
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrorIncorrectMetadata, role)
	}

	repo := s.repomanager.Users(s.db)

	if managerEmail != "" {
		managerEmail, err = normalizeEmail(managerEmail)
		if err != nil {
			return nil, err
		}
		manager, err := repo.GetByEmail(ctx, managerEmail)
		if errors.Is(err, common.ErrorNotFound) || (err == nil && manager.Role != models.RoleManager) {
			return nil, fmt.Errorf("%w: %s is not a manager", common.ErrorIncorrectMetadata, managerEmail)
		}
		if err != nil {
			return nil, err
		}
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       models.AccountApproved,
		ManagerEmail: managerEmail,
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.AccountCreated(ctx, email, password); err != nil {
		s.log.Warn(ctx, "credentials mail failed", "user_id", user.ID, "error", err)
	}
	s.log.Info(ctx, "account created", "user_id", user.ID, "role", role, "by", caller.UserID)
	return user, nil
}

// SetStatus approves or rejects an account. Admin only.
func (s *UserService) SetStatus(ctx context.Context, caller *auth.Identity, userID string, status models.AccountStatus) error {
	if caller.Role != models.RoleAdmin {
		return common.ErrForbidden
	}
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", common.ErrorIncorrectMetadata, status)
	}
	if !validID(userID) {
		return common.ErrorNotFound
	}
	return s.repomanager.Users(s.db).UpdateStatus(ctx, userID, status)
}

// ListUsers returns every account. Admins and managers only.
func (s *UserService) ListUsers(ctx context.Context, caller *auth.Identity) ([]*models.User, error) {
	if caller.Role != models.RoleAdmin && caller.Role != models.RoleManager {
		return nil, common.ErrForbidden
	}
	return s.repomanager.Users(s.db).List(ctx)
}

// ManagedUsers returns the accounts assigned to the calling manager.
func (s *UserService) ManagedUsers(ctx context.Context, caller *auth.Identity) ([]*models.User, error) {
	if caller.Role != models.RoleManager {
		return nil, common.ErrForbidden
	}
	return s.repomanager.Users(s.db).ListByManager(ctx, caller.Email)
}

// BootstrapAdmin makes sure the configured admin account exists. It is a
// no-op when email or password is empty or the account is already there.
func (s *UserService) BootstrapAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	repo := s.repomanager.Users(s.db)
	_, err = repo.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	_, err = repo.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       models.AccountApproved,
	})
	if errors.Is(err, common.ErrorAlreadyExists) {
		return nil
	}
	if err == nil {
		s.log.Info(ctx, "admin account bootstrapped", "email", email)
	}
	return err
}

func (s *UserService) generateTokenPair(ctx context.Context, db dbx.DBTX, user *models.User) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(auth.Identity{UserID: user.ID, Email: user.Email, Role: user.Role},
		s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.repomanager.RefreshTokens(db).Create(ctx, user.ID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, Role: user.Role}, nil
}
