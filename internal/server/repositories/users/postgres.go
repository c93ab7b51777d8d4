package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/dbx"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
)

const selectColumns = `SELECT id, email, password_hash, role, status, manager_email, created_at FROM users`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash, role, status, manager_email)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, string(user.Role), string(user.Status), user.ManagerEmail).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectColumns+` WHERE email = $1`, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, selectColumns+` WHERE id = $1`, id)
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	return r.getMany(ctx, selectColumns+` ORDER BY created_at`)
}

func (r *PostgresRepository) ListByManager(ctx context.Context, managerEmail string) ([]*models.User, error) {
	return r.getMany(ctx, selectColumns+` WHERE manager_email = $1 ORDER BY created_at`, managerEmail)
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.AccountStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return notFoundIfNone(dbx.ExactlyOne(res))
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return notFoundIfNone(dbx.ExactlyOne(res))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	u := &models.User{}
	var role, status string
	if err := s.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &status, &u.ManagerEmail, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.Status = models.AccountStatus(status)
	return u, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) getMany(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func notFoundIfNone(err error) error {
	if errors.Is(err, dbx.ErrNoRowsAffected) {
		return common.ErrorNotFound
	}
	return err
}
