package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/dbx"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
)

const selectColumns = `SELECT id, public_id, original_filename, owner_id, iv, status, manager_email, approved_by, created_at FROM files`

// PostgresRepository implements file storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a file record with status pending.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (public_id, original_filename, owner_id, iv, status, manager_email)
		VALUES ($1, $2, $3, $4, 'pending', $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.PublicID, file.OriginalFilename, file.OwnerID, file.IV, file.ManagerEmail).
		Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	file.Status = models.FilePending
	return file, nil
}

// GetByID returns the file or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.File, error) {
	return r.selectMany(ctx, selectColumns+` WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
}

func (r *PostgresRepository) ListByReviewer(ctx context.Context, managerEmail string, status models.FileStatus) ([]*models.File, error) {
	return r.selectMany(ctx, selectColumns+` WHERE manager_email = $1 AND status = $2 ORDER BY created_at DESC`, managerEmail, string(status))
}

// Approve is a compare-and-set on status, so of two concurrent decisions
// exactly one succeeds.
func (r *PostgresRepository) Approve(ctx context.Context, id, approvedBy string) error {
	query := `UPDATE files SET status = 'approved', approved_by = $2 WHERE id = $1 AND status = 'pending'`
	res, err := r.db.ExecContext(ctx, query, id, approvedBy)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	err = dbx.ExactlyOne(res)
	if errors.Is(err, dbx.ErrNoRowsAffected) {
		return r.explainMiss(ctx, id)
	}
	return err
}

// DeletePending deletes a pending file. The escrow row goes with it through
// the foreign key cascade.
func (r *PostgresRepository) DeletePending(ctx context.Context, id string) (string, error) {
	query := `DELETE FROM files WHERE id = $1 AND status = 'pending' RETURNING public_id`
	var publicID string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&publicID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", r.explainMiss(ctx, id)
	}
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return publicID, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (string, error) {
	var publicID string
	err := r.db.QueryRowContext(ctx, `DELETE FROM files WHERE id = $1 RETURNING public_id`, id).Scan(&publicID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", common.ErrorNotFound
	}
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}
	return publicID, nil
}

// explainMiss tells a missing file apart from one that already left pending.
func (r *PostgresRepository) explainMiss(ctx context.Context, id string) error {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM files WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return common.ErrInvalidTransition
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.File, error) {
	f := &models.File{}
	var status string
	if err := s.Scan(&f.ID, &f.PublicID, &f.OriginalFilename, &f.OwnerID, &f.IV, &status, &f.ManagerEmail, &f.ApprovedBy, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Status = models.FileStatus(status)
	return f, nil
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
