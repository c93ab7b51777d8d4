package escrow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/dbx"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts entry. A second entry for the same file violates the
// unique constraint and yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, entry *models.EscrowEntry) (*models.EscrowEntry, error) {
	query := `
		INSERT INTO escrow_entries (owner_id, file_id, sealed_key)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, entry.OwnerID, entry.FileID, entry.SealedKey).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entry, nil
}

func (r *PostgresRepository) GetByFileID(ctx context.Context, fileID string) (*models.EscrowEntry, error) {
	query := `SELECT id, owner_id, file_id, sealed_key, created_at FROM escrow_entries WHERE file_id = $1`

	e := &models.EscrowEntry{}
	err := r.db.QueryRowContext(ctx, query, fileID).Scan(&e.ID, &e.OwnerID, &e.FileID, &e.SealedKey, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrEscrowMissing
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return e, nil
}

func (r *PostgresRepository) DeleteByFileID(ctx context.Context, fileID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM escrow_entries WHERE file_id = $1`, fileID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) (map[string]*models.EscrowEntry, error) {
	query := `SELECT id, owner_id, file_id, sealed_key, created_at FROM escrow_entries WHERE owner_id = $1`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select escrow entries: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*models.EscrowEntry)
	for rows.Next() {
		e := &models.EscrowEntry{}
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.FileID, &e.SealedKey, &e.CreatedAt); err != nil {
			return nil, err
		}
		result[e.FileID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
