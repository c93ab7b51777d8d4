package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/cryptox"
	"github.com/dmitrijs2005/sealdrop/internal/dbx"
	"github.com/dmitrijs2005/sealdrop/internal/logging"
	"github.com/dmitrijs2005/sealdrop/internal/server/approval"
	"github.com/dmitrijs2005/sealdrop/internal/server/auth"
	"github.com/dmitrijs2005/sealdrop/internal/server/blobstore"
	"github.com/dmitrijs2005/sealdrop/internal/server/mailer"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
	"github.com/dmitrijs2005/sealdrop/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	sealer      *cryptox.EscrowSealer
	notifier    *mailer.Notifier
	log         logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store,
	sealer *cryptox.EscrowSealer, n *mailer.Notifier, log logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		sealer:      sealer,
		notifier:    n,
		log:         log.With("module", "files"),
	}
}

// validID reports whether id can name a row. Anything else cannot exist.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func cleanFilename(name string) (string, error) {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", fmt.Errorf("%w: missing filename", common.ErrorIncorrectMetadata)
	}
	return name, nil
}

// Upload stores an encrypted file for the caller together with the escrowed
// copy of its key. The blob is written first; if the records cannot be
// committed the blob is removed again.
func (s *FileService) Upload(ctx context.Context, caller *auth.Identity, filename string, ciphertext []byte, ivHex, keyHex string) (*FileView, error) {
	filename, err := cleanFilename(filename)
	if err != nil {
		return nil, err
	}
	if err := cryptox.ValidateIVHex(ivHex); err != nil {
		return nil, fmt.Errorf("%w: iv", err)
	}
	if err := cryptox.ValidateKeyHex(keyHex); err != nil {
		return nil, fmt.Errorf("%w: encryption key", common.ErrorIncorrectMetadata)
	}
	if err := cryptox.ValidateCiphertext(ciphertext); err != nil {
		return nil, fmt.Errorf("%w: ciphertext", err)
	}

	owner, err := s.repomanager.Users(s.db).GetByID(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}

	publicID, err := s.blobs.Put(ctx, ciphertext)
	if err != nil {
		return nil, err
	}

	var file *models.File
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Files(tx).Create(ctx, &models.File{
			PublicID:         publicID,
			OriginalFilename: filename,
			OwnerID:          owner.ID,
			IV:               strings.ToLower(ivHex),
			ManagerEmail:     owner.ManagerEmail,
		})
		if err != nil {
			return err
		}
		file = created

		sealed, err := s.sealer.SealEscrowKey(strings.ToLower(keyHex), file.ID, owner.ID)
		if err != nil {
			return err
		}

		_, err = s.repomanager.Escrow(tx).Create(ctx, &models.EscrowEntry{
			OwnerID:   owner.ID,
			FileID:    file.ID,
			SealedKey: sealed,
		})
		return err
	})
	if err != nil {
		if derr := s.blobs.Delete(context.WithoutCancel(ctx), publicID); derr != nil {
			s.log.Error(ctx, "orphaned blob after failed upload", "public_id", publicID, "error", derr)
		}
		return nil, err
	}

	s.log.Info(ctx, "file uploaded", "file_id", file.ID, "owner_id", owner.ID)

	if owner.ManagerEmail != "" {
		if err := s.notifier.FileAwaitingReview(ctx, owner.ManagerEmail, owner.Email, filename); err != nil {
			s.log.Warn(ctx, "review notification failed", "file_id", file.ID, "error", err)
		}
	}

	v, err := s.view(ctx, file)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *FileService) view(ctx context.Context, f *models.File) (FileView, error) {
	url, err := s.blobs.URL(ctx, f.PublicID)
	if err != nil {
		return FileView{}, err
	}
	return newFileView(f, url), nil
}

func (s *FileService) views(ctx context.Context, files []*models.File) ([]FileView, error) {
	out := make([]FileView, 0, len(files))
	for _, f := range files {
		v, err := s.view(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ListOwn returns the caller's files, newest first.
func (s *FileService) ListOwn(ctx context.Context, caller *auth.Identity) ([]FileView, error) {
	files, err := s.repomanager.Files(s.db).ListByOwner(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, files)
}

func (s *FileService) ownFile(ctx context.Context, caller *auth.Identity, id string) (*models.File, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	file, err := s.repomanager.Files(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Someone else's file is reported as missing.
	if file.OwnerID != caller.UserID {
		return nil, common.ErrorNotFound
	}
	return file, nil
}

// GetOwn returns one of the caller's files.
func (s *FileService) GetOwn(ctx context.Context, caller *auth.Identity, id string) (*FileView, error) {
	file, err := s.ownFile(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	v, err := s.view(ctx, file)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// GetAdmin returns any file with its escrowed key. Admin only.
func (s *FileService) GetAdmin(ctx context.Context, caller *auth.Identity, id string) (*AdminFileView, error) {
	if caller.Role != models.RoleAdmin {
		return nil, common.ErrForbidden
	}
	if !validID(id) {
		return nil, common.ErrorNotFound
	}

	file, err := s.repomanager.Files(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	entry, err := s.repomanager.Escrow(s.db).GetByFileID(ctx, file.ID)
	if err != nil {
		if errors.Is(err, common.ErrEscrowMissing) {
			s.log.Error(ctx, "file without escrow entry", "file_id", file.ID)
		}
		return nil, err
	}
	return s.adminView(ctx, file, entry)
}

func (s *FileService) adminView(ctx context.Context, file *models.File, entry *models.EscrowEntry) (*AdminFileView, error) {
	key, err := s.sealer.OpenEscrowKey(entry.SealedKey, file.ID, file.OwnerID)
	if err != nil {
		s.log.Error(ctx, "escrow entry does not open", "file_id", file.ID)
		return nil, err
	}
	v, err := s.view(ctx, file)
	if err != nil {
		return nil, err
	}
	return &AdminFileView{FileView: v, OwnerID: file.OwnerID, EncryptionKey: key}, nil
}

// ListForUserAdmin returns every file of userID with its escrowed key. A
// single missing or corrupt escrow entry fails the whole listing.
func (s *FileService) ListForUserAdmin(ctx context.Context, caller *auth.Identity, userID string) ([]AdminFileView, error) {
	if caller.Role != models.RoleAdmin {
		return nil, common.ErrForbidden
	}
	if !validID(userID) {
		return nil, common.ErrorNotFound
	}
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return nil, err
	}

	files, err := s.repomanager.Files(s.db).ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repomanager.Escrow(s.db).ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]AdminFileView, 0, len(files))
	for _, f := range files {
		entry, ok := entries[f.ID]
		if !ok {
			s.log.Error(ctx, "file without escrow entry", "file_id", f.ID)
			return nil, fmt.Errorf("%w: file %s", common.ErrEscrowMissing, f.ID)
		}
		v, err := s.adminView(ctx, f, entry)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

// PendingForManager lists the files awaiting the calling manager's review
// with their owners' emails.
func (s *FileService) PendingForManager(ctx context.Context, caller *auth.Identity) ([]FileView, error) {
	if caller.Role != models.RoleManager {
		return nil, common.ErrForbidden
	}
	files, err := s.repomanager.Files(s.db).ListByReviewer(ctx, caller.Email, models.FilePending)
	if err != nil {
		return nil, err
	}
	out, err := s.views(ctx, files)
	if err != nil {
		return nil, err
	}

	users := s.repomanager.Users(s.db)
	emails := make(map[string]string)
	for i, f := range files {
		email, ok := emails[f.OwnerID]
		if !ok {
			owner, err := users.GetByID(ctx, f.OwnerID)
			if err != nil {
				return nil, err
			}
			email = owner.Email
			emails[f.OwnerID] = email
		}
		out[i].OwnerEmail = email
	}
	return out, nil
}

// Transition applies a reviewer decision to a pending file and returns the
// resulting status. Rejecting deletes the record, its escrow entry and the
// blob; of two concurrent decisions exactly one wins.
func (s *FileService) Transition(ctx context.Context, caller *auth.Identity, id, actionName string) (models.FileStatus, error) {
	action, err := approval.ParseAction(actionName)
	if err != nil {
		return "", err
	}
	if !validID(id) {
		return "", common.ErrorNotFound
	}

	file, err := s.repomanager.Files(s.db).GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !approval.CanReview(caller.Role, caller.Email, file.ManagerEmail) {
		return "", common.ErrForbidden
	}
	next, err := approval.Next(file.Status, action)
	if err != nil {
		return "", err
	}

	switch next {
	case models.FileApproved:
		if err := s.repomanager.Files(s.db).Approve(ctx, id, caller.Email); err != nil {
			return "", err
		}
	case models.FileRejected:
		if err := s.removeFile(ctx, id, true); err != nil {
			return "", err
		}
	}

	s.log.Info(ctx, "file reviewed", "file_id", id, "status", next, "by", caller.UserID)
	s.notifyOwner(ctx, file, next, caller.Email)
	return next, nil
}

func (s *FileService) notifyOwner(ctx context.Context, file *models.File, status models.FileStatus, reviewer string) {
	owner, err := s.repomanager.Users(s.db).GetByID(ctx, file.OwnerID)
	if err == nil {
		err = s.notifier.FileDecision(ctx, owner.Email, file.OriginalFilename, string(status), reviewer)
	}
	if err != nil {
		s.log.Warn(ctx, "decision notification failed", "file_id", file.ID, "error", err)
	}
}

// DeleteOwn removes one of the caller's files in any status.
func (s *FileService) DeleteOwn(ctx context.Context, caller *auth.Identity, id string) error {
	if _, err := s.ownFile(ctx, caller, id); err != nil {
		return err
	}
	if err := s.removeFile(ctx, id, false); err != nil {
		return err
	}
	s.log.Info(ctx, "file deleted", "file_id", id, "by", caller.UserID)
	return nil
}

// removeFile deletes the record and escrow entry in one transaction and then
// the blob. With pendingOnly the delete is conditional on the file still
// being pending.
func (s *FileService) removeFile(ctx context.Context, id string, pendingOnly bool) error {
	var publicID string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if pendingOnly {
			publicID, err = s.repomanager.Files(tx).DeletePending(ctx, id)
		} else {
			publicID, err = s.repomanager.Files(tx).Delete(ctx, id)
		}
		if err != nil {
			return err
		}
		return s.repomanager.Escrow(tx).DeleteByFileID(ctx, id)
	})
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(context.WithoutCancel(ctx), publicID); err != nil {
		s.log.Error(ctx, "orphaned blob after delete", "file_id", id, "public_id", publicID, "error", err)
	}
	return nil
}
