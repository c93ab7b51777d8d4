package files

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
)

var fileColumns = []string{"id", "public_id", "original_filename", "owner_id", "iv", "status", "manager_email", "approved_by", "created_at"}

const (
	approveQ      = `(?s)^UPDATE\s+files\s+SET\s+status\s*=\s*'approved',\s*approved_by\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s+AND\s+status\s*=\s*'pending'$`
	deletePendQ   = `(?s)^DELETE\s+FROM\s+files\s+WHERE\s+id\s*=\s*\$1\s+AND\s+status\s*=\s*'pending'\s+RETURNING\s+public_id$`
	statusLookupQ = `(?s)^SELECT\s+status\s+FROM\s+files\s+WHERE\s+id\s*=\s*\$1$`
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+files\b.*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*'pending',\s*\$5\)\s*RETURNING\s+id,\s*created_at$`
	now := time.Now()
	mock.ExpectQuery(q).
		WithArgs("blob-1", "note.txt", "u1", "00ff", "boss@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("f1", now))

	got, err := repo.Create(context.Background(), &models.File{
		PublicID:         "blob-1",
		OriginalFilename: "note.txt",
		OwnerID:          "u1",
		IV:               "00ff",
		ManagerEmail:     "boss@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "f1" || got.Status != models.FilePending {
		t.Fatalf("unexpected file: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+files\b`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.File{})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID(t *testing.T) {
	q := `(?s)^SELECT\s+id,.*FROM\s+files\s+WHERE\s+id\s*=\s*\$1$`

	t.Run("found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(q).WithArgs("f1").WillReturnRows(sqlmock.NewRows(fileColumns).
			AddRow("f1", "blob-1", "note.txt", "u1", "00ff", "approved", "boss@example.com", "boss@example.com", time.Now()))

		got, err := repo.GetByID(context.Background(), "f1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Status != models.FileApproved || got.ApprovedBy != "boss@example.com" || got.PublicID != "blob-1" {
			t.Fatalf("unexpected file: %+v", got)
		}
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(q).WithArgs("nope").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "nope")
		if !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("want ErrorNotFound, got %v", err)
		}
	})
}

func TestListByOwner_NewestFirst(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+files\s+WHERE\s+owner_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC$`
	mock.ExpectQuery(q).WithArgs("u1").WillReturnRows(sqlmock.NewRows(fileColumns).
		AddRow("f2", "b2", "b.pdf", "u1", "01", "pending", "m@x", "", time.Now()).
		AddRow("f1", "b1", "a.pdf", "u1", "02", "approved", "m@x", "m@x", time.Now().Add(-time.Hour)))

	got, err := repo.ListByOwner(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "f2" {
		t.Fatalf("unexpected files: %+v", got)
	}
}

func TestListByReviewer_QueryErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+files\s+WHERE\s+manager_email\s*=\s*\$1\s+AND\s+status\s*=\s*\$2`
	mock.ExpectQuery(q).WithArgs("m@x", "pending").WillReturnError(errors.New("db err"))

	_, err := repo.ListByReviewer(context.Background(), "m@x", models.FilePending)
	if err == nil || !regexp.MustCompile(`failed to select files: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped select error, got %v", err)
	}
}

func TestListByReviewer_ScanErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+files\s+WHERE\s+manager_email`
	mock.ExpectQuery(q).WillReturnRows(sqlmock.NewRows(fileColumns).
		AddRow("f1", "b1", "a.pdf", "u1", "02", "pending", "m@x", "", "not-a-time"))

	if _, err := repo.ListByReviewer(context.Background(), "m@x", models.FilePending); err == nil {
		t.Fatal("expected scan error, got nil")
	}
}

func TestApprove(t *testing.T) {
	t.Run("pending file", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(approveQ).WithArgs("f1", "boss@example.com").WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.Approve(context.Background(), "f1", "boss@example.com"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
	})

	t.Run("already approved", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(approveQ).WithArgs("f1", "boss@example.com").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(statusLookupQ).WithArgs("f1").WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("approved"))

		err := repo.Approve(context.Background(), "f1", "boss@example.com")
		if !errors.Is(err, common.ErrInvalidTransition) {
			t.Fatalf("want ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(approveQ).WithArgs("f1", "boss@example.com").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(statusLookupQ).WithArgs("f1").WillReturnError(sql.ErrNoRows)

		err := repo.Approve(context.Background(), "f1", "boss@example.com")
		if !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("want ErrorNotFound, got %v", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectExec(approveQ).WillReturnError(errors.New("db err"))

		err := repo.Approve(context.Background(), "f1", "boss@example.com")
		if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
			t.Fatalf("expected wrapped db error, got %v", err)
		}
	})
}

func TestDeletePending(t *testing.T) {
	t.Run("pending file", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(deletePendQ).WithArgs("f1").WillReturnRows(sqlmock.NewRows([]string{"public_id"}).AddRow("blob-1"))

		got, err := repo.DeletePending(context.Background(), "f1")
		if err != nil || got != "blob-1" {
			t.Fatalf("got %q, %v", got, err)
		}
	})

	t.Run("already approved", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(deletePendQ).WithArgs("f1").WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(statusLookupQ).WithArgs("f1").WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("approved"))

		_, err := repo.DeletePending(context.Background(), "f1")
		if !errors.Is(err, common.ErrInvalidTransition) {
			t.Fatalf("want ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("missing", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()
		mock.ExpectQuery(deletePendQ).WithArgs("f1").WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(statusLookupQ).WithArgs("f1").WillReturnError(sql.ErrNoRows)

		_, err := repo.DeletePending(context.Background(), "f1")
		if !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("want ErrorNotFound, got %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	q := `(?s)^DELETE\s+FROM\s+files\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+public_id$`

	repo, mock, db := newRepoWithMock(t)
	defer db.Close()
	mock.ExpectQuery(q).WithArgs("f1").WillReturnRows(sqlmock.NewRows([]string{"public_id"}).AddRow("blob-1"))
	mock.ExpectQuery(q).WithArgs("f2").WillReturnError(sql.ErrNoRows)

	got, err := repo.Delete(context.Background(), "f1")
	if err != nil || got != "blob-1" {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := repo.Delete(context.Background(), "f2"); !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}
