package services

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/dbx"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
	"github.com/dmitrijs2005/sealdrop/internal/server/repositories/escrow"
	"github.com/dmitrijs2005/sealdrop/internal/server/repositories/files"
	"github.com/dmitrijs2005/sealdrop/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/sealdrop/internal/server/repositories/users"
	"github.com/google/uuid"
)

// memStore backs every fake repository. Transactions are not modelled: the
// sqlmock DB only sees Begin/Commit/Rollback.
type memStore struct {
	mu     sync.Mutex
	users  map[string]*models.User
	files  map[string]*models.File
	escrow map[string]*models.EscrowEntry
	tokens map[string]*models.RefreshToken

	escrowCreateErr error
	afterTokenFind  func(token string)
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]*models.User{},
		files:  map[string]*models.File{},
		escrow: map[string]*models.EscrowEntry{},
		tokens: map[string]*models.RefreshToken{},
	}
}

type fakeManager struct{ st *memStore }

func (m fakeManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m fakeManager) Users(dbx.DBTX) users.Repository                 { return (*memUsers)(m.st) }
func (m fakeManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return (*memTokens)(m.st) }
func (m fakeManager) Files(dbx.DBTX) files.Repository                 { return (*memFiles)(m.st) }
func (m fakeManager) Escrow(dbx.DBTX) escrow.Repository               { return (*memEscrow)(m.st) }

type memUsers memStore

func (r *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.users {
		if e.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	c := *u
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	r.users[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (r *memUsers) List(_ context.Context) ([]*models.User, error) {
	return r.filter(func(*models.User) bool { return true }), nil
}

func (r *memUsers) ListByManager(_ context.Context, managerEmail string) ([]*models.User, error) {
	return r.filter(func(u *models.User) bool { return u.ManagerEmail == managerEmail }), nil
}

func (r *memUsers) filter(keep func(*models.User) bool) []*models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if keep(u) {
			c := *u
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (r *memUsers) UpdateStatus(_ context.Context, id string, status models.AccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Status = status
	return nil
}

func (r *memUsers) UpdatePassword(_ context.Context, id string, hash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

type memTokens memStore

func (r *memTokens) Create(_ context.Context, userID, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, Expires: time.Now().Add(validity)}
	return nil
}

func (r *memTokens) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	t, ok := r.tokens[token]
	if !ok {
		r.mu.Unlock()
		return nil, common.ErrorNotFound
	}
	c := *t
	hook := r.afterTokenFind
	r.mu.Unlock()

	if hook != nil {
		hook(token)
	}
	return &c, nil
}

func (r *memTokens) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[token]; !ok {
		return common.ErrorNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *memTokens) DeleteByUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

type memFiles memStore

func (r *memFiles) Create(_ context.Context, f *models.File) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *f
	c.ID = uuid.NewString()
	c.Status = models.FilePending
	c.CreatedAt = time.Now()
	r.files[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memFiles) GetByID(_ context.Context, id string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *f
	return &c, nil
}

func (r *memFiles) ListByOwner(_ context.Context, ownerID string) ([]*models.File, error) {
	return r.filter(func(f *models.File) bool { return f.OwnerID == ownerID }), nil
}

func (r *memFiles) ListByReviewer(_ context.Context, managerEmail string, status models.FileStatus) ([]*models.File, error) {
	return r.filter(func(f *models.File) bool { return f.ManagerEmail == managerEmail && f.Status == status }), nil
}

func (r *memFiles) filter(keep func(*models.File) bool) []*models.File {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.File
	for _, f := range r.files {
		if keep(f) {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memFiles) pending(id string) (*models.File, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if f.Status != models.FilePending {
		return nil, common.ErrInvalidTransition
	}
	return f, nil
}

func (r *memFiles) Approve(_ context.Context, id, approvedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := r.pending(id)
	if err != nil {
		return err
	}
	f.Status = models.FileApproved
	f.ApprovedBy = approvedBy
	return nil
}

func (r *memFiles) DeletePending(_ context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := r.pending(id)
	if err != nil {
		return "", err
	}
	delete(r.files, id)
	return f.PublicID, nil
}

func (r *memFiles) Delete(_ context.Context, id string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	delete(r.files, id)
	return f.PublicID, nil
}

type memEscrow memStore

func (r *memEscrow) Create(_ context.Context, e *models.EscrowEntry) (*models.EscrowEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.escrowCreateErr != nil {
		return nil, r.escrowCreateErr
	}
	if _, ok := r.escrow[e.FileID]; ok {
		return nil, common.ErrorAlreadyExists
	}
	c := *e
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	r.escrow[c.FileID] = &c
	out := c
	return &out, nil
}

func (r *memEscrow) GetByFileID(_ context.Context, fileID string) (*models.EscrowEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.escrow[fileID]
	if !ok {
		return nil, common.ErrEscrowMissing
	}
	c := *e
	return &c, nil
}

func (r *memEscrow) DeleteByFileID(_ context.Context, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.escrow, fileID)
	return nil
}

func (r *memEscrow) ListByOwner(_ context.Context, ownerID string) (map[string]*models.EscrowEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]*models.EscrowEntry{}
	for k, e := range r.escrow {
		if e.OwnerID == ownerID {
			c := *e
			out[k] = &c
		}
	}
	return out, nil
}

// memBlobs is an in-memory blobstore.Store.
type memBlobs struct {
	mu        sync.Mutex
	data      map[string][]byte
	putErr    error
	deleteErr error
	deleted   []string
}

func newMemBlobs() *memBlobs { return &memBlobs{data: map[string][]byte{}} }

func (b *memBlobs) Put(_ context.Context, data []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return "", b.putErr
	}
	key := "files/" + uuid.NewString()
	b.data[key] = append([]byte(nil), data...)
	return key, nil
}

func (b *memBlobs) URL(_ context.Context, publicID string) (string, error) {
	return "https://blobs.test/" + publicID, nil
}

func (b *memBlobs) Delete(_ context.Context, publicID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, publicID)
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.data, publicID)
	return nil
}

func (b *memBlobs) get(publicID string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.data[publicID]
	return d, ok
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

type sentMail struct{ to, subject, body string }

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

func (m *fakeMailer) messages() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

var errBoom = errors.New("boom")

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func expectTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	mock.ExpectCommit()
}

func (st *memStore) addUser(email string, role models.Role, managerEmail string) *models.User {
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Role:         role,
		Status:       models.AccountApproved,
		ManagerEmail: managerEmail,
		CreatedAt:    time.Now(),
	}
	st.mu.Lock()
	st.users[u.ID] = u
	st.mu.Unlock()
	return u
}

func (st *memStore) fileCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.files)
}

func (st *memStore) escrowCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.escrow)
}

func (st *memStore) mustFile(t *testing.T, id string) *models.File {
	t.Helper()
	st.mu.Lock()
	defer st.mu.Unlock()
	f, ok := st.files[id]
	if !ok {
		t.Fatalf("file %s not stored", id)
	}
	c := *f
	return &c
}
