package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/logging"
	"github.com/dmitrijs2005/sealdrop/internal/server/auth"
	"github.com/dmitrijs2005/sealdrop/internal/server/config"
	"github.com/dmitrijs2005/sealdrop/internal/server/mailer"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct horse"

func newUserService(t *testing.T) (*UserService, sqlmock.Sqlmock, *memStore, *fakeMailer) {
	t.Helper()
	db, mock := newMockDB(t)
	st := newMemStore()
	mail := &fakeMailer{}
	cfg := &config.Config{
		SecretKey:                    "test-secret",
		AccessTokenValidityDuration:  time.Minute,
		RefreshTokenValidityDuration: time.Hour,
	}
	return NewUserService(db, fakeManager{st}, mailer.NewNotifier(mail), logging.Nop(), cfg), mock, st, mail
}

func addUserWithPassword(t *testing.T, st *memStore, email string, role models.Role, status models.AccountStatus) *models.User {
	t.Helper()
	u := st.addUser(email, role, "")
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	u.PasswordHash = hash
	u.Status = status
	return u
}

func TestSignup(t *testing.T) {
	svc, _, _, _ := newUserService(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, " Alice@Example.com ", testPassword)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, models.RoleEmployee, u.Role)
	assert.Equal(t, models.AccountPending, u.Status)

	_, err = svc.Signup(ctx, "alice@example.com", testPassword)
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	_, err = svc.Signup(ctx, "bob@example.com", "short")
	assert.ErrorIs(t, err, common.ErrorIncorrectMetadata)
	_, err = svc.Signup(ctx, "not an email", testPassword)
	assert.ErrorIs(t, err, common.ErrorIncorrectMetadata)
}

func TestLogin(t *testing.T) {
	svc, _, st, _ := newUserService(t)
	ctx := context.Background()
	pending := addUserWithPassword(t, st, "p@example.com", models.RoleEmployee, models.AccountPending)
	addUserWithPassword(t, st, "r@example.com", models.RoleEmployee, models.AccountRejected)

	pair, err := svc.Login(ctx, "P@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, pair.Role)
	assert.NotEmpty(t, pair.RefreshToken)

	id, err := svc.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, pending.ID, id.UserID)
	assert.Equal(t, "p@example.com", id.Email)

	_, err = svc.Login(ctx, "r@example.com", testPassword)
	assert.ErrorIs(t, err, common.ErrAccountRejected)
	_, err = svc.Login(ctx, "p@example.com", "wrong password")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = svc.Login(ctx, "ghost@example.com", testPassword)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestAdminLogin(t *testing.T) {
	svc, _, st, _ := newUserService(t)
	ctx := context.Background()
	addUserWithPassword(t, st, "root@example.com", models.RoleAdmin, models.AccountApproved)
	addUserWithPassword(t, st, "boss@example.com", models.RoleManager, models.AccountApproved)

	pair, err := svc.AdminLogin(ctx, "root@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, pair.Role)

	_, err = svc.AdminLogin(ctx, "boss@example.com", testPassword)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestRefreshToken_Rotates(t *testing.T) {
	svc, mock, st, _ := newUserService(t)
	ctx := context.Background()
	addUserWithPassword(t, st, "a@example.com", models.RoleEmployee, models.AccountApproved)

	pair, err := svc.Login(ctx, "a@example.com", testPassword)
	require.NoError(t, err)

	expectTx(mock)
	next, err := svc.RefreshToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = svc.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRefreshToken_ConsumedConcurrently(t *testing.T) {
	svc, mock, st, _ := newUserService(t)
	u := addUserWithPassword(t, st, "a@example.com", models.RoleEmployee, models.AccountApproved)
	st.tokens["tok"] = &models.RefreshToken{UserID: u.ID, Token: "tok", Expires: time.Now().Add(time.Hour)}

	// another refresh consumes the token between lookup and delete
	st.afterTokenFind = func(token string) {
		st.mu.Lock()
		delete(st.tokens, token)
		st.mu.Unlock()
	}

	mock.ExpectBegin()
	mock.ExpectRollback()
	pair, err := svc.RefreshToken(context.Background(), "tok")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	assert.Nil(t, pair)
	assert.Empty(t, st.tokens)
}

func TestRefreshToken_Expired(t *testing.T) {
	svc, _, st, _ := newUserService(t)
	u := addUserWithPassword(t, st, "a@example.com", models.RoleEmployee, models.AccountApproved)
	st.tokens["old"] = &models.RefreshToken{UserID: u.ID, Token: "old", Expires: time.Now().Add(-time.Minute)}

	_, err := svc.RefreshToken(context.Background(), "old")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestRefreshToken_RejectedAccount(t *testing.T) {
	svc, mock, st, _ := newUserService(t)
	u := addUserWithPassword(t, st, "a@example.com", models.RoleEmployee, models.AccountRejected)
	st.tokens["tok"] = &models.RefreshToken{UserID: u.ID, Token: "tok", Expires: time.Now().Add(time.Hour)}

	mock.ExpectBegin()
	mock.ExpectRollback()
	_, err := svc.RefreshToken(context.Background(), "tok")
	assert.ErrorIs(t, err, common.ErrAccountRejected)
}

func TestChangePassword_RevokesTokens(t *testing.T) {
	svc, mock, st, _ := newUserService(t)
	ctx := context.Background()
	addUserWithPassword(t, st, "a@example.com", models.RoleEmployee, models.AccountApproved)

	pair, err := svc.Login(ctx, "a@example.com", testPassword)
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, "a@example.com", "wrong password", "new password 1")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	err = svc.ChangePassword(ctx, "a@example.com", testPassword, "short")
	assert.ErrorIs(t, err, common.ErrorIncorrectMetadata)

	expectTx(mock)
	require.NoError(t, svc.ChangePassword(ctx, "a@example.com", testPassword, "new password 1"))

	_, err = svc.Login(ctx, "a@example.com", testPassword)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
	_, err = svc.Login(ctx, "a@example.com", "new password 1")
	assert.NoError(t, err)
	_, err = svc.RefreshToken(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestCreateUser(t *testing.T) {
	svc, _, st, mail := newUserService(t)
	ctx := context.Background()
	admin := identity(addUserWithPassword(t, st, "root@example.com", models.RoleAdmin, models.AccountApproved))
	boss := addUserWithPassword(t, st, "boss@example.com", models.RoleManager, models.AccountApproved)
	emp := addUserWithPassword(t, st, "emp@example.com", models.RoleEmployee, models.AccountApproved)

	u, err := svc.CreateUser(ctx, admin, "new@example.com", testPassword, models.RoleEmployee, boss.Email)
	require.NoError(t, err)
	assert.Equal(t, models.AccountApproved, u.Status)
	assert.Equal(t, boss.Email, u.ManagerEmail)

	msgs := mail.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "new@example.com", msgs[0].to)
	assert.Contains(t, msgs[0].body, testPassword)

	_, err = svc.CreateUser(ctx, identity(boss), "x@example.com", testPassword, models.RoleEmployee, "")
	assert.ErrorIs(t, err, common.ErrForbidden)
	_, err = svc.CreateUser(ctx, admin, "x@example.com", testPassword, models.RoleEmployee, emp.Email)
	assert.ErrorIs(t, err, common.ErrorIncorrectMetadata)
	_, err = svc.CreateUser(ctx, admin, "x@example.com", testPassword, models.RoleEmployee, "nobody@example.com")
	assert.ErrorIs(t, err, common.ErrorIncorrectMetadata)
	_, err = svc.CreateUser(ctx, admin, "x@example.com", testPassword, models.Role("owner"), "")
	assert.ErrorIs(t, err, common.ErrorIncorrectMetadata)
}

func TestCreateUser_MailFailureIsNotFatal(t *testing.T) {
	svc, _, st, mail := newUserService(t)
	mail.err = errBoom
	admin := identity(addUserWithPassword(t, st, "root@example.com", models.RoleAdmin, models.AccountApproved))

	u, err := svc.CreateUser(context.Background(), admin, "new@example.com", testPassword, "", "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleEmployee, u.Role)
}

func TestSetStatus(t *testing.T) {
	svc, _, st, _ := newUserService(t)
	ctx := context.Background()
	admin := identity(addUserWithPassword(t, st, "root@example.com", models.RoleAdmin, models.AccountApproved))
	u := addUserWithPassword(t, st, "a@example.com", models.RoleEmployee, models.AccountPending)

	require.NoError(t, svc.SetStatus(ctx, admin, u.ID, models.AccountRejected))
	assert.Equal(t, models.AccountRejected, st.users[u.ID].Status)

	assert.ErrorIs(t, svc.SetStatus(ctx, identity(u), u.ID, models.AccountApproved), common.ErrForbidden)
	assert.ErrorIs(t, svc.SetStatus(ctx, admin, u.ID, models.AccountStatus("banned")), common.ErrorIncorrectMetadata)
	assert.ErrorIs(t, svc.SetStatus(ctx, admin, "bad-id", models.AccountApproved), common.ErrorNotFound)
	assert.ErrorIs(t, svc.SetStatus(ctx, admin, uuid.NewString(), models.AccountApproved), common.ErrorNotFound)
}

func TestListUsersAndManagedUsers(t *testing.T) {
	svc, _, st, _ := newUserService(t)
	ctx := context.Background()
	admin := identity(st.addUser("root@example.com", models.RoleAdmin, ""))
	boss := identity(st.addUser("boss@example.com", models.RoleManager, ""))
	emp := identity(st.addUser("emp@example.com", models.RoleEmployee, "boss@example.com"))
	st.addUser("other@example.com", models.RoleEmployee, "")

	all, err := svc.ListUsers(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	_, err = svc.ListUsers(ctx, boss)
	assert.NoError(t, err)
	_, err = svc.ListUsers(ctx, emp)
	assert.ErrorIs(t, err, common.ErrForbidden)

	managed, err := svc.ManagedUsers(ctx, boss)
	require.NoError(t, err)
	require.Len(t, managed, 1)
	assert.Equal(t, emp.UserID, managed[0].ID)
	_, err = svc.ManagedUsers(ctx, admin)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestBootstrapAdmin(t *testing.T) {
	svc, _, st, _ := newUserService(t)
	ctx := context.Background()

	require.NoError(t, svc.BootstrapAdmin(ctx, "", ""))
	assert.Empty(t, st.users)

	require.NoError(t, svc.BootstrapAdmin(ctx, "Root@example.com", testPassword))
	require.NoError(t, svc.BootstrapAdmin(ctx, "root@example.com", testPassword))
	require.Len(t, st.users, 1)

	pair, err := svc.AdminLogin(ctx, "root@example.com", testPassword)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, pair.Role)
}

func TestUserViewsOmitHash(t *testing.T) {
	u := &models.User{ID: "1", Email: "a@example.com", PasswordHash: []byte("secret")}
	views := NewUserViews([]*models.User{u})
	require.Len(t, views, 1)
	assert.Equal(t, "a@example.com", views[0].Email)
}
