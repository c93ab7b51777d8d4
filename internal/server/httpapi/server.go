// Package httpapi exposes the portal over HTTP+JSON: authentication, file
// upload and retrieval, review decisions and admin recovery.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sealdrop/internal/logging"
	"github.com/dmitrijs2005/sealdrop/internal/server/auth"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
	"github.com/dmitrijs2005/sealdrop/internal/server/services"
	"github.com/gorilla/mux"
)

// UserService is the account side of the API.
type UserService interface {
	Authenticate(token string) (*auth.Identity, error)
	Signup(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	AdminLogin(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	ChangePassword(ctx context.Context, email, oldPassword, newPassword string) error
	CreateUser(ctx context.Context, caller *auth.Identity, email, password string, role models.Role, managerEmail string) (*models.User, error)
	SetStatus(ctx context.Context, caller *auth.Identity, userID string, status models.AccountStatus) error
	ListUsers(ctx context.Context, caller *auth.Identity) ([]*models.User, error)
	ManagedUsers(ctx context.Context, caller *auth.Identity) ([]*models.User, error)
}

// FileService is the file side of the API.
type FileService interface {
	Upload(ctx context.Context, caller *auth.Identity, filename string, ciphertext []byte, ivHex, keyHex string) (*services.FileView, error)
	ListOwn(ctx context.Context, caller *auth.Identity) ([]services.FileView, error)
	GetOwn(ctx context.Context, caller *auth.Identity, id string) (*services.FileView, error)
	GetAdmin(ctx context.Context, caller *auth.Identity, id string) (*services.AdminFileView, error)
	ListForUserAdmin(ctx context.Context, caller *auth.Identity, userID string) ([]services.AdminFileView, error)
	PendingForManager(ctx context.Context, caller *auth.Identity) ([]services.FileView, error)
	Transition(ctx context.Context, caller *auth.Identity, id, action string) (models.FileStatus, error)
	DeleteOwn(ctx context.Context, caller *auth.Identity, id string) error
}

type HTTPServer struct {
	address       string
	users         UserService
	files         FileService
	logger        logging.Logger
	maxUploadSize int64
}

func NewHTTPServer(a string, l logging.Logger, us UserService, fs FileService, maxUploadSize int64) *HTTPServer {
	return &HTTPServer{
		address:       a,
		logger:        l.With("module", "http_server"),
		users:         us,
		files:         fs,
		maxUploadSize: maxUploadSize,
	}
}

// Handler builds the router. More specific file routes are registered before
// the /{id} catch-alls.
func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.accessLog)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	a := r.PathPrefix("/api/auth").Subrouter()
	a.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)
	a.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	a.HandleFunc("/admin/login", s.handleAdminLogin).Methods(http.MethodPost)
	a.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	a.HandleFunc("/change-password", s.handleChangePassword).Methods(http.MethodPost)
	a.Handle("/admin/create-user", s.authenticate(http.HandlerFunc(s.handleCreateUser))).Methods(http.MethodPost)
	a.Handle("/status/{userId}", s.authenticate(http.HandlerFunc(s.handleSetStatus))).Methods(http.MethodPut)

	f := r.PathPrefix("/api/files").Subrouter()
	f.Use(s.authenticate)
	f.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	f.HandleFunc("", s.handleListOwn).Methods(http.MethodGet)
	f.HandleFunc("/", s.handleListOwn).Methods(http.MethodGet)
	f.HandleFunc("/status/{id}", s.handleTransition).Methods(http.MethodPut)
	f.HandleFunc("/manager/files", s.handleManagerFiles).Methods(http.MethodGet)
	f.HandleFunc("/manager/users", s.handleManagerUsers).Methods(http.MethodGet)
	f.HandleFunc("/admin/users", s.handleListUsers).Methods(http.MethodGet)
	f.HandleFunc("/admin/users/{userId}/files", s.handleAdminUserFiles).Methods(http.MethodGet)
	f.HandleFunc("/admin/files/{id}", s.handleAdminFile).Methods(http.MethodGet)
	f.HandleFunc("/{id}", s.handleGetOwn).Methods(http.MethodGet)
	f.HandleFunc("/{id}", s.handleDeleteOwn).Methods(http.MethodDelete)

	return r
}

// Run serves until ctx is cancelled and then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
