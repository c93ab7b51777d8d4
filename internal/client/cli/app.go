package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/sealdrop/internal/client/client"
	"github.com/dmitrijs2005/sealdrop/internal/client/config"
	"github.com/dmitrijs2005/sealdrop/internal/client/keystore"
	"github.com/dmitrijs2005/sealdrop/internal/client/models"
	"github.com/dmitrijs2005/sealdrop/internal/client/pipeline"
	"github.com/dmitrijs2005/sealdrop/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sealdrop/internal/client/services"
	"github.com/dmitrijs2005/sealdrop/internal/logging"
)

type fileUploader interface {
	Upload(ctx context.Context, data []byte, filename string) (*models.File, error)
}

type fileDownloader interface {
	Preview(ctx context.Context, fileID, role string) (*pipeline.Preview, error)
	Save(ctx context.Context, fileID, role, dir string) (string, error)
}

// App holds the wired dependencies shared by all commands.
type App struct {
	config     *config.Config
	db         *sql.DB
	api        client.Client
	auth       services.AuthService
	uploader   fileUploader
	downloader fileDownloader
	session    *models.Session
	reader     *bufio.Reader
	out        io.Writer
	errOut     io.Writer
	log        logging.Logger
}

// NewApp opens the local database and wires the API client, the key
// manager and the transfer pipelines.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	l := logging.New(os.Stderr, "text", c.LogLevel)

	db, err := client.InitDatabase(ctx, c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api := client.NewHTTPClient(c.ServerURL, c.RequestTimeout, l)
	keys := keystore.NewManager(metadata.NewSQLiteRepository(db))
	blobs := &http.Client{Timeout: c.RequestTimeout}

	return &App{
		config:     c,
		db:         db,
		api:        api,
		auth:       services.NewAuthService(api, db, l),
		uploader:   pipeline.NewUploader(keys, api, l),
		downloader: pipeline.NewDownloader(keys, api, blobs, l),
		reader:     bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		errOut:     os.Stderr,
		log:        l,
	}, nil
}

// Run executes the command line args. Failures are reported on the error
// writer before being returned.
func (a *App) Run(ctx context.Context, args []string) error {
	root := NewRootCommand(a)
	root.SetArgs(args)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(a.errOut, errorMark, describeError(err))
	}
	return err
}

// Close releases the API client and the local database.
func (a *App) Close(ctx context.Context) error {
	err := a.auth.Close(ctx)
	if a.db != nil {
		err = errors.Join(err, a.db.Close())
	}
	return err
}

// requireSession loads the persisted session on first use.
func (a *App) requireSession(ctx context.Context) error {
	if a.session != nil {
		return nil
	}
	s, err := a.auth.RestoreSession(ctx)
	if err != nil {
		if errors.Is(err, client.ErrNotLoggedIn) {
			return errors.New("not logged in, run 'sealdrop login' first")
		}
		return err
	}
	a.session = s
	return nil
}

func (a *App) role() string {
	if a.session == nil {
		return ""
	}
	return a.session.Role
}
