// Package server wires configuration, storage, mail and the HTTP API into a
// runnable application with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/sealdrop/internal/cryptox"
	"github.com/dmitrijs2005/sealdrop/internal/logging"
	"github.com/dmitrijs2005/sealdrop/internal/server/blobstore"
	"github.com/dmitrijs2005/sealdrop/internal/server/config"
	"github.com/dmitrijs2005/sealdrop/internal/server/httpapi"
	"github.com/dmitrijs2005/sealdrop/internal/server/mailer"
	"github.com/dmitrijs2005/sealdrop/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sealdrop/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, "json", c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	blobs, err := blobstore.NewS3Store(ctx, blobstore.S3Options{
		User:       c.S3RootUser,
		Password:   c.S3RootPassword,
		Bucket:     c.S3Bucket,
		Region:     c.S3Region,
		Endpoint:   c.S3BaseEndpoint,
		PresignTTL: c.PresignTTL,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	notifier := mailer.NewNotifier(mailer.New(mailer.SMTPOptions{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
	}, logger))

	us := services.NewUserService(db, m, notifier, logger, c)
	if err := us.BootstrapAdmin(ctx, c.AdminEmail, c.AdminPassword); err != nil {
		db.Close()
		return nil, fmt.Errorf("admin bootstrap error: %w", err)
	}

	fs := services.NewFileService(db, m, blobs, cryptox.NewEscrowSealer(c.EscrowMasterKey), notifier, logger)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: httpapi.NewHTTPServer(c.HTTPAddr, logger, us, fs, c.MaxUploadSize),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or ctx is cancelled, then
// closes the database.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")

	return err
}
