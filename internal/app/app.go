// Package app wires configuration, logging and the selected persistence
// backend into a ready Vault.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/mailvault/internal/config"
	"github.com/dmitrijs2005/mailvault/internal/logging"
	"github.com/dmitrijs2005/mailvault/internal/repositories/memory"
	"github.com/dmitrijs2005/mailvault/internal/repositories/objects"
	"github.com/dmitrijs2005/mailvault/internal/repositories/repomanager"
	"github.com/dmitrijs2005/mailvault/vault"
)

// Test seams.
var (
	openSQL     = repomanager.Open
	newS3Client = func(ctx context.Context, opts objects.ClientOptions) (objects.API, error) {
		return objects.NewS3Client(ctx, opts)
	}
)

type App struct {
	config *config.Config
	logger logging.Logger
	vault  *vault.Vault
	db     *sql.DB
}

// NewApp builds the logger (writing to logOut) and opens the configured
// backend. The caller must Close the App.
func NewApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	logger, err := logging.New(logOut, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	store, db, err := openBackend(ctx, c)
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "backend ready", "backend", c.Backend)

	return &App{
		config: c,
		logger: logger,
		vault:  vault.New(store, c.KDF(), logger),
		db:     db,
	}, nil
}

func openBackend(ctx context.Context, c *config.Config) (vault.Persistence, *sql.DB, error) {
	switch c.Backend {
	case config.BackendMemory:
		return memory.NewStore(), nil, nil

	case config.BackendPostgres:
		store, db, err := openSQL(ctx, repomanager.DriverPostgres, c.DatabaseDSN, repomanager.NewPostgresRepositoryManager())
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		return store, db, nil

	case config.BackendSQLite:
		store, db, err := openSQL(ctx, repomanager.DriverSQLite, sqliteDSN(c.SQLitePath), repomanager.NewSQLiteRepositoryManager())
		if err != nil {
			return nil, nil, fmt.Errorf("db init error: %w", err)
		}
		return store, db, nil

	case config.BackendS3:
		client, err := newS3Client(ctx, objects.ClientOptions{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("s3 init error: %w", err)
		}
		return objects.NewStore(client, c.S3Bucket, c.S3Prefix), nil, nil
	}

	return nil, nil, fmt.Errorf("unknown backend %q", c.Backend)
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL"
}

// Vault returns the wired vault.
func (app *App) Vault() *vault.Vault {
	return app.vault
}

// Close releases the database connection, if any.
func (app *App) Close() error {
	if app.db == nil {
		return nil
	}
	return app.db.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run calls fn with a context that is canceled on SIGINT, SIGTERM or
// SIGQUIT, then closes the app.
func (app *App) Run(ctx context.Context, fn func(ctx context.Context, v *vault.Vault) error) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	stop := app.initSignalHandler(cancelFunc)
	defer stop()

	err := fn(ctx, app.vault)

	if cerr := app.Close(); cerr != nil {
		app.logger.Error(ctx, "closing backend failed", "error", cerr)
		if err == nil {
			err = cerr
		}
	}
	return err
}
