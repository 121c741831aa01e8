// Package server wires configuration, storage, the field codec and the
// services into an App used by ledgerctl.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/ledgerkeeper/internal/cryptox"
	"github.com/dmitrijs2005/ledgerkeeper/internal/keys"
	"github.com/dmitrijs2005/ledgerkeeper/internal/logging"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/config"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/reconcile"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/ledgerkeeper/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	Ledger      *services.LedgerService
	Vault       *services.VaultService
}

// KeyProvider picks the field key source from cfg: a passphrase when one is
// configured, the KeyEnv variable otherwise. A missing key is reported on
// first use, not here.
func KeyProvider(cfg *config.Config) cryptox.KeyProvider {
	if cfg.UsePassphrase() {
		return keys.NewPassphraseProvider(cfg.KeyPassphrase, cfg.KeySalt)
	}
	return keys.NewEnvProvider(cfg.KeyEnv)
}

// NewApp opens the database and builds the services. Logs go to w as JSON.
func NewApp(cfg *config.Config, w io.Writer) (*App, error) {
	logger := logging.NewJSONLogger(w, cfg.LogLevel)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return newApp(cfg, logger, db, repomanager.NewPostgresRepositoryManager()), nil
}

func newApp(cfg *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	codec := cryptox.NewCodec(KeyProvider(cfg))
	return &App{
		config:      cfg,
		logger:      logger,
		db:          db,
		repomanager: rm,
		Ledger:      services.NewLedgerService(db, rm, logger),
		Vault:       services.NewVaultService(db, rm, codec, logger),
	}
}

func (app *App) Close() error {
	return app.db.Close()
}

// WithSignals returns a context cancelled on SIGINT or SIGTERM.
func (app *App) WithSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancelFunc := context.WithCancel(ctx)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			app.logger.Warn(ctx, "interrupted, stopping after the current batch")
			cancelFunc()
		case <-ctx.Done():
		}
	}()

	return ctx, cancelFunc
}

func (app *App) Migrate(ctx context.Context) error {
	app.logger.Info(ctx, "applying migrations")
	return app.repomanager.RunMigrations(ctx, app.db)
}

// Reconcile rebuilds every balance and loan state of ownerID, or of all
// owners when ownerID is empty.
func (app *App) Reconcile(ctx context.Context, ownerID string) (reconcile.Summary, error) {
	return app.Ledger.Engine().ReconcileAll(ctx, app.db, ownerID)
}

// RotateKeys re-encrypts every stored secret from req.OldKey to req.NewKey.
func (app *App) RotateKeys(ctx context.Context, req keys.RotateRequest) (keys.Report, error) {
	r := keys.NewRotator(app.db, app.repomanager, app.config.RotationBatchSize, app.config.RotationLockTimeout, app.logger)
	return r.Rotate(ctx, req)
}
