// Package app wires configuration, logging, storage and transport into a
// runnable codevault instance. It sits between the CLI and vcs.Service.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"codevault/internal/archive"
	"codevault/internal/config"
	"codevault/internal/database"
	"codevault/internal/database/migrations"
	"codevault/internal/encryption"
	"codevault/internal/notify"
	"codevault/internal/server"
	"codevault/internal/vault"
	"codevault/internal/vcs"
	"codevault/internal/watch"
)

// App is the application layer between the CLI and vcs.Service.
// It constructs all dependencies from config and closes them on Close.
type App struct {
	cfg         *config.Config
	db          *database.SQLiteDatabase
	broadcaster *notify.Broadcaster
	service     *vcs.Service
	logger      vcs.Logger
	op          *Operation
	logFile     *os.File
}

// NewApp creates a fully wired App from the given config.
// operation names the CLI command being run (e.g. "serve", "publish").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	logger, logFile, op, err := openLogger(cfg, operation)
	if err != nil {
		return nil, err
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstanceID, logger)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	if err := db.CheckMigrations(); err != nil {
		db.Close()
		logFile.Close()
		return nil, fmt.Errorf("database schema out of date (run 'codevault db migrate'): %w", err)
	}

	broadcaster := notify.NewBroadcaster(cfg.Notifier.BufferSize, logger)
	svc := vcs.NewService(db, broadcaster, logger, vcs.RealClock{}, vcs.TokenHashGenerator{})

	logger.Debug("operation started", "operation", op.Name, "instance_id", cfg.InstanceID)
	return &App{
		cfg:         cfg,
		db:          db,
		broadcaster: broadcaster,
		service:     svc,
		logger:      logger,
		op:          op,
		logFile:     logFile,
	}, nil
}

func openLogger(cfg *config.Config, operation string) (vcs.Logger, *os.File, *Operation, error) {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}
	op := NewOperation(operation, time.Now())
	l, f, err := newLogger(cfg.LogDir, op.ID, level)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return &slogAdapter{l: l}, f, op, nil
}

// Service returns the wired domain service.
func (a *App) Service() *vcs.Service {
	return a.service
}

// Logger returns the operation's logger.
func (a *App) Logger() vcs.Logger {
	return a.logger
}

// Fail records err against the operation and returns it unchanged.
func (a *App) Fail(err error) error {
	return a.op.Fail(err)
}

// Serve runs the HTTP server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	srv := server.New(a.service, a.broadcaster, a.logger)
	return srv.Run(ctx, a.cfg.Server)
}

// Watch saves path as a draft of fileID each time it settles after edits,
// until ctx is cancelled.
func (a *App) Watch(ctx context.Context, fileID, authorID int64, path string) error {
	if _, err := a.service.GetContentBundle(fileID); err != nil {
		return err
	}

	save := func(_ context.Context, content string) error {
		_, err := a.service.SaveDraft(fileID, content, authorID)
		return err
	}
	w, err := watch.New(path, a.cfg.Watch.Debounce.Duration, save, a.logger)
	if err != nil {
		return err
	}
	defer w.Close()

	a.logger.Info("watching file", "path", w.Path(), "file_id", fileID)
	return w.Run(ctx)
}

// Archiver returns an Archiver for this instance's database. vaultName
// selects a configured vault; empty selects the first.
func (a *App) Archiver(ctx context.Context, vaultName string) (*archive.Archiver, error) {
	return newArchiver(ctx, a.cfg, vaultName, a.db, a.logger)
}

// Close finishes the operation and releases the database and log file.
func (a *App) Close() error {
	var firstErr error

	a.broadcaster.Close()
	if err := a.db.Close(); err != nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	a.logger.Debug("operation finished",
		"operation", a.op.Name, "status", a.op.Status, "elapsed", a.op.Elapsed(time.Now()).String())
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}

func newArchiver(ctx context.Context, cfg *config.Config, vaultName string, source archive.Source, logger vcs.Logger) (*archive.Archiver, error) {
	vcfg, err := selectVault(cfg, vaultName)
	if err != nil {
		return nil, err
	}
	v, err := vault.NewVaultFromConfig(ctx, vcfg)
	if err != nil {
		return nil, fmt.Errorf("creating vault: %w", err)
	}
	if err := v.ValidateSetup(ctx); err != nil {
		return nil, fmt.Errorf("vault %s not usable: %w", vcfg.Name, err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}
	return archive.NewArchiver(cfg.InstanceID, source, v, enc, logger), nil
}

func selectVault(cfg *config.Config, name string) (config.VaultConfig, error) {
	if len(cfg.Vaults) == 0 {
		return config.VaultConfig{}, fmt.Errorf("no vaults configured")
	}
	if name == "" {
		return cfg.Vaults[0], nil
	}
	for _, v := range cfg.Vaults {
		if v.Name == name {
			return v, nil
		}
	}
	return config.VaultConfig{}, fmt.Errorf("no vault named %q", name)
}

// Restore pulls the latest snapshot into target (the configured database
// path when empty). It does not need a working local database.
func Restore(ctx context.Context, cfg *config.Config, vaultName, passphrase, target string, overwrite bool) (int64, error) {
	logger, logFile, op, err := openLogger(cfg, "restore")
	if err != nil {
		return 0, err
	}
	defer logFile.Close()

	if target == "" {
		if cfg.Database.Type != "sqlite" {
			return 0, fmt.Errorf("a target path is required for %s databases", cfg.Database.Type)
		}
		target = database.FilePath(cfg.Database, cfg.InstanceID)
	}

	arch, err := newArchiver(ctx, cfg, vaultName, nil, logger)
	if err != nil {
		return 0, op.Fail(err)
	}
	version, err := arch.Pull(ctx, passphrase, target, overwrite)
	return version, op.Fail(err)
}

// SetupEncryption generates the configured key pair.
func SetupEncryption(cfg *config.Config, passphrase string) error {
	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	return enc.Setup(passphrase)
}

// Migrate applies pending schema migrations and returns the status before
// and after.
func Migrate(cfg *config.Config) (before, after migrations.Status, err error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstanceID, nil)
	if err != nil {
		return before, after, fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()

	if before, err = db.MigrationStatus(); err != nil {
		return before, after, err
	}
	if err = db.MigrateUp(); err != nil {
		return before, after, err
	}
	after, err = db.MigrationStatus()
	return before, after, err
}

// MigrationStatus reports the schema version of the configured database.
func MigrationStatus(cfg *config.Config) (migrations.Status, error) {
	db, err := database.NewDatabaseFromConfig(cfg.Database, cfg.InstanceID, nil)
	if err != nil {
		return migrations.Status{}, fmt.Errorf("creating database: %w", err)
	}
	defer db.Close()
	return db.MigrationStatus()
}
