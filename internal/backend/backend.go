// Package backend builds the record and user stores selected by
// DATA_BACKEND.
package backend

import (
	"context"
	"fmt"

	"wealth/internal/config"
	"wealth/internal/log"
	"wealth/internal/ports"
	gsheet "wealth/internal/sheets/google"
	"wealth/internal/storage"
	"wealth/internal/store/memory"
)

// Backend bundles the stores of one data backend. Records and Users are
// nil for read-only backends; Reader is always set.
type Backend struct {
	Type    string
	Reader  ports.RecordReader
	Records ports.RecordRepository
	Users   ports.UserRepository

	ping    func(context.Context) error
	cleanup func() error
}

// Writable reports whether the backend supports record CRUD and accounts.
func (b *Backend) Writable() bool {
	return b.Records != nil && b.Users != nil
}

// Ping checks that the underlying store is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	if b.ping == nil {
		return nil
	}
	return b.ping(ctx)
}

func (b *Backend) Close() error {
	if b.cleanup == nil {
		return nil
	}
	return b.cleanup()
}

// New creates the backend named by cfg.DataBackend.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentBackend)

	switch cfg.DataBackend {
	case config.BackendSQLite:
		return newSQLite(cfg, logger)
	case config.BackendMemory:
		return newMemory(cfg, logger)
	case config.BackendSheets:
		return newSheets(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

func newSQLite(cfg *config.Config, logger *log.Logger) (*Backend, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &Backend{
		Type:    config.BackendSQLite,
		Reader:  repo,
		Records: repo,
		Users:   repo,
		ping:    repo.Ping,
		cleanup: repo.Close,
	}, nil
}

func newMemory(cfg *config.Config, logger *log.Logger) (*Backend, error) {
	store, err := memory.NewFromFile(cfg.MemorySeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
	}
	logger.Info("Initialized memory backend", "seed_file", cfg.MemorySeedFile)
	return &Backend{
		Type:    config.BackendMemory,
		Reader:  store,
		Records: store,
		Users:   store,
	}, nil
}

func newSheets(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Backend, error) {
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	logger.Info("Initialized Google Sheets backend (read-only)", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return &Backend{
		Type:   config.BackendSheets,
		Reader: cli,
	}, nil
}
