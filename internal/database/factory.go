package database

import (
	"fmt"
	"os"
	"path/filepath"

	"codevault/internal/config"
	"codevault/internal/vcs"
)

// NewDatabaseFromConfig creates a SQLiteDatabase based on the database config type.
// In-memory databases are migrated immediately since nothing else can reach them.
func NewDatabaseFromConfig(cfg config.DatabaseConfig, instanceID string, logger vcs.Logger) (*SQLiteDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data dir: %w", err)
		}
		return NewSQLiteDatabase(FilePath(cfg, instanceID), logger)
	case "memory":
		db, err := NewSQLiteDatabase(memoryPath, logger)
		if err != nil {
			return nil, err
		}
		if err := db.MigrateUp(); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// FilePath returns where a sqlite database for instanceID lives.
func FilePath(cfg config.DatabaseConfig, instanceID string) string {
	return filepath.Join(cfg.DataDir, instanceID+".db")
}
