package database

import (
	"fmt"
	"os"
	"path/filepath"

	"berthplan/internal/berth"
	"berthplan/internal/config"
)

// NewStoreFromConfig creates a SQLite store based on the database config type.
// In-memory stores are migrated immediately since nothing else could reach them.
func NewStoreFromConfig(cfg config.DatabaseConfig, hostID string, clock berth.Clock) (*SQLiteStore, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, hostID+".db")
		return NewSQLiteStore(dbPath, clock)
	case "memory":
		s, err := NewSQLiteStore(":memory:", clock)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(); err != nil {
			s.Close()
			return nil, fmt.Errorf("migrating in-memory database: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
