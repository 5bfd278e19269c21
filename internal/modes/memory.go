// Package modes tracks the active mode, persists it across restarts, and
// evaluates the configured transition rules.
package modes

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryStore persists the last active mode per config so a restarted
// daemon resumes where it left off.
type MemoryStore struct {
	db *sql.DB
}

const memorySchema = `
CREATE TABLE IF NOT EXISTS mode_memory (
	config_name TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);`

// OpenMemoryStore opens (and migrates) the mode-memory database at path.
func OpenMemoryStore(path string) (*MemoryStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open mode memory: %w", err)
	}
	if _, err := db.Exec(memorySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate mode memory: %w", err)
	}
	return &MemoryStore{db: db}, nil
}

// SaveLastMode records mode as the last active mode for configName.
func (s *MemoryStore) SaveLastMode(configName, mode string) error {
	_, err := s.db.Exec(
		`INSERT INTO mode_memory (config_name, mode, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(config_name) DO UPDATE SET mode = excluded.mode, updated_at = excluded.updated_at`,
		configName, mode, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save last mode: %w", err)
	}
	return nil
}

// LastMode returns the remembered mode for configName, or "" when none is
// recorded.
func (s *MemoryStore) LastMode(configName string) (string, error) {
	var mode string
	err := s.db.QueryRow(
		`SELECT mode FROM mode_memory WHERE config_name = ?`, configName,
	).Scan(&mode)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load last mode: %w", err)
	}
	return mode, nil
}

// Forget drops the remembered mode for configName.
func (s *MemoryStore) Forget(configName string) error {
	_, err := s.db.Exec(`DELETE FROM mode_memory WHERE config_name = ?`, configName)
	return err
}

// Close releases the database handle.
func (s *MemoryStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		slog.Warn("closing mode memory", "error", err)
		return err
	}
	return nil
}
