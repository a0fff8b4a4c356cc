package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const keyPlayerName = "player_name"

// randomName is swapped in tests.
var randomName = func() string { return fmt.Sprintf("Player%d", rand.Intn(1000)) }

// Store keeps client-local preferences, today only the display name.
type Store struct {
	sqlDB *sql.DB
}

func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS prefs (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create prefs table: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PlayerName returns the stored name, if any.
func (s *Store) PlayerName(ctx context.Context) (string, bool, error) {
	if s == nil || s.sqlDB == nil {
		return "", false, fmt.Errorf("storage is not configured")
	}
	var name string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT value FROM prefs WHERE key = ?`, keyPlayerName).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get player name: %w", err)
	}
	return name, true, nil
}

func (s *Store) SetPlayerName(ctx context.Context, name string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("player name is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO prefs (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		keyPlayerName, name)
	if err != nil {
		return fmt.Errorf("set player name: %w", err)
	}
	return nil
}

// ResolveName picks the display name for this run: an explicit override wins,
// then the stored name, then a fresh Player<n>. Whatever is picked is stored.
func (s *Store) ResolveName(ctx context.Context, override string) (string, error) {
	name := strings.TrimSpace(override)
	if name == "" {
		stored, ok, err := s.PlayerName(ctx)
		if err != nil {
			return "", err
		}
		if ok {
			return stored, nil
		}
		name = randomName()
	}
	if err := s.SetPlayerName(ctx, name); err != nil {
		return "", err
	}
	return name, nil
}
