package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/estatehub/admin-gateway/internal/gwerrors"
	"github.com/estatehub/admin-gateway/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteAdapter keeps the key-value pairs in a single table of a local sqlite file.
type SQLiteAdapter struct {
	db        *sql.DB
	encryptor models.Encryptor
	keyPrefix string
}

type SQLiteAdapterOption func(*SQLiteAdapter) error

func WithSQLiteEncryption(secretKey string) SQLiteAdapterOption {
	return func(s *SQLiteAdapter) error {
		encryptor, err := NewGCMEncryptor(secretKey)
		if err != nil {
			return err
		}
		s.encryptor = encryptor
		return nil
	}
}

func WithSQLiteKeyPrefix(prefix string) SQLiteAdapterOption {
	return func(s *SQLiteAdapter) error {
		s.keyPrefix = prefix
		return nil
	}
}

func NewSQLiteAdapter(dbPath string, options ...SQLiteAdapterOption) (*SQLiteAdapter, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite path is not set")
	}
	adapter := &SQLiteAdapter{}
	for _, opt := range options {
		err := opt(adapter)
		if err != nil {
			return nil, err
		}
	}
	if dbPath != ":memory:" && !strings.HasPrefix(dbPath, "file:") {
		err := os.MkdirAll(filepath.Dir(dbPath), 0o700)
		if err != nil {
			return nil, fmt.Errorf("failed to create the database directory: %w", err)
		}
		// the file holds the session tokens, only its owner may read it
		f, err := os.OpenFile(dbPath, os.O_RDONLY|os.O_CREATE, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to create the database file: %w", err)
		}
		f.Close()
		err = os.Chmod(dbPath, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to restrict the database file permissions: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps in-memory databases shared and avoids SQLITE_BUSY on writes
	db.SetMaxOpenConns(1)
	adapter.db = db
	if err := adapter.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return adapter, nil
}

func (s *SQLiteAdapter) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS session_store (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteAdapter) Get(ctx context.Context, key string) (string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM session_store WHERE key = ?", s.keyPrefix+key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", gwerrors.ErrMissingDBResource
	}
	if err != nil {
		return "", unavailable("sqlite select", err)
	}
	value, err := decode(s.encryptor, raw)
	if err != nil {
		return "", unavailable("decrypt", err)
	}
	return value, nil
}

func (s *SQLiteAdapter) Set(ctx context.Context, key, value string) error {
	encoded, err := encode(s.encryptor, value)
	if err != nil {
		return unavailable("encrypt", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_store (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.keyPrefix+key, encoded, time.Now().UTC())
	if err != nil {
		return unavailable("sqlite upsert", err)
	}
	return nil
}

func (s *SQLiteAdapter) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		placeholders[i] = "?"
		args[i] = s.keyPrefix + key
	}
	query := fmt.Sprintf("DELETE FROM session_store WHERE key IN (%s)", strings.Join(placeholders, ", "))
	_, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return unavailable("sqlite delete", err)
	}
	return nil
}

func (s *SQLiteAdapter) Close() error {
	return s.db.Close()
}
