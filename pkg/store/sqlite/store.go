// Package sqlite provides a durable store.Store backed by a single SQLite
// table.
//
// SQLite has no native key expiry, so expiry is enforced lazily: expired rows
// are treated as missing on read and swept opportunistically on write.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/helioscrm/cognition-go/pkg/store"
)

// sweepInterval is the number of writes between opportunistic sweeps of
// expired rows.
const sweepInterval = 256

// Store implements store.Store using SQLite as the backend.
type Store struct {
	db        *sql.DB
	tableName string
	writes    atomic.Uint64
}

// Config contains configuration for creating a SQLite store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// TableName is the name of the key-value table (default "cognition_state").
	TableName string
}

// New creates a new SQLite store, creating the database file and table if
// they do not exist.
func New(cfg *Config) (*Store, error) {
	if cfg.TableName == "" {
		cfg.TableName = "cognition_state"
	}

	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: %w", err)
	}

	s := &Store{
		db:        db,
		tableName: cfg.TableName,
	}
	if err := s.initTable(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expires_at INTEGER
		)
	`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("sqlite: create table: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_expires ON %s(expires_at)
	`, s.tableName, s.tableName)
	if _, err := s.db.ExecContext(ctx, indexQuery); err != nil {
		return fmt.Errorf("sqlite: create index: %w", err)
	}
	return nil
}

// Get returns the value stored under key. Expired rows are deleted and
// reported as missing.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT value, expires_at FROM %s WHERE key = ?`, s.tableName)

	var value []byte
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get: %w", err)
	}

	if expiresAt.Valid && expiresAt.Int64 <= time.Now().Unix() {
		deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.tableName)
		_, _ = s.db.ExecContext(ctx, deleteQuery, key)
		return nil, store.ErrNotFound
	}
	return value, nil
}

// Set stores value under key, replacing any previous value and expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: time.Now().Add(ttl).Unix(), Valid: true}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("sqlite: set: %w", err)
	}

	if s.writes.Add(1)%sweepInterval == 0 {
		s.sweepExpired(ctx)
	}
	return nil
}

// sweepExpired removes rows whose expiry has passed.
func (s *Store) sweepExpired(ctx context.Context) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at <= ?`, s.tableName)
	_, _ = s.db.ExecContext(ctx, query, time.Now().Unix())
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
