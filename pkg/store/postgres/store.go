// Package postgres provides a durable store.Store backed by a PostgreSQL
// table, for deployments that already run Postgres and want the cognitive
// state alongside the rest of their data.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/helioscrm/cognition-go/pkg/store"
)

// Store implements store.Store using PostgreSQL as the backend.
type Store struct {
	db        *sql.DB
	tableName string
}

// Config contains PostgreSQL connection configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	TableName string
}

// New creates a new PostgreSQL store, creating the table if it does not
// exist.
func New(cfg *Config) (*Store, error) {
	if cfg.TableName == "" {
		cfg.TableName = "cognition_state"
	}
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
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
			value BYTEA NOT NULL,
			expires_at TIMESTAMPTZ
		)
	`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("postgres: create table: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_expires ON %s(expires_at)
	`, s.tableName, s.tableName)
	if _, err := s.db.ExecContext(ctx, indexQuery); err != nil {
		return fmt.Errorf("postgres: create index: %w", err)
	}
	return nil
}

// Get returns the value stored under key. Expired rows are deleted and
// reported as missing.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT value, expires_at FROM %s WHERE key = $1`, s.tableName)

	var value []byte
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: get: %w", err)
	}

	if expiresAt.Valid && !expiresAt.Time.After(time.Now()) {
		deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.tableName)
		_, _ = s.db.ExecContext(ctx, deleteQuery, key)
		return nil, store.ErrNotFound
	}
	return value, nil
}

// Set stores value under key, replacing any previous value and expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, value, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
	`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("postgres: set: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
