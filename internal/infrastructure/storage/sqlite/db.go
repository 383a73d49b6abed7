// Package sqlite provides an embedded counter store for single-node deployments
// and integration tests.
//
// Every transaction is opened with BEGIN IMMEDIATE, so the database write lock
// is taken up front and increments are serialized for the whole file rather
// than per row. Waiting writers retry for up to BusyTimeout.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Config holds SQLite connection settings.
type Config struct {
	// Path of the database file. Parent directories are created.
	Path string
	// BusyTimeout is how long a writer waits for the database lock.
	BusyTimeout time.Duration
	// MaxOpenConns limits concurrent connections. Zero means unlimited.
	MaxOpenConns int
}

// DefaultConfig returns settings suitable for a local database file.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		BusyTimeout:  10 * time.Second,
		MaxOpenConns: 8,
	}
}

// DSN renders the go-sqlite3 connection string for cfg.
func (cfg Config) DSN() string {
	params := url.Values{}
	params.Set("_txlock", "immediate")
	params.Set("_journal_mode", "WAL")
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", strconv.FormatInt(cfg.BusyTimeout.Milliseconds(), 10))
	return "file:" + cfg.Path + "?" + params.Encode()
}

// Open opens the database file and applies the schema.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if dir := filepath.Dir(cfg.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}
