// Novelrec - Offline Recommendation Engine for Web-Novel Platforms
// Copyright 2026 Minreads
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/minreads/novelrec

// Package database is the DuckDB storage layer. It reads the platform
// collections the engine consumes (novels, favorites, ratings, read
// history) and owns the recommendation caches the engine writes and
// the resolver reads.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/minreads/novelrec/internal/config"
	"github.com/minreads/novelrec/internal/logging"
)

const queryTimeout = 30 * time.Second

// DB wraps the DuckDB connection and provides the data access methods.
type DB struct {
	conn *sql.DB
	cfg  config.DatabaseConfig
}

// New opens the database and initializes the schema. An empty
// cfg.Path opens an in-memory instance.
func New(cfg config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	} else {
		// The data directory may not exist on first start.
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dir, err)
			}
		}
	}

	// Auto-install/auto-load stay off so startup cannot hang on a
	// network fetch in restricted environments.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, numThreads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// DuckDB is embedded: a single connection avoids write-write
	// conflicts between the engine's transactions.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn, cfg: cfg}
	if err := db.createSchema(); err != nil {
		if cerr := conn.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("close after failed schema init")
		}
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return db, nil
}

// NewInMemory opens a throwaway in-memory instance. Test helper.
func NewInMemory() (*DB, error) {
	return New(config.DatabaseConfig{Path: "", MaxMemory: "512MB", Threads: 2})
}

// Close checkpoints and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("checkpoint before close failed")
	}
	return db.conn.Close()
}

// Ping checks the connection.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Conn returns the underlying connection for callers that need direct
// access, such as test fixtures.
func (db *DB) Conn() *sql.DB {
	return db.conn
}
