// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported database types.
const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

// Open connects to a sqlite or postgres database, verifies the connection and
// creates the schema.
func Open(dbType, url string) (*sql.DB, error) {
	driver, err := driverName(dbType)
	if err != nil {
		return nil, err
	}

	if dbType != TypePostgres {
		if dir := sqliteDir(url); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	conn, err := sql.Open(driver, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbType == TypeSQLite {
		// One writer avoids SQLITE_BUSY between concurrent runs.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := CreateSchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// sqliteDir returns the parent directory of a sqlite file URL, or "" for an
// in-memory database.
func sqliteDir(url string) string {
	path, _, _ := strings.Cut(strings.TrimPrefix(url, "file:"), "?")
	if path == "" || path == ":memory:" {
		return ""
	}
	return filepath.Dir(path)
}

func driverName(dbType string) (string, error) {
	switch dbType {
	case TypeSQLite, "":
		return "sqlite", nil
	case TypePostgres:
		return "postgres", nil
	}
	return "", fmt.Errorf("unsupported database type %q", dbType)
}

// CreateSchema creates all tables needed for recorded runs.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Rebind rewrites ? placeholders as $1, $2, ... for postgres. Queries for
// sqlite are returned unchanged.
func Rebind(dbType, query string) string {
	if dbType != TypePostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// The same DDL runs on sqlite and postgres: no defaults that call functions,
// timestamps stored as unix seconds.
const schema = `
-- Simulation runs
CREATE TABLE IF NOT EXISTS run (
    id INTEGER PRIMARY KEY,
    candidates TEXT NOT NULL,
    started_at DOUBLE PRECISION NOT NULL,
    ended_at DOUBLE PRECISION,
    steps INTEGER NOT NULL
);

-- One row per appended ballot; the ballot set of a step is the prefix of its run
CREATE TABLE IF NOT EXISTS step (
    run_id INTEGER NOT NULL REFERENCES run(id) ON DELETE CASCADE,
    step INTEGER NOT NULL,
    recorded_at DOUBLE PRECISION NOT NULL,
    ballot TEXT NOT NULL,
    plurality TEXT,
    borda TEXT,
    condorcet TEXT,
    irv TEXT,
    PRIMARY KEY (run_id, step)
);

CREATE INDEX IF NOT EXISTS idx_step_run_id ON step(run_id);
`
