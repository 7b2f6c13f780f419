// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		dbType string
		query  string
		want   string
	}{
		{TypePostgres, "SELECT * FROM step WHERE run_id = ? AND step = ?", "SELECT * FROM step WHERE run_id = $1 AND step = $2"},
		{TypeSQLite, "SELECT * FROM step WHERE run_id = ?", "SELECT * FROM step WHERE run_id = ?"},
		{TypePostgres, "SELECT 1", "SELECT 1"},
	}

	for _, tt := range tests {
		if got := Rebind(tt.dbType, tt.query); got != tt.want {
			t.Errorf("Rebind(%s, %q) = %q, want %q", tt.dbType, tt.query, got, tt.want)
		}
	}
}

func TestOpenSQLiteCreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := Open(TypeSQLite, "file:"+path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	// Idempotent
	if err := CreateSchema(conn); err != nil {
		t.Fatalf("Second CreateSchema failed: %v", err)
	}

	for _, table := range []string{"run", "step"} {
		var name string
		err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s missing: %v", table, err)
		}
	}
}

func TestOpenCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "rankvote.db")
	conn, err := Open(TypeSQLite, "file:"+path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected database file at %s: %v", path, err)
	}
}

func TestSQLiteDir(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"file:/tmp/data/rankvote.db", "/tmp/data"},
		{"file:/tmp/data/rankvote.db?_pragma=busy_timeout(5000)", "/tmp/data"},
		{"/var/lib/rankvote.db", "/var/lib"},
		{"file::memory:", ""},
		{":memory:", ""},
	}

	for _, tt := range tests {
		if got := sqliteDir(tt.url); got != tt.want {
			t.Errorf("sqliteDir(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestOpenRejectsUnknownType(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Fatal("Expected an error for an unsupported database type")
	}
}
