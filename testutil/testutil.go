// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/danielhkuo/rankvote/cliparse"
	"github.com/danielhkuo/rankvote/db"
	"github.com/danielhkuo/rankvote/models"
)

// SetupTestDB opens a fresh SQLite database in a temporary directory with the
// full schema. It is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rankvote_test.db")
	conn, err := db.Open(db.TypeSQLite, "file:"+path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig(t *testing.T) cliparse.Config {
	return cliparse.Config{
		Command:     cliparse.CommandServe,
		Root:        t.TempDir(),
		Seed:        42,
		Runs:        2,
		MaxVoters:   5,
		Workers:     1,
		Port:        3318,
		DBType:      db.TypeSQLite,
		SessionSalt: "test-session-salt",
	}
}

// Ballots builds ballots from rankings and fails the test on invalid input.
func Ballots(t *testing.T, rankings ...[]models.CandidateID) []models.Ballot {
	t.Helper()
	out := make([]models.Ballot, 0, len(rankings))
	for _, r := range rankings {
		b, err := models.NewBallot(r)
		if err != nil {
			t.Fatalf("Invalid test ballot %v: %v", r, err)
		}
		out = append(out, b)
	}
	return out
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
