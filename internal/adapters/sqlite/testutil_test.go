// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/railctl/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// The pool is limited to one connection: every new :memory: connection would
// otherwise start with an empty database. Foreign keys are enforced as in
// db.Open.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	testDB.SetMaxOpenConns(1)

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// seedRecommendation inserts a test recommendation and returns its ID.
func seedRecommendation(t *testing.T, conn *sql.DB, id, priority, status string, age time.Duration) string {
	t.Helper()
	created := baseTime.Add(-age)
	_, err := conn.Exec(
		`INSERT INTO recommendations (id, priority, category, title, status, created_at, updated_at) VALUES (?, ?, 'Timing', 'Test Recommendation', ?, ?, ?)`,
		id, priority, status, created, created,
	)
	if err != nil {
		t.Fatalf("failed to seed recommendation: %v", err)
	}
	return id
}

// seedDecision inserts a test decision and returns its ID.
func seedDecision(t *testing.T, conn *sql.DB, id, trainID, mode string) string {
	t.Helper()
	_, err := conn.Exec(
		`INSERT INTO ai_decisions (id, train_id, kind, recommendation, confidence, mode, created_at, updated_at) VALUES (?, ?, 'routing', 'Reroute', 90, ?, ?, ?)`,
		id, trainID, mode, baseTime, baseTime,
	)
	if err != nil {
		t.Fatalf("failed to seed decision: %v", err)
	}
	return id
}
