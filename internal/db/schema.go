package db

import (
	"database/sql"
	"fmt"
)

// SchemaSQL is the complete schema for fresh railctl installs.
// This schema reflects the current state after all migrations.
//
// # Schema Drift Protection
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. Repository tests
// load it via GetSchemaSQL() and never hardcode CREATE TABLE statements, so a
// repository that references a missing column fails with "no such column".
//
// When adding new columns or tables:
//  1. Add a migration in migrations.go
//  2. Update SchemaSQL here
//  3. Run the sqlite adapter tests to verify alignment
const SchemaSQL = `
-- Recommendations (operator advisories, never deleted)
CREATE TABLE IF NOT EXISTS recommendations (
	id TEXT PRIMARY KEY,
	priority TEXT NOT NULL CHECK(priority IN ('High', 'Medium', 'Low')),
	category TEXT NOT NULL CHECK(category IN ('Routing', 'Timing', 'Platform', 'Maintenance')),
	title TEXT NOT NULL,
	description TEXT,
	estimated_impact TEXT,
	status TEXT NOT NULL CHECK(status IN ('New', 'InProgress', 'Completed')) DEFAULT 'New',
	entity_id TEXT,
	rule_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_recommendations_status ON recommendations(status);
CREATE INDEX IF NOT EXISTS idx_recommendations_entity ON recommendations(entity_id, rule_id);

-- AI decisions (confidence-gated automated actions on a train)
CREATE TABLE IF NOT EXISTS ai_decisions (
	id TEXT PRIMARY KEY,
	train_id TEXT NOT NULL,
	kind TEXT NOT NULL CHECK(kind IN ('routing', 'priority', 'timing', 'platform')),
	recommendation TEXT NOT NULL,
	confidence REAL NOT NULL CHECK(confidence >= 0 AND confidence <= 100),
	mode TEXT NOT NULL CHECK(mode IN ('auto', 'pending', 'manual_override')),
	impact TEXT,
	recommendation_id TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (recommendation_id) REFERENCES recommendations(id)
);

CREATE INDEX IF NOT EXISTS idx_ai_decisions_train ON ai_decisions(train_id);
CREATE INDEX IF NOT EXISTS idx_ai_decisions_mode ON ai_decisions(mode);

-- Advisory conditions (open (entity, rule) pairs that already raised advisories)
CREATE TABLE IF NOT EXISTS advisory_conditions (
	entity_id TEXT NOT NULL,
	rule_id TEXT NOT NULL,
	recommendation_id TEXT,
	decision_pending INTEGER NOT NULL DEFAULT 0,
	opened_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (entity_id, rule_id)
);

-- Audit logs (immutable trail of advisory changes)
CREATE TABLE IF NOT EXISTS audit_logs (
	id TEXT PRIMARY KEY,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
	actor_id TEXT,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	action TEXT NOT NULL CHECK(action IN ('create', 'update', 'review')),
	field_name TEXT,
	old_value TEXT,
	new_value TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity_type, entity_id);
`

// InitSchema brings the database schema up to date.
func InitSchema(conn *sql.DB) error {
	// Check if schema_version table exists to determine if this is a fresh install
	var tableCount int
	err := conn.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount > 0 {
		return RunMigrations(conn)
	}

	// Fresh install - create the current schema directly and mark every
	// migration as applied.
	if _, err := conn.Exec(SchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if err := createVersionTable(conn); err != nil {
		return err
	}
	for _, m := range migrations {
		if _, err := conn.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
			return err
		}
	}
	return nil
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
