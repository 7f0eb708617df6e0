package db

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration is one forward-only schema change.
type Migration struct {
	Version int
	Name    string
	Up      func(tx *sql.Tx) error
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_advisory_tables",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_audit_logs",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "link_decisions_to_recommendations",
		Up:      migrationV3,
	},
	{
		Version: 4,
		Name:    "track_pending_decisions",
		Up:      migrationV4,
	},
}

func createVersionTable(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}
	return nil
}

// RunMigrations executes all pending migrations, each in its own transaction.
func RunMigrations(conn *sql.DB) error {
	if err := createVersionTable(conn); err != nil {
		return err
	}

	var currentVersion int
	err := conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		log.Printf("[db] running migration %d: %s", migration.Version, migration.Name)

		tx, err := conn.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// migrationV1 creates recommendations, decisions and open conditions.
func migrationV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
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

		CREATE TABLE IF NOT EXISTS ai_decisions (
			id TEXT PRIMARY KEY,
			train_id TEXT NOT NULL,
			kind TEXT NOT NULL CHECK(kind IN ('routing', 'priority', 'timing', 'platform')),
			recommendation TEXT NOT NULL,
			confidence REAL NOT NULL CHECK(confidence >= 0 AND confidence <= 100),
			mode TEXT NOT NULL CHECK(mode IN ('auto', 'pending', 'manual_override')),
			impact TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_ai_decisions_train ON ai_decisions(train_id);
		CREATE INDEX IF NOT EXISTS idx_ai_decisions_mode ON ai_decisions(mode);

		CREATE TABLE IF NOT EXISTS advisory_conditions (
			entity_id TEXT NOT NULL,
			rule_id TEXT NOT NULL,
			recommendation_id TEXT,
			opened_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (entity_id, rule_id)
		);
	`)
	return err
}

// migrationV2 adds the audit trail.
func migrationV2(tx *sql.Tx) error {
	_, err := tx.Exec(`
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
	`)
	return err
}

// migrationV3 records which recommendation a decision was raised with.
func migrationV3(tx *sql.Tx) error {
	_, err := tx.Exec(`ALTER TABLE ai_decisions ADD COLUMN recommendation_id TEXT REFERENCES recommendations(id)`)
	return err
}

// migrationV4 lets an open condition remember a decision that failed to store.
func migrationV4(tx *sql.Tx) error {
	_, err := tx.Exec(`ALTER TABLE advisory_conditions ADD COLUMN decision_pending INTEGER NOT NULL DEFAULT 0`)
	return err
}
