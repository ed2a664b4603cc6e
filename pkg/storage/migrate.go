package storage

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

// Migrate ensures the SQLite schema exists and is upgraded to SchemaVersion.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}

	if current >= SchemaVersion {
		return nil
	}

	transaction, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	_, err = transaction.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			participant TEXT NOT NULL,
			session TEXT NOT NULL,
			language TEXT NOT NULL,
			sequence TEXT NOT NULL,
			seed TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NULL,
			aborted INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create sessions table: %w", err)
	}

	_, err = transaction.Exec(`
		CREATE TABLE IF NOT EXISTS trials (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			practice INTEGER NOT NULL,
			block_number INTEGER NOT NULL,
			trial_number INTEGER NOT NULL,
			trial_in_block INTEGER NOT NULL,
			trial_type TEXT NOT NULL,
			probability_type TEXT NOT NULL,
			sequence_used TEXT NOT NULL,
			position INTEGER NOT NULL,
			rt_non_cumulative_s REAL NULL,
			rt_cumulative_s REAL NULL,
			correct_key TEXT NOT NULL,
			response_key TEXT NOT NULL,
			correct INTEGER NOT NULL,
			is_nogo INTEGER NOT NULL,
			epoch INTEGER NOT NULL,
			mw_1 TEXT NOT NULL,
			mw_2 TEXT NOT NULL,
			mw_3 TEXT NOT NULL,
			mw_4 TEXT NOT NULL,
			FOREIGN KEY(session_id) REFERENCES sessions(id)
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create trials table: %w", err)
	}

	_, err = transaction.Exec(`CREATE INDEX IF NOT EXISTS idx_trials_session_block ON trials(session_id, practice, block_number);`)
	if err != nil {
		return fmt.Errorf("migrate: create idx_trials_session_block: %w", err)
	}

	_, err = transaction.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}

	return nil
}
