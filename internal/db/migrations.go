package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: index reservation lookups by requester, the most common
	// non-admin query.
	`CREATE INDEX IF NOT EXISTS idx_reservations_requester
	     ON reservations(requester_id)`,
	// Migration 2: index activity logs by timestamp for the history report.
	`CREATE INDEX IF NOT EXISTS idx_activity_logs_timestamp
	     ON activity_logs(timestamp)`,
}

// Migrate runs the database schema migrations.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
