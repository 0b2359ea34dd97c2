package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS equipment (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    type          TEXT,
    serial_number TEXT NOT NULL,
    location      TEXT,
    sensitive     INTEGER NOT NULL DEFAULT 0,
    status        TEXT NOT NULL DEFAULT 'available'
        CHECK (status IN ('available', 'checked_out', 'maintenance', 'retired', 'unavailable')),
    condition     TEXT NOT NULL DEFAULT 'good'
        CHECK (condition IN ('excellent', 'good', 'fair', 'damaged')),
    photo         BLOB,
    photo_mime    TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE TABLE IF NOT EXISTS reservations (
    id           INTEGER PRIMARY KEY,
    equipment_id INTEGER NOT NULL REFERENCES equipment(id),
    requester_id INTEGER NOT NULL REFERENCES users(id),
    start_at     DATETIME NOT NULL,
    end_at       DATETIME NOT NULL,
    status       TEXT NOT NULL DEFAULT 'pending'
        CHECK (status IN ('pending', 'approved', 'rejected', 'returned')),
    requested_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    approved_by  INTEGER REFERENCES users(id),
    approved_at  DATETIME,
    notes        TEXT,
    returned_at  DATETIME,
    return_notes TEXT
);

CREATE INDEX IF NOT EXISTS idx_reservations_equipment_status
    ON reservations(equipment_id, status);

CREATE TABLE IF NOT EXISTS condition_logs (
    id            INTEGER PRIMARY KEY,
    equipment_id  INTEGER NOT NULL REFERENCES equipment(id),
    old_condition TEXT NOT NULL,
    new_condition TEXT NOT NULL,
    changed_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    changed_by    INTEGER REFERENCES users(id),
    notes         TEXT
);

CREATE TABLE IF NOT EXISTS activity_logs (
    id           INTEGER PRIMARY KEY,
    user_id      INTEGER REFERENCES users(id),
    equipment_id INTEGER REFERENCES equipment(id),
    action       TEXT NOT NULL,
    timestamp    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    notes        TEXT
);

CREATE TABLE IF NOT EXISTS documents (
    id              INTEGER PRIMARY KEY,
    title           TEXT NOT NULL,
    path            TEXT NOT NULL,
    visibility_role TEXT NOT NULL DEFAULT 'user' CHECK (visibility_role IN ('admin', 'user')),
    uploaded_by     INTEGER NOT NULL REFERENCES users(id),
    uploaded_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
