package db

import (
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
// Every statement is idempotent and valid for both SQLite and PostgreSQL.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id         TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name  TEXT NOT NULL,
		email      TEXT NOT NULL DEFAULT '',
		phone      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS follow_ups (
		id                  TEXT PRIMARY KEY,
		member_id           TEXT NOT NULL REFERENCES members(id) ON DELETE CASCADE,
		assigned_to_id      TEXT NOT NULL,
		assigned_to_name    TEXT NOT NULL,
		reason              TEXT NOT NULL CHECK (reason IN ('NEW_VISITOR', 'NEW_CONVERT', 'ABSENT', 'SICK', 'PRAYER_REQUEST', 'COUNSELING', 'MEMBERSHIP', 'BAPTISM', 'OTHER')),
		reason_other        TEXT NOT NULL DEFAULT '',
		priority            TEXT NOT NULL DEFAULT 'NORMAL' CHECK (priority IN ('LOW', 'NORMAL', 'HIGH', 'URGENT')),
		method              TEXT NOT NULL DEFAULT '',
		status              TEXT NOT NULL DEFAULT 'PENDING' CHECK (status IN ('PENDING', 'IN_PROGRESS', 'COMPLETED', 'CANCELLED', 'NO_RESPONSE')),
		due_date            TEXT NOT NULL,
		completed_at        TEXT,
		initial_notes       TEXT NOT NULL DEFAULT '',
		follow_up_notes     TEXT NOT NULL DEFAULT '',
		outcome             TEXT NOT NULL DEFAULT '',
		requires_follow_up  INTEGER NOT NULL DEFAULT 0,
		next_follow_up_date TEXT,
		previous_id         TEXT REFERENCES follow_ups(id) ON DELETE SET NULL,
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_follow_ups_member_id ON follow_ups(member_id)`,
	`CREATE INDEX IF NOT EXISTS idx_follow_ups_assigned_to_id ON follow_ups(assigned_to_id)`,
	`CREATE INDEX IF NOT EXISTS idx_follow_ups_status_due ON follow_ups(status, due_date)`,
	`CREATE INDEX IF NOT EXISTS idx_members_name ON members(last_name, first_name)`,
}

// migrate runs all migrations in order.
func migrate(d *DB) error {
	for i, m := range migrations {
		if _, err := d.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
