package db

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaTemplate = `
CREATE TABLE IF NOT EXISTS tasks (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending', 'in_progress', 'completed')),
  priority TEXT NOT NULL DEFAULT 'medium'
    CHECK (priority IN ('low', 'medium', 'high')),
  created_at %[1]s NOT NULL,
  updated_at %[1]s NOT NULL,
  user_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
CREATE TABLE IF NOT EXISTS milestones (
  id TEXT PRIMARY KEY,
  task_id TEXT NOT NULL REFERENCES tasks(id),
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending'
    CHECK (status IN ('pending', 'in_progress', 'completed')),
  order_index INTEGER NOT NULL,
  created_at %[1]s NOT NULL,
  updated_at %[1]s NOT NULL,
  seq %[2]s
);
CREATE INDEX IF NOT EXISTS idx_milestones_task_id ON milestones(task_id);
%[3]s`

// seq records insertion order so milestones with equal order_index and
// created_at still list in the order they were added.
const (
	postgresSeq = `ALTER TABLE milestones ADD COLUMN IF NOT EXISTS seq BIGSERIAL;
`
	sqliteSeq = `CREATE TRIGGER IF NOT EXISTS milestones_seq AFTER INSERT ON milestones
BEGIN
  UPDATE milestones SET seq = NEW.rowid WHERE rowid = NEW.rowid;
END;
`
)

// Schema returns the DDL for the given driver. The sqlite driver only maps
// columns declared TIMESTAMP back to time.Time.
func Schema(driverName string) string {
	if driverName == "sqlite3" {
		return fmt.Sprintf(schemaTemplate, "TIMESTAMP", "INTEGER", sqliteSeq)
	}
	return fmt.Sprintf(schemaTemplate, "TIMESTAMPTZ", "BIGSERIAL", postgresSeq)
}

func Migrate(ctx context.Context, db *sql.DB, driverName string) error {
	if _, err := db.ExecContext(ctx, Schema(driverName)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
