package db

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSQLStore_InTx_CommitsOnSuccess(t *testing.T) {
	dbx := setupTestDB(t)
	store := NewSQLStore(dbx, stepClock())
	ctx := context.Background()

	task := newTask("Cascade")
	if err := store.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := store.Milestones().Create(ctx, newMilestone(task.ID, "child", 0)); err != nil {
		t.Fatalf("create milestone: %v", err)
	}

	err := store.InTx(ctx, func(tx Store) error {
		if err := tx.Milestones().DeleteByTaskID(ctx, task.ID); err != nil {
			return err
		}
		return tx.Tasks().Delete(ctx, task.ID)
	})
	if err != nil {
		t.Fatalf("InTx: %v", err)
	}

	if _, err := store.Tasks().GetByID(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected task to be deleted, got %v", err)
	}
}

func TestSQLStore_InTx_RollsBackOnError(t *testing.T) {
	dbx := setupTestDB(t)
	store := NewSQLStore(dbx, stepClock())
	ctx := context.Background()

	task := newTask("Survivor")
	if err := store.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := store.Milestones().Create(ctx, newMilestone(task.ID, "child", 0)); err != nil {
		t.Fatalf("create milestone: %v", err)
	}

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx Store) error {
		if err := tx.Milestones().DeleteByTaskID(ctx, task.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	list, err := store.Milestones().ListByTaskID(ctx, task.ID)
	if err != nil {
		t.Fatalf("ListByTaskID: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected rollback to keep the milestone, got %d", len(list))
	}
}

func TestSQLStore_Ping(t *testing.T) {
	store := NewSQLStore(setupTestDB(t), nil)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestSchema_Dialects(t *testing.T) {
	if s := Schema("sqlite3"); !strings.Contains(s, "created_at TIMESTAMP NOT NULL") {
		t.Errorf("sqlite schema should use TIMESTAMP columns:\n%s", s)
	}
	if s := Schema("postgres"); !strings.Contains(s, "created_at TIMESTAMPTZ NOT NULL") {
		t.Errorf("postgres schema should use TIMESTAMPTZ columns:\n%s", s)
	}
	if s := Schema("postgres"); !strings.Contains(s, "seq BIGSERIAL") {
		t.Errorf("postgres schema should number milestones with BIGSERIAL:\n%s", s)
	}
	if s := Schema("sqlite3"); !strings.Contains(s, "CREATE TRIGGER IF NOT EXISTS milestones_seq") {
		t.Errorf("sqlite schema should number milestones with a trigger:\n%s", s)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	dbx := setupTestDB(t)
	if err := Migrate(context.Background(), dbx, "sqlite3"); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}
