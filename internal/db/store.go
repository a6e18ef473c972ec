package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store is the persistence boundary used by the service layer.
type Store interface {
	Tasks() TaskRepositoryInterface
	Milestones() MilestoneRepositoryInterface
	// InTx runs fn against a store whose operations share one transaction.
	// The transaction commits when fn returns nil.
	InTx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}

type SQLStore struct {
	db         *sql.DB
	tx         *sql.Tx
	now        func() time.Time
	tasks      *TaskRepository
	milestones *MilestoneRepository
}

// NewSQLStore wraps db. now supplies created_at/updated_at values; nil means
// the current UTC time.
func NewSQLStore(db *sql.DB, now func() time.Time) *SQLStore {
	if now == nil {
		now = utcNow
	}
	return &SQLStore{
		db:         db,
		now:        now,
		tasks:      NewTaskRepository(db, now),
		milestones: NewMilestoneRepository(db, now),
	}
}

func (s *SQLStore) Tasks() TaskRepositoryInterface { return s.tasks }

func (s *SQLStore) Milestones() MilestoneRepositoryInterface { return s.milestones }

func (s *SQLStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	txStore := &SQLStore{
		db:         s.db,
		tx:         tx,
		now:        s.now,
		tasks:      NewTaskRepository(tx, s.now),
		milestones: NewMilestoneRepository(tx, s.now),
	}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
