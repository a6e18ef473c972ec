package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chepyr/milestone-tracker/internal/models"
	"github.com/google/uuid"
)

// defines methods for task db operations
type TaskRepositoryInterface interface {
	List(ctx context.Context) ([]*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

type TaskRepository struct {
	db  DBTX
	now func() time.Time
}

func NewTaskRepository(db DBTX, now func() time.Time) *TaskRepository {
	if now == nil {
		now = utcNow
	}
	return &TaskRepository{db: db, now: now}
}

const taskColumns = `id, title, description, status, priority, created_at, updated_at, user_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.Status, &task.Priority,
		&task.CreatedAt, &task.UpdatedAt, &task.UserID,
	)
	return task, err
}

// Create assigns the id and timestamps and inserts the task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	now := r.now()
	task.ID = uuid.New().String()
	task.CreatedAt = now
	task.UpdatedAt = now

	query := `INSERT INTO tasks (id, title, description, status, priority, created_at, updated_at, user_id)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(
		ctx, query, task.ID, task.Title, task.Description, task.Status, task.Priority,
		task.CreatedAt, task.UpdatedAt, task.UserID)
	return err
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return task, nil
}

// List returns every task, newest first.
func (r *TaskRepository) List(ctx context.Context) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update writes the fields present in patch and always bumps updated_at.
// It returns ErrNotFound when no row has the given id.
func (r *TaskRepository) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	set := newSetClause()
	if patch.Title != nil {
		set.add("title", *patch.Title)
	}
	if patch.Description != nil {
		set.add("description", *patch.Description)
	}
	if patch.Status != nil {
		set.add("status", *patch.Status)
	}
	if patch.Priority != nil {
		set.add("priority", *patch.Priority)
	}
	set.add("updated_at", r.now())

	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $%d`, set.String(), len(set.args)+1)
	res, err := r.db.ExecContext(ctx, query, append(set.args, id)...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes the task row. Deleting an unknown id is not an error.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

// setClause builds "col = $n" assignments with placeholders numbered in
// the order they appear, which sqlite relies on.
type setClause struct {
	parts []string
	args  []any
}

func newSetClause() *setClause {
	return &setClause{}
}

func (s *setClause) add(column string, value any) {
	s.args = append(s.args, value)
	s.parts = append(s.parts, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setClause) String() string {
	return strings.Join(s.parts, ", ")
}

func utcNow() time.Time {
	return time.Now().UTC()
}
