package db

import (
	"context"
	"fmt"
	"time"

	"github.com/chepyr/milestone-tracker/internal/models"
	"github.com/google/uuid"
)

// defines methods for milestone db operations
type MilestoneRepositoryInterface interface {
	ListByTaskID(ctx context.Context, taskID string) ([]*models.Milestone, error)
	GetByID(ctx context.Context, id string) (*models.Milestone, error)
	Create(ctx context.Context, m *models.Milestone) error
	Update(ctx context.Context, id string, patch models.MilestonePatch) (*models.Milestone, error)
	Delete(ctx context.Context, id string) error
	DeleteByTaskID(ctx context.Context, taskID string) error
}

type MilestoneRepository struct {
	db  DBTX
	now func() time.Time
}

func NewMilestoneRepository(db DBTX, now func() time.Time) *MilestoneRepository {
	if now == nil {
		now = utcNow
	}
	return &MilestoneRepository{db: db, now: now}
}

const milestoneColumns = `id, task_id, title, description, status, order_index, created_at, updated_at`

func scanMilestone(row rowScanner) (*models.Milestone, error) {
	m := &models.Milestone{}
	err := row.Scan(
		&m.ID, &m.TaskID, &m.Title, &m.Description, &m.Status, &m.OrderIndex,
		&m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

func (r *MilestoneRepository) Create(ctx context.Context, m *models.Milestone) error {
	now := r.now()
	m.ID = uuid.New().String()
	m.CreatedAt = now
	m.UpdatedAt = now

	query := `INSERT INTO milestones (id, task_id, title, description, status, order_index, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(
		ctx, query, m.ID, m.TaskID, m.Title, m.Description, m.Status, m.OrderIndex,
		m.CreatedAt, m.UpdatedAt)
	return err
}

func (r *MilestoneRepository) GetByID(ctx context.Context, id string) (*models.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1`
	m, err := scanMilestone(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// ListByTaskID returns the task's milestones by ascending order_index.
// Equal indices keep their insertion order.
func (r *MilestoneRepository) ListByTaskID(ctx context.Context, taskID string) ([]*models.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones
	 WHERE task_id = $1 ORDER BY order_index ASC, created_at ASC, seq ASC`
	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	milestones := make([]*models.Milestone, 0)
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return milestones, nil
}

func (r *MilestoneRepository) Update(ctx context.Context, id string, patch models.MilestonePatch) (*models.Milestone, error) {
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
	if patch.OrderIndex != nil {
		set.add("order_index", *patch.OrderIndex)
	}
	set.add("updated_at", r.now())

	query := fmt.Sprintf(`UPDATE milestones SET %s WHERE id = $%d`, set.String(), len(set.args)+1)
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

func (r *MilestoneRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM milestones WHERE id = $1`, id)
	return err
}

func (r *MilestoneRepository) DeleteByTaskID(ctx context.Context, taskID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM milestones WHERE task_id = $1`, taskID)
	return err
}
