// Package service implements task and milestone operations on top of a
// db.Store: input validation, creation defaults, partial updates, and the
// milestones-then-task delete sequence.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/chepyr/milestone-tracker/internal/db"
	"github.com/chepyr/milestone-tracker/internal/metrics"
	"github.com/chepyr/milestone-tracker/internal/models"
	"go.uber.org/zap"
)

type Service struct {
	store    db.Store
	notifier Notifier
	logger   *zap.Logger
}

// New returns a Service backed by store. notifier may be nil.
func New(store db.Store, notifier Notifier, logger *zap.Logger) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, logger: logger}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ListTasks returns all tasks, newest first.
func (s *Service) ListTasks(ctx context.Context) ([]*models.Task, error) {
	tasks, err := s.store.Tasks().List(ctx)
	if err != nil {
		return nil, s.storeError("list_tasks", err)
	}
	return tasks, nil
}

// GetTask returns the task with its milestones embedded.
func (s *Service) GetTask(ctx context.Context, id string) (*models.TaskDetail, error) {
	task, err := s.store.Tasks().GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get_task", err)
	}
	milestones, err := s.store.Milestones().ListByTaskID(ctx, id)
	if err != nil {
		return nil, s.storeError("get_task_milestones", err)
	}
	return &models.TaskDetail{Task: *task, Milestones: milestones}, nil
}

// CreateTask inserts a pending task. Priority defaults to medium.
func (s *Service) CreateTask(ctx context.Context, in models.NewTask) (*models.Task, error) {
	if in.Title == "" || in.Description == "" {
		return nil, invalid("Title and description are required")
	}
	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !priority.Valid() {
		return nil, invalid("priority must be one of low, medium, high")
	}

	task := &models.Task{
		Title:       in.Title,
		Description: in.Description,
		Status:      models.StatusPending,
		Priority:    priority,
	}
	if err := s.store.Tasks().Create(ctx, task); err != nil {
		return nil, s.storeError("create_task", err)
	}

	metrics.IncrementMutation("task", "create")
	s.notifier.Notify(Event{Type: TaskCreated, TaskID: task.ID, Data: task})
	return task, nil
}

// UpdateTask applies exactly the fields present in patch.
func (s *Service) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalid("status must be one of pending, in_progress, completed")
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, invalid("priority must be one of low, medium, high")
	}

	task, err := s.store.Tasks().Update(ctx, id, patch)
	if err != nil {
		return nil, s.storeError("update_task", err)
	}

	metrics.IncrementMutation("task", "update")
	s.notifier.Notify(Event{Type: TaskUpdated, TaskID: task.ID, Data: task})
	return task, nil
}

// DeleteTask removes the task's milestones and then the task. A failure
// removing milestones aborts before the task row is touched. Deleting an
// unknown id succeeds.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	err := s.store.InTx(ctx, func(tx db.Store) error {
		if err := tx.Milestones().DeleteByTaskID(ctx, id); err != nil {
			return fmt.Errorf("delete milestones of task %s: %w", id, err)
		}
		if err := tx.Tasks().Delete(ctx, id); err != nil {
			return fmt.Errorf("delete task %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return s.storeError("delete_task", err)
	}

	metrics.IncrementMutation("task", "delete")
	s.notifier.Notify(Event{Type: TaskDeleted, TaskID: id})
	return nil
}

// ListMilestones returns the task's milestones by ascending order_index.
func (s *Service) ListMilestones(ctx context.Context, taskID string) ([]*models.Milestone, error) {
	if taskID == "" {
		return nil, invalid("task_id query parameter is required")
	}
	milestones, err := s.store.Milestones().ListByTaskID(ctx, taskID)
	if err != nil {
		return nil, s.storeError("list_milestones", err)
	}
	return milestones, nil
}

func (s *Service) GetMilestone(ctx context.Context, id string) (*models.Milestone, error) {
	m, err := s.store.Milestones().GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get_milestone", err)
	}
	return m, nil
}

// CreateMilestone inserts a pending milestone. An order_index of 0 is valid;
// only an absent index is rejected. The task reference is checked by the
// store, not here.
func (s *Service) CreateMilestone(ctx context.Context, in models.NewMilestone) (*models.Milestone, error) {
	if in.TaskID == "" || in.Title == "" || in.Description == "" || in.OrderIndex == nil {
		return nil, invalid("task_id, title, description, and order_index are required")
	}

	m := &models.Milestone{
		TaskID:      in.TaskID,
		Title:       in.Title,
		Description: in.Description,
		Status:      models.StatusPending,
		OrderIndex:  *in.OrderIndex,
	}
	if err := s.store.Milestones().Create(ctx, m); err != nil {
		return nil, s.storeError("create_milestone", err)
	}

	metrics.IncrementMutation("milestone", "create")
	s.notifier.Notify(Event{Type: MilestoneCreated, TaskID: m.TaskID, MilestoneID: m.ID, Data: m})
	return m, nil
}

func (s *Service) UpdateMilestone(ctx context.Context, id string, patch models.MilestonePatch) (*models.Milestone, error) {
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, invalid("status must be one of pending, in_progress, completed")
	}

	m, err := s.store.Milestones().Update(ctx, id, patch)
	if err != nil {
		return nil, s.storeError("update_milestone", err)
	}

	metrics.IncrementMutation("milestone", "update")
	s.notifier.Notify(Event{Type: MilestoneUpdated, TaskID: m.TaskID, MilestoneID: m.ID, Data: m})
	return m, nil
}

// DeleteMilestone removes one milestone. Deleting an unknown id succeeds.
func (s *Service) DeleteMilestone(ctx context.Context, id string) error {
	// looked up only to route the change event to the owning task
	var taskID string
	if m, err := s.store.Milestones().GetByID(ctx, id); err == nil {
		taskID = m.TaskID
	}

	if err := s.store.Milestones().Delete(ctx, id); err != nil {
		return s.storeError("delete_milestone", err)
	}

	metrics.IncrementMutation("milestone", "delete")
	s.notifier.Notify(Event{Type: MilestoneDeleted, TaskID: taskID, MilestoneID: id})
	return nil
}

func (s *Service) storeError(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}
	metrics.IncrementStoreError(op)
	s.logger.Error("store call failed", zap.String("operation", op), zap.Error(err))
	return err
}
