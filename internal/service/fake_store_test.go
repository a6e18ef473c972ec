package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chepyr/milestone-tracker/internal/db"
	"github.com/chepyr/milestone-tracker/internal/models"
)

// fakeStore is an in-memory db.Store. Its InTx is not transactional, which
// exposes the ordering of multi-step operations to the tests.
type fakeStore struct {
	mutex      sync.Mutex
	seq        int
	clock      time.Time
	tasks      map[string]*models.Task
	milestones map[string]*models.Milestone
	calls      []string
	errs       map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:      time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
		tasks:      make(map[string]*models.Task),
		milestones: make(map[string]*models.Milestone),
		errs:       make(map[string]error),
	}
}

func (f *fakeStore) Tasks() db.TaskRepositoryInterface           { return fakeTasks{f} }
func (f *fakeStore) Milestones() db.MilestoneRepositoryInterface { return fakeMilestones{f} }

func (f *fakeStore) Ping(context.Context) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.record("Ping")
}

func (f *fakeStore) InTx(ctx context.Context, fn func(db.Store) error) error {
	return fn(f)
}

// failOn makes the named call return err.
func (f *fakeStore) failOn(call string, err error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.errs[call] = err
}

func (f *fakeStore) record(call string) error {
	f.calls = append(f.calls, call)
	return f.errs[call]
}

func (f *fakeStore) callLog() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeStore) next(prefix string) (string, time.Time) {
	f.seq++
	f.clock = f.clock.Add(time.Second)
	return fmt.Sprintf("%s-%d", prefix, f.seq), f.clock
}

type fakeTasks struct{ f *fakeStore }

func (r fakeTasks) List(ctx context.Context) ([]*models.Task, error) {
	r.f.mutex.Lock()
	defer r.f.mutex.Unlock()
	if err := r.f.record("Tasks.List"); err != nil {
		return nil, err
	}
	out := make([]*models.Task, 0, len(r.f.tasks))
	for _, t := range r.f.tasks {
		c := *t
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r fakeTasks) GetByID(ctx context.Context, id string) (*models.Task, error) {
	r.f.mutex.Lock()
	defer r.f.mutex.Unlock()
	if err := r.f.record("Tasks.GetByID"); err != nil {
		return nil, err
	}
	t, ok := r.f.tasks[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r fakeTasks) Create(ctx context.Context, task *models.Task) error {
	r.f.mutex.Lock()
	defer r.f.mutex.Unlock()
	if err := r.f.record("Tasks.Create"); err != nil {
		return err
	}
	id, now := r.f.next("task")
	task.ID, task.CreatedAt, task.UpdatedAt = id, now, now
	c := *task
	r.f.tasks[id] = &c
	return nil
}

func (r fakeTasks) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	r.f.mutex.Lock()
	defer r.f.mutex.Unlock()
	if err := r.f.record("Tasks.Update"); err != nil {
		return nil, err
	}
	t, ok := r.f.tasks[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	_, t.UpdatedAt = r.f.next("tick")
	c := *t
	return &c, nil
}

func (r fakeTasks) Delete(ctx context.Context, id string) error {
	r.f.mutex.Lock()
	defer r.f.mutex.Unlock()
	if err := r.f.record("Tasks.Delete"); err != nil {
		return err
	}
	delete(r.f.tasks, id)
	return nil
}

type fakeMilestones struct{ f *fakeStore }

func (r fakeMilestones) ListByTaskID(ctx context.Context, taskID string) ([]*models.Milestone, error) {
	r.f.mutex.Lock()
	defer r.f.mutex.Unlock()
	if err := r.f.record("Milestones.ListByTaskID"); err != nil {
		return nil, err
	}
	out := make([]*models.Milestone, 0)
	for _, m := range r.f.milestones {
		if m.TaskID == taskID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r fakeMilestones) GetByID(ctx context.Context, id string) (*models.Milestone, error) {
	r.f.mutex.Lock()
	defer r.f.mutex.Unlock()
	if err := r.f.record("Milestones.GetByID"); err != nil {
		return nil, err
	}
	m, ok := r.f.milestones[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	c := *m
	return &c, nil
}

func (r fakeMilestones) Create(ctx context.Context, m *models.Milestone) error {
	r.f.mutex.Lock()
	defer r.f.mutex.Unlock()
	if err := r.f.record("Milestones.Create"); err != nil {
		return err
	}
	id, now := r.f.next("milestone")
	m.ID, m.CreatedAt, m.UpdatedAt = id, now, now
	c := *m
	r.f.milestones[id] = &c
	return nil
}

func (r fakeMilestones) Update(ctx context.Context, id string, patch models.MilestonePatch) (*models.Milestone, error) {
	r.f.mutex.Lock()
	defer r.f.mutex.Unlock()
	if err := r.f.record("Milestones.Update"); err != nil {
		return nil, err
	}
	m, ok := r.f.milestones[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	if patch.Title != nil {
		m.Title = *patch.Title
	}
	if patch.Description != nil {
		m.Description = *patch.Description
	}
	if patch.Status != nil {
		m.Status = *patch.Status
	}
	if patch.OrderIndex != nil {
		m.OrderIndex = *patch.OrderIndex
	}
	_, m.UpdatedAt = r.f.next("tick")
	c := *m
	return &c, nil
}

func (r fakeMilestones) Delete(ctx context.Context, id string) error {
	r.f.mutex.Lock()
	defer r.f.mutex.Unlock()
	if err := r.f.record("Milestones.Delete"); err != nil {
		return err
	}
	delete(r.f.milestones, id)
	return nil
}

func (r fakeMilestones) DeleteByTaskID(ctx context.Context, taskID string) error {
	r.f.mutex.Lock()
	defer r.f.mutex.Unlock()
	if err := r.f.record("Milestones.DeleteByTaskID"); err != nil {
		return err
	}
	for id, m := range r.f.milestones {
		if m.TaskID == taskID {
			delete(r.f.milestones, id)
		}
	}
	return nil
}

type recordingNotifier struct {
	mutex  sync.Mutex
	events []Event
}

func (n *recordingNotifier) Notify(e Event) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) types() []EventType {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	out := make([]EventType, len(n.events))
	for i, e := range n.events {
		out[i] = e.Type
	}
	return out
}
