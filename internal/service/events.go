package service

type EventType string

const (
	TaskCreated      EventType = "task_created"
	TaskUpdated      EventType = "task_updated"
	TaskDeleted      EventType = "task_deleted"
	MilestoneCreated EventType = "milestone_created"
	MilestoneUpdated EventType = "milestone_updated"
	MilestoneDeleted EventType = "milestone_deleted"
)

// Event describes a successful mutation. Data carries the written row and is
// nil for deletions.
type Event struct {
	Type        EventType `json:"event"`
	TaskID      string    `json:"task_id,omitempty"`
	MilestoneID string    `json:"milestone_id,omitempty"`
	Data        any       `json:"data,omitempty"`
}

// Notifier receives events after the store call has returned.
type Notifier interface {
	Notify(Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(Event) {}
