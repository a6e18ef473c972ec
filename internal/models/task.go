package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      *string   `json:"user_id"`
}

// TaskDetail is a task with its milestones embedded, as returned by a
// single-task lookup.
type TaskDetail struct {
	Task
	Milestones []*Milestone `json:"milestones"`
}

type NewTask struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// TaskPatch holds the fields of a partial task update. A nil field is left
// untouched; a non-nil field is written as given, even when empty.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
}


func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	if err := rejectNulls(data, "title", "description", "status", "priority"); err != nil {
		return err
	}
	type plain TaskPatch
	return json.Unmarshal(data, (*plain)(p))
}

// NullFieldError reports an explicit JSON null for a field that cannot be
// cleared.
type NullFieldError struct {
	Field string
}

func (e *NullFieldError) Error() string {
	return fmt.Sprintf("%s must not be null", e.Field)
}

// rejectNulls fails when any of fields is present in the object as null.
func rejectNulls(data []byte, fields ...string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, f := range fields {
		if v, ok := raw[f]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return &NullFieldError{Field: f}
		}
	}
	return nil
}
