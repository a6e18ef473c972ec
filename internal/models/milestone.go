package models

import (
	"encoding/json"
	"time"
)

type Milestone struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	OrderIndex  int       `json:"order_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewMilestone uses a pointer for OrderIndex so that an absent index can be
// told apart from index 0.
type NewMilestone struct {
	TaskID      string `json:"task_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  *int   `json:"order_index"`
}

type MilestonePatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
	OrderIndex  *int    `json:"order_index,omitempty"`
}


func (p *MilestonePatch) UnmarshalJSON(data []byte) error {
	if err := rejectNulls(data, "title", "description", "status", "order_index"); err != nil {
		return err
	}
	type plain MilestonePatch
	return json.Unmarshal(data, (*plain)(p))
}
