package client

import (
	"sort"
	"strings"
	"time"

	"github.com/chepyr/milestone-tracker/internal/models"
)

// StatusCounts holds the number of tasks in each status plus the total.
type StatusCounts struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
}

func CountByStatus(tasks []models.Task) StatusCounts {
	counts := StatusCounts{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case models.StatusPending:
			counts.Pending++
		case models.StatusInProgress:
			counts.InProgress++
		case models.StatusCompleted:
			counts.Completed++
		}
	}
	return counts
}

// SortMilestones returns a copy of ms ordered by ascending order_index.
// Milestones with equal indexes keep their relative order.
func SortMilestones(ms []*models.Milestone) []*models.Milestone {
	sorted := make([]*models.Milestone, len(ms))
	copy(sorted, ms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OrderIndex < sorted[j].OrderIndex
	})
	return sorted
}

// ToggleStatus flips completed back to pending; any other status becomes
// completed.
func ToggleStatus(s models.Status) models.Status {
	if s == models.StatusCompleted {
		return models.StatusPending
	}
	return models.StatusCompleted
}

// Progress returns how many milestones are completed out of the total.
func Progress(ms []*models.Milestone) (completed, total int) {
	for _, m := range ms {
		if m.Status == models.StatusCompleted {
			completed++
		}
	}
	return completed, len(ms)
}

func FormatDate(t time.Time) string {
	return t.Local().Format("Jan 2, 2006")
}

func StatusLabel(s models.Status) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
