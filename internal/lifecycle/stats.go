package lifecycle

import (
	"math"
	"time"

	"github.com/claro-app/claro-server/internal/models"
)

// UpcomingWindow is how far ahead a due date still counts as "upcoming".
const UpcomingWindow = 7 * 24 * time.Hour

type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Overdue        int `json:"overdue"`
	Upcoming       int `json:"upcoming"`
	CompletionRate int `json:"completion_rate"`
}

// ComputeStats aggregates a task collection. It is pure: the caller is
// responsible for pre-filtering the set to what the user may see. The
// completion rate is rounded half-up (8 of 12 yields 67) and is 0 for an
// empty set.
func ComputeStats(tasks []models.Task, now time.Time) Stats {
	horizon := now.Add(UpcomingWindow)
	stats := Stats{Total: len(tasks)}

	for _, task := range tasks {
		if task.Status == models.TaskStatusCompleted {
			stats.Completed++
			continue
		}
		if task.DueDate == nil {
			continue
		}
		due := *task.DueDate
		if due.Before(now) {
			stats.Overdue++
		} else if !due.After(horizon) {
			stats.Upcoming++
		}
	}

	if stats.Total > 0 {
		rate := float64(stats.Completed) / float64(stats.Total) * 100
		stats.CompletionRate = int(math.Round(rate))
	}
	return stats
}
