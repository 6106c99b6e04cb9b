package lifecycle

import (
	"testing"
	"time"

	"github.com/claro-app/claro-server/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	inThreeDays := now.Add(3 * 24 * time.Hour)
	inTenDays := now.Add(10 * 24 * time.Hour)

	t.Run("empty set yields all zeros", func(t *testing.T) {
		stats := ComputeStats(nil, now)
		assert.Equal(t, Stats{}, stats)
	})

	t.Run("counts each bucket", func(t *testing.T) {
		tasks := []models.Task{
			{Status: models.TaskStatusCompleted},
			{Status: models.TaskStatusTodo, DueDate: &yesterday},
			{Status: models.TaskStatusInProgress, DueDate: &inThreeDays},
			{Status: models.TaskStatusTodo, DueDate: &inTenDays},
			{Status: models.TaskStatusTodo},
		}
		stats := ComputeStats(tasks, now)
		assert.Equal(t, 5, stats.Total)
		assert.Equal(t, 1, stats.Completed)
		assert.Equal(t, 1, stats.Overdue)
		assert.Equal(t, 1, stats.Upcoming)
		assert.Equal(t, 20, stats.CompletionRate)
	})

	t.Run("completed task with past due date is not overdue", func(t *testing.T) {
		tasks := []models.Task{
			{Status: models.TaskStatusCompleted, DueDate: &yesterday},
		}
		stats := ComputeStats(tasks, now)
		assert.Equal(t, 0, stats.Overdue)
		assert.Equal(t, 1, stats.Completed)
	})

	t.Run("due date exactly at the horizon counts as upcoming", func(t *testing.T) {
		horizon := now.Add(UpcomingWindow)
		tasks := []models.Task{
			{Status: models.TaskStatusTodo, DueDate: &horizon},
		}
		stats := ComputeStats(tasks, now)
		assert.Equal(t, 1, stats.Upcoming)
	})

	t.Run("completion rate rounds half up", func(t *testing.T) {
		tasks := make([]models.Task, 12)
		for i := 0; i < 8; i++ {
			tasks[i].Status = models.TaskStatusCompleted
		}
		for i := 8; i < 12; i++ {
			tasks[i].Status = models.TaskStatusTodo
		}
		stats := ComputeStats(tasks, now)
		// 8/12 = 66.67 rounds to 67
		assert.Equal(t, 67, stats.CompletionRate)
	})

	t.Run("archived tasks count in total but nowhere else", func(t *testing.T) {
		tasks := []models.Task{
			{Status: models.TaskStatusArchived},
			{Status: models.TaskStatusCompleted},
		}
		stats := ComputeStats(tasks, now)
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 1, stats.Completed)
		assert.Equal(t, 50, stats.CompletionRate)
	})
}
