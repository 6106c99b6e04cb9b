package lifecycle

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/claro-app/claro-server/internal/apperr"
	"github.com/claro-app/claro-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func statusPtr(s models.TaskStatus) *models.TaskStatus { return &s }

func priorityPtr(p models.TaskPriority) *models.TaskPriority { return &p }

func TestNewTask(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("defaults status and priority", func(t *testing.T) {
		task, err := NewTask(TaskCreate{Title: "Write docs", ProjectID: 1}, 7, now)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusTodo, task.Status)
		assert.Equal(t, models.TaskPriorityMedium, task.Priority)
		assert.Equal(t, uint(7), task.CreatorID)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("created as completed gets completedAt", func(t *testing.T) {
		task, err := NewTask(TaskCreate{
			Title:     "Already done",
			ProjectID: 1,
			Status:    statusPtr(models.TaskStatusCompleted),
		}, 7, now)
		require.NoError(t, err)
		require.NotNil(t, task.CompletedAt)
		assert.Equal(t, now, *task.CompletedAt)
	})

	t.Run("parses plain date due dates", func(t *testing.T) {
		task, err := NewTask(TaskCreate{
			Title:     "Dated",
			ProjectID: 1,
			DueDate:   strPtr("2026-04-01"),
		}, 7, now)
		require.NoError(t, err)
		require.NotNil(t, task.DueDate)
		assert.Equal(t, 2026, task.DueDate.Year())
		assert.Equal(t, time.April, task.DueDate.Month())
	})

	t.Run("reports every violated field", func(t *testing.T) {
		long := make([]byte, 1001)
		for i := range long {
			long[i] = 'x'
		}
		bad := -1.0
		_, err := NewTask(TaskCreate{
			Title:          "",
			Description:    string(long),
			Status:         statusPtr(models.TaskStatus("DONE")),
			Priority:       priorityPtr(models.TaskPriority("CRITICAL")),
			DueDate:        strPtr("not-a-date"),
			EstimatedHours: &bad,
			Tags:           json.RawMessage(`"not-a-list"`),
		}, 7, now)
		require.Error(t, err)
		ve, ok := apperr.AsValidation(err)
		require.True(t, ok)
		assert.Len(t, ve.Fields, 7)
	})
}

func TestTagsBinding(t *testing.T) {
	now := time.Now()

	t.Run("array of strings is accepted", func(t *testing.T) {
		task, err := NewTask(TaskCreate{
			Title:     "Tagged",
			ProjectID: 1,
			Tags:      json.RawMessage(`["design","frontend"]`),
		}, 7, now)
		require.NoError(t, err)
		assert.Equal(t, models.TagList{"design", "frontend"}, task.Tags)
	})

	t.Run("non-array value is a field violation", func(t *testing.T) {
		_, err := NewTask(TaskCreate{
			Title:     "Tagged",
			ProjectID: 1,
			Tags:      json.RawMessage(`"design"`),
		}, 7, now)
		require.Error(t, err)
		ve, ok := apperr.AsValidation(err)
		require.True(t, ok)
		require.Len(t, ve.Fields, 1)
		assert.Equal(t, "tags", ve.Fields[0].Field)
	})

	t.Run("non-string element is a field violation", func(t *testing.T) {
		task := &models.Task{Title: "T"}
		err := Apply(task, TaskUpdate{Tags: json.RawMessage(`["ok", 7]`)}, now)
		require.Error(t, err)
		ve, ok := apperr.AsValidation(err)
		require.True(t, ok)
		require.Len(t, ve.Fields, 1)
		assert.Equal(t, "tags", ve.Fields[0].Field)
	})

	t.Run("omitted tags keep stored value", func(t *testing.T) {
		task := &models.Task{Title: "T", Tags: models.TagList{"keep"}}
		require.NoError(t, Apply(task, TaskUpdate{Title: "Renamed"}, now))
		assert.Equal(t, models.TagList{"keep"}, task.Tags)
	})

	t.Run("empty array clears stored tags", func(t *testing.T) {
		task := &models.Task{Title: "T", Tags: models.TagList{"old"}}
		require.NoError(t, Apply(task, TaskUpdate{Tags: json.RawMessage(`[]`)}, now))
		assert.Equal(t, models.TagList{}, task.Tags)
	})
}

func TestApplyCompletedAt(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("entering COMPLETED stamps completedAt", func(t *testing.T) {
		task := &models.Task{Title: "T", Status: models.TaskStatusInProgress}
		err := Apply(task, TaskUpdate{Status: statusPtr(models.TaskStatusCompleted)}, now)
		require.NoError(t, err)
		require.NotNil(t, task.CompletedAt)
		assert.Equal(t, now, *task.CompletedAt)
	})

	t.Run("leaving COMPLETED clears completedAt", func(t *testing.T) {
		earlier := now.Add(-time.Hour)
		task := &models.Task{Title: "T", Status: models.TaskStatusCompleted, CompletedAt: &earlier}
		err := Apply(task, TaskUpdate{Status: statusPtr(models.TaskStatusTodo)}, now)
		require.NoError(t, err)
		assert.Nil(t, task.CompletedAt)
	})

	t.Run("idempotent COMPLETED re-save keeps original timestamp", func(t *testing.T) {
		earlier := now.Add(-time.Hour)
		task := &models.Task{Title: "T", Status: models.TaskStatusCompleted, CompletedAt: &earlier}
		err := Apply(task, TaskUpdate{Status: statusPtr(models.TaskStatusCompleted)}, now)
		require.NoError(t, err)
		require.NotNil(t, task.CompletedAt)
		assert.Equal(t, earlier, *task.CompletedAt)
	})

	t.Run("non-status update never touches completedAt", func(t *testing.T) {
		earlier := now.Add(-time.Hour)
		task := &models.Task{Title: "T", Status: models.TaskStatusCompleted, CompletedAt: &earlier}
		err := Apply(task, TaskUpdate{Title: "Renamed"}, now)
		require.NoError(t, err)
		require.NotNil(t, task.CompletedAt)
		assert.Equal(t, earlier, *task.CompletedAt)
	})
}

func TestApplyPartialUpdate(t *testing.T) {
	now := time.Now()

	t.Run("omitted fields keep stored values", func(t *testing.T) {
		due := now.Add(48 * time.Hour)
		task := &models.Task{
			Title:       "Original",
			Description: "Keep me",
			Status:      models.TaskStatusInProgress,
			Priority:    models.TaskPriorityHigh,
			DueDate:     &due,
		}
		err := Apply(task, TaskUpdate{Title: "Renamed"}, now)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", task.Title)
		assert.Equal(t, "Keep me", task.Description)
		assert.Equal(t, models.TaskStatusInProgress, task.Status)
		assert.Equal(t, models.TaskPriorityHigh, task.Priority)
		require.NotNil(t, task.DueDate)
		assert.Equal(t, due, *task.DueDate)
	})

	t.Run("omission never clears a due date", func(t *testing.T) {
		due := now.Add(48 * time.Hour)
		task := &models.Task{Title: "T", DueDate: &due}
		err := Apply(task, TaskUpdate{Description: strPtr("new text")}, now)
		require.NoError(t, err)
		require.NotNil(t, task.DueDate)
	})

	t.Run("clear_due_date is the explicit clearing signal", func(t *testing.T) {
		due := now.Add(48 * time.Hour)
		task := &models.Task{Title: "T", DueDate: &due}
		err := Apply(task, TaskUpdate{ClearDueDate: true}, now)
		require.NoError(t, err)
		assert.Nil(t, task.DueDate)
	})

	t.Run("failed validation leaves the task untouched", func(t *testing.T) {
		task := &models.Task{Title: "Original", Status: models.TaskStatusTodo}
		err := Apply(task, TaskUpdate{
			Title:   "Renamed",
			DueDate: strPtr("yesterday-ish"),
		}, now)
		require.Error(t, err)
		assert.Equal(t, "Original", task.Title)
	})

	t.Run("malformed due date is rejected not ignored", func(t *testing.T) {
		task := &models.Task{Title: "T"}
		err := Apply(task, TaskUpdate{DueDate: strPtr("31/12/2026")}, now)
		require.Error(t, err)
		ve, ok := apperr.AsValidation(err)
		require.True(t, ok)
		require.Len(t, ve.Fields, 1)
		assert.Equal(t, "due_date", ve.Fields[0].Field)
	})
}
