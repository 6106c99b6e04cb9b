// Package lifecycle owns task field validation and status transitions,
// including the completedAt derivation, plus the pure statistics
// aggregator. Handlers never touch these rules directly.
package lifecycle

import (
	"encoding/json"
	"time"

	"github.com/claro-app/claro-server/internal/apperr"
	"github.com/claro-app/claro-server/internal/models"
)

const (
	maxTitleLen       = 200
	maxDescriptionLen = 1000
)

// TaskCreate is the input for a new task. Status and Priority default to
// TODO and MEDIUM when omitted. Tags is bound loosely so a non-array value
// reports as a field violation instead of a generic decode failure.
type TaskCreate struct {
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	ProjectID      uint                 `json:"project_id"`
	AssigneeID     *uint                `json:"assignee_id"`
	Status         *models.TaskStatus   `json:"status"`
	Priority       *models.TaskPriority `json:"priority"`
	DueDate        *string              `json:"due_date"`
	EstimatedHours *float64             `json:"estimated_hours"`
	Tags           json.RawMessage      `json:"tags"`
}

// TaskUpdate is a partial update: every field is independently optional and
// a nil (or, for due_date, empty) field leaves the stored value untouched.
// Omission never clears a due date; ClearDueDate is the explicit signal.
type TaskUpdate struct {
	Title          string               `json:"title"`
	Description    *string              `json:"description"`
	AssigneeID     *uint                `json:"assignee_id"`
	Status         *models.TaskStatus   `json:"status"`
	Priority       *models.TaskPriority `json:"priority"`
	DueDate        *string              `json:"due_date"`
	ClearDueDate   bool                 `json:"clear_due_date"`
	EstimatedHours *float64             `json:"estimated_hours"`
	ActualHours    *float64             `json:"actual_hours"`
	Tags           json.RawMessage      `json:"tags"`
}

// ParseDueDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func ParseDueDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// parseTags interprets a raw tags value. Absent and JSON null both mean
// "not provided"; present reports whether a value was given at all.
func parseTags(raw json.RawMessage) (tags []string, present bool, ok bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, false, true
	}
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, true, false
	}
	return tags, true, true
}

// NewTask validates and builds a task. Every violated field is reported,
// not just the first.
func NewTask(in TaskCreate, creatorID uint, now time.Time) (*models.Task, error) {
	ve := &apperr.ValidationError{}

	if len(in.Title) < 1 || len(in.Title) > maxTitleLen {
		ve.Add("title", "title is required and must be at most 200 characters")
	}
	if len(in.Description) > maxDescriptionLen {
		ve.Add("description", "description must be at most 1000 characters")
	}

	status := models.TaskStatusTodo
	if in.Status != nil {
		if !in.Status.Valid() {
			ve.Add("status", "invalid status")
		} else {
			status = *in.Status
		}
	}

	priority := models.TaskPriorityMedium
	if in.Priority != nil {
		if !in.Priority.Valid() {
			ve.Add("priority", "invalid priority")
		} else {
			priority = *in.Priority
		}
	}

	var dueDate *time.Time
	if in.DueDate != nil && *in.DueDate != "" {
		parsed, err := ParseDueDate(*in.DueDate)
		if err != nil {
			ve.Add("due_date", "due date must be a valid date")
		} else {
			dueDate = &parsed
		}
	}

	if in.EstimatedHours != nil && *in.EstimatedHours < 0 {
		ve.Add("estimated_hours", "estimated hours must be a positive number")
	}

	tags, _, tagsOK := parseTags(in.Tags)
	if !tagsOK {
		ve.Add("tags", "tags must be a list of strings")
	}

	if err := ve.Err(); err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:          in.Title,
		Description:    in.Description,
		ProjectID:      in.ProjectID,
		AssigneeID:     in.AssigneeID,
		CreatorID:      creatorID,
		Status:         status,
		Priority:       priority,
		DueDate:        dueDate,
		EstimatedHours: in.EstimatedHours,
		Tags:           models.TagList(tags),
	}
	// completedAt is non-null iff status is COMPLETED, from the first write.
	if status == models.TaskStatusCompleted {
		t := now
		task.CompletedAt = &t
	}
	return task, nil
}

// Validate checks an update without applying it. A failed validation must
// leave the stored task untouched, so Apply validates before mutating.
func Validate(u TaskUpdate) error {
	ve := &apperr.ValidationError{}

	if u.Title != "" && len(u.Title) > maxTitleLen {
		ve.Add("title", "title must be at most 200 characters")
	}
	if u.Description != nil && len(*u.Description) > maxDescriptionLen {
		ve.Add("description", "description must be at most 1000 characters")
	}
	if u.Status != nil && !u.Status.Valid() {
		ve.Add("status", "invalid status")
	}
	if u.Priority != nil && !u.Priority.Valid() {
		ve.Add("priority", "invalid priority")
	}
	if u.DueDate != nil && *u.DueDate != "" {
		if _, err := ParseDueDate(*u.DueDate); err != nil {
			ve.Add("due_date", "due date must be a valid date")
		}
	}
	if u.EstimatedHours != nil && *u.EstimatedHours < 0 {
		ve.Add("estimated_hours", "estimated hours must be a positive number")
	}
	if u.ActualHours != nil && *u.ActualHours < 0 {
		ve.Add("actual_hours", "actual hours must be a positive number")
	}
	if _, _, ok := parseTags(u.Tags); !ok {
		ve.Add("tags", "tags must be a list of strings")
	}

	return ve.Err()
}

// Apply validates the update, then mutates the task in place. The
// completedAt rule compares the previously persisted status against the
// requested one: entering COMPLETED stamps completedAt, leaving COMPLETED
// clears it, and an idempotent COMPLETED re-save changes nothing. There is
// no enforced transition graph; any status is reachable from any other.
func Apply(task *models.Task, u TaskUpdate, now time.Time) error {
	if err := Validate(u); err != nil {
		return err
	}

	if u.Title != "" {
		task.Title = u.Title
	}
	if u.Description != nil {
		task.Description = *u.Description
	}
	if u.AssigneeID != nil {
		task.AssigneeID = u.AssigneeID
	}
	if u.Priority != nil {
		task.Priority = *u.Priority
	}
	if tags, present, _ := parseTags(u.Tags); present {
		task.Tags = models.TagList(tags)
	}
	if u.DueDate != nil && *u.DueDate != "" {
		parsed, _ := ParseDueDate(*u.DueDate)
		task.DueDate = &parsed
	} else if u.ClearDueDate {
		task.DueDate = nil
	}
	if u.EstimatedHours != nil {
		task.EstimatedHours = u.EstimatedHours
	}
	if u.ActualHours != nil {
		task.ActualHours = u.ActualHours
	}

	if u.Status != nil {
		previous := task.Status
		next := *u.Status
		if next == models.TaskStatusCompleted && previous != models.TaskStatusCompleted {
			t := now
			task.CompletedAt = &t
		} else if next != models.TaskStatusCompleted && previous == models.TaskStatusCompleted {
			task.CompletedAt = nil
		}
		task.Status = next
	}

	return nil
}
