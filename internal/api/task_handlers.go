package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/claro-app/claro-server/internal/access"
	"github.com/claro-app/claro-server/internal/apperr"
	"github.com/claro-app/claro-server/internal/database"
	"github.com/claro-app/claro-server/internal/lifecycle"
	"github.com/claro-app/claro-server/internal/models"
	"github.com/claro-app/claro-server/internal/realtime"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TaskHandler struct {
	db          *database.Database
	guard       *access.Guard
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

func NewTaskHandler(db *database.Database, guard *access.Guard, broadcaster realtime.Broadcaster, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{db: db, guard: guard, broadcaster: broadcaster, logger: logger}
}

// taskFilterFromQuery builds the listing filter from query parameters.
// Unknown values are rejected rather than silently ignored.
func taskFilterFromQuery(c *gin.Context) (database.TaskFilter, error) {
	var filter database.TaskFilter
	ve := &apperr.ValidationError{}

	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			ve.Add("project_id", "project_id must be a number")
		} else {
			v := uint(id)
			filter.ProjectID = &v
		}
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TaskStatus(raw)
		if !status.Valid() {
			ve.Add("status", "invalid status")
		} else {
			filter.Status = &status
		}
	}
	if raw := c.Query("priority"); raw != "" {
		priority := models.TaskPriority(raw)
		if !priority.Valid() {
			ve.Add("priority", "invalid priority")
		} else {
			filter.Priority = &priority
		}
	}
	if raw := c.Query("assignee_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			ve.Add("assignee_id", "assignee_id must be a number")
		} else {
			v := uint(id)
			filter.AssigneeID = &v
		}
	}

	return filter, ve.Err()
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID := currentUserID(c)

	filter, err := taskFilterFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	// A project_id filter for an inaccessible project must behave like a
	// missing project, not an empty list.
	if filter.ProjectID != nil {
		if err := h.guard.RequireView(userID, *filter.ProjectID); err != nil {
			respondError(c, err)
			return
		}
	}

	tasks, err := h.db.ListTasks(userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "", gin.H{"tasks": tasks})
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	userID := currentUserID(c)
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, apperr.ErrNotFound)
		return
	}

	task, err := h.db.GetTask(taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.guard.RequireView(userID, task.ProjectID); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "", gin.H{"task": task})
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID := currentUserID(c)

	var req lifecycle.TaskCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := h.guard.RequireView(userID, req.ProjectID); err != nil {
		respondError(c, err)
		return
	}

	task, err := lifecycle.NewTask(req, userID, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.CreateTask(task); err != nil {
		respondError(c, err)
		return
	}

	created, err := h.db.GetTask(task.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifyAssignment(created, nil, userID)

	h.broadcaster.Broadcast(realtime.Event{
		Name:      realtime.EventTaskUpdated,
		ProjectID: created.ProjectID,
		ActorID:   userID,
		Payload:   gin.H{"task": created, "action": "created"},
	})

	respondData(c, http.StatusCreated, "Task created successfully", gin.H{"task": created})
}

func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID := currentUserID(c)
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, apperr.ErrNotFound)
		return
	}

	task, err := h.db.GetTask(taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.guard.RequireView(userID, task.ProjectID); err != nil {
		respondError(c, err)
		return
	}

	var req lifecycle.TaskUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	previousAssignee := task.AssigneeID

	if err := lifecycle.Apply(task, req, time.Now()); err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.UpdateTask(task); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.db.GetTask(task.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifyAssignment(updated, previousAssignee, userID)

	h.broadcaster.Broadcast(realtime.Event{
		Name:      realtime.EventTaskUpdated,
		ProjectID: updated.ProjectID,
		ActorID:   userID,
		Payload:   gin.H{"task": updated, "action": "updated"},
	})

	respondData(c, http.StatusOK, "Task updated successfully", gin.H{"task": updated})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID := currentUserID(c)
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, apperr.ErrNotFound)
		return
	}

	task, err := h.db.GetTask(taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.guard.RequireView(userID, task.ProjectID); err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.DeleteTask(taskID); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Task deleted successfully", nil)
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

func (h *TaskHandler) AddComment(c *gin.Context) {
	userID := currentUserID(c)
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, apperr.ErrNotFound)
		return
	}

	task, err := h.db.GetTask(taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.guard.RequireView(userID, task.ProjectID); err != nil {
		respondError(c, err)
		return
	}

	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if len(req.Content) < 1 || len(req.Content) > 1000 {
		ve := &apperr.ValidationError{}
		ve.Add("content", "comment content is required and must be at most 1000 characters")
		respondError(c, ve)
		return
	}

	comment := &models.Comment{
		Content: req.Content,
		TaskID:  taskID,
		UserID:  userID,
	}
	if err := h.db.AddComment(comment); err != nil {
		respondError(c, err)
		return
	}

	// The task creator hears about new comments unless they wrote one on
	// their own task.
	if task.CreatorID != userID {
		n := &models.Notification{
			UserID:    task.CreatorID,
			Type:      models.NotificationCommentAdded,
			Message:   fmt.Sprintf("New comment on task %q", task.Title),
			ProjectID: &task.ProjectID,
			TaskID:    &task.ID,
		}
		if err := h.db.CreateNotification(n); err != nil {
			h.logger.Warn("notification write failed",
				zap.Uint("user_id", task.CreatorID), zap.Error(err))
		}
	}

	h.broadcaster.Broadcast(realtime.Event{
		Name:      realtime.EventCommentAdded,
		ProjectID: task.ProjectID,
		ActorID:   userID,
		Payload:   gin.H{"task_id": taskID, "comment": comment},
	})

	respondData(c, http.StatusCreated, "Comment added successfully", gin.H{"comment": comment})
}

func (h *TaskHandler) ListTaskComments(c *gin.Context) {
	userID := currentUserID(c)
	taskID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, apperr.ErrNotFound)
		return
	}

	task, err := h.db.GetTask(taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.guard.RequireView(userID, task.ProjectID); err != nil {
		respondError(c, err)
		return
	}

	comments, err := h.db.ListComments(taskID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "", gin.H{"comments": comments})
}

// StatsOverview aggregates the caller's whole visible task set, optionally
// narrowed to one project.
func (h *TaskHandler) StatsOverview(c *gin.Context) {
	userID := currentUserID(c)

	var filter database.TaskFilter
	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			ve := &apperr.ValidationError{}
			ve.Add("project_id", "project_id must be a number")
			respondError(c, ve)
			return
		}
		v := uint(id)
		filter.ProjectID = &v
		if err := h.guard.RequireView(userID, v); err != nil {
			respondError(c, err)
			return
		}
	}

	tasks, err := h.db.ListTasks(userID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	stats := lifecycle.ComputeStats(tasks, time.Now())
	respondData(c, http.StatusOK, "", gin.H{"stats": stats})
}

// notifyAssignment writes a TASK_ASSIGNED notification when the assignee
// changed to someone other than the actor.
func (h *TaskHandler) notifyAssignment(task *models.Task, previous *uint, actorID uint) {
	if task.AssigneeID == nil || *task.AssigneeID == actorID {
		return
	}
	if previous != nil && *previous == *task.AssigneeID {
		return
	}
	n := &models.Notification{
		UserID:    *task.AssigneeID,
		Type:      models.NotificationTaskAssigned,
		Message:   fmt.Sprintf("You were assigned to task %q", task.Title),
		ProjectID: &task.ProjectID,
		TaskID:    &task.ID,
	}
	if err := h.db.CreateNotification(n); err != nil {
		h.logger.Warn("notification write failed",
			zap.Uint("user_id", *task.AssigneeID), zap.Error(err))
	}
}
