package api

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/claro-app/claro-server/internal/access"
	"github.com/claro-app/claro-server/internal/apperr"
	"github.com/claro-app/claro-server/internal/database"
	"github.com/claro-app/claro-server/internal/models"
	"github.com/claro-app/claro-server/internal/realtime"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultProjectColor = "#3B82F6"

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type ProjectHandler struct {
	db          *database.Database
	guard       *access.Guard
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

func NewProjectHandler(db *database.Database, guard *access.Guard, broadcaster realtime.Broadcaster, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{db: db, guard: guard, broadcaster: broadcaster, logger: logger}
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	IsPublic    bool   `json:"is_public"`
}

type UpdateProjectRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Color       *string               `json:"color"`
	IsPublic    *bool                 `json:"is_public"`
	Status      *models.ProjectStatus `json:"status"`
}

func validateProjectCreate(req CreateProjectRequest) error {
	ve := &apperr.ValidationError{}
	if len(req.Name) < 1 || len(req.Name) > 100 {
		ve.Add("name", "project name is required and must be at most 100 characters")
	}
	if len(req.Description) > 500 {
		ve.Add("description", "description must be at most 500 characters")
	}
	if req.Color != "" && !hexColorPattern.MatchString(req.Color) {
		ve.Add("color", "color must be a valid hex color")
	}
	return ve.Err()
}

func validateProjectUpdate(req UpdateProjectRequest) error {
	ve := &apperr.ValidationError{}
	if req.Name != nil && (len(*req.Name) < 1 || len(*req.Name) > 100) {
		ve.Add("name", "project name must be between 1 and 100 characters")
	}
	if req.Description != nil && len(*req.Description) > 500 {
		ve.Add("description", "description must be at most 500 characters")
	}
	if req.Color != nil && !hexColorPattern.MatchString(*req.Color) {
		ve.Add("color", "color must be a valid hex color")
	}
	if req.Status != nil && !req.Status.Valid() {
		ve.Add("status", "invalid status")
	}
	return ve.Err()
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.db.ListProjectsForUser(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", gin.H{"projects": projects})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID := currentUserID(c)
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, apperr.ErrNotFound)
		return
	}

	if err := h.guard.RequireView(userID, projectID); err != nil {
		respondError(c, err)
		return
	}

	project, err := h.db.GetProject(projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "", gin.H{"project": project})
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID := currentUserID(c)

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := validateProjectCreate(req); err != nil {
		respondError(c, err)
		return
	}

	color := req.Color
	if color == "" {
		color = defaultProjectColor
	}

	project := &models.Project{
		Name:        req.Name,
		Description: req.Description,
		Color:       color,
		IsPublic:    req.IsPublic,
		Status:      models.ProjectStatusActive,
		OwnerID:     userID,
	}

	if err := h.db.CreateProject(project); err != nil {
		respondError(c, err)
		return
	}

	created, err := h.db.GetProject(project.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, "Project created successfully", gin.H{"project": created})
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID := currentUserID(c)
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, apperr.ErrNotFound)
		return
	}

	// Project mutation is owner-exclusive; a project-scoped ADMIN member
	// does not qualify.
	if err := h.guard.RequireOwner(userID, projectID); err != nil {
		respondError(c, err)
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if err := validateProjectUpdate(req); err != nil {
		respondError(c, err)
		return
	}

	project, err := h.db.GetProject(projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Color != nil {
		project.Color = *req.Color
	}
	if req.IsPublic != nil {
		project.IsPublic = *req.IsPublic
	}
	if req.Status != nil {
		project.Status = *req.Status
	}

	if err := h.db.UpdateProject(project); err != nil {
		respondError(c, err)
		return
	}

	h.broadcaster.Broadcast(realtime.Event{
		Name:      realtime.EventProjectUpdated,
		ProjectID: project.ID,
		ActorID:   userID,
		Payload:   gin.H{"project_id": project.ID, "updates": req},
	})

	respondData(c, http.StatusOK, "Project updated successfully", gin.H{"project": project})
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID := currentUserID(c)
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, apperr.ErrNotFound)
		return
	}

	if err := h.guard.RequireOwner(userID, projectID); err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.DeleteProject(projectID); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Project deleted successfully", nil)
}

type AddMemberRequest struct {
	Email string            `json:"email" binding:"required,email"`
	Role  models.MemberRole `json:"role" binding:"required"`
}

func (h *ProjectHandler) AddMember(c *gin.Context) {
	userID := currentUserID(c)
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, apperr.ErrNotFound)
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if !req.Role.Valid() {
		ve := &apperr.ValidationError{}
		ve.Add("role", "role must be one of USER, ADMIN, MODERATOR")
		respondError(c, ve)
		return
	}

	member, err := h.guard.AddMember(userID, projectID, req.Email, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	// The invite already succeeded; a failed notification write is logged,
	// not surfaced.
	project, err := h.db.GetProject(projectID)
	if err == nil {
		notification := &models.Notification{
			UserID:    member.UserID,
			Type:      models.NotificationMemberAdded,
			Message:   fmt.Sprintf("You were added to project %q", project.Name),
			ProjectID: &projectID,
		}
		if err := h.db.CreateNotification(notification); err != nil {
			h.logger.Warn("notification write failed",
				zap.Uint("user_id", member.UserID), zap.Error(err))
		}
	} else {
		h.logger.Warn("project reload for notification failed",
			zap.Uint("project_id", projectID), zap.Error(err))
	}

	respondData(c, http.StatusCreated, "Member added successfully", gin.H{"member": member})
}

func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	userID := currentUserID(c)
	projectID, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, apperr.ErrNotFound)
		return
	}

	memberID, err := parseIDParam(c, "userId")
	if err != nil {
		respondError(c, apperr.ErrNotFound)
		return
	}

	if err := h.guard.RemoveMember(userID, projectID, memberID); err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, "Member removed successfully", nil)
}

func parseIDParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
