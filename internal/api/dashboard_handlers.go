package api

import (
	"net/http"
	"time"

	"github.com/claro-app/claro-server/internal/database"
	"github.com/claro-app/claro-server/internal/lifecycle"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	db *database.Database
}

func NewDashboardHandler(db *database.Database) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// Stats summarizes everything the caller can see: project count plus the
// aggregate over all visible tasks.
func (h *DashboardHandler) Stats(c *gin.Context) {
	userID := currentUserID(c)

	projects, err := h.db.ListProjectsForUser(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	tasks, err := h.db.ListTasks(userID, database.TaskFilter{})
	if err != nil {
		respondError(c, err)
		return
	}

	stats := lifecycle.ComputeStats(tasks, time.Now())

	respondData(c, http.StatusOK, "", gin.H{
		"projects": len(projects),
		"tasks":    stats,
	})
}
