package api

import (
	"net/http"

	"github.com/claro-app/claro-server/internal/apperr"
	"github.com/claro-app/claro-server/internal/database"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	db *database.Database
}

func NewNotificationHandler(db *database.Database) *NotificationHandler {
	return &NotificationHandler{db: db}
}

func (h *NotificationHandler) List(c *gin.Context) {
	notifications, err := h.db.ListNotifications(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", gin.H{"notifications": notifications})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		respondError(c, apperr.ErrNotFound)
		return
	}

	if err := h.db.MarkNotificationRead(currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.db.MarkAllNotificationsRead(currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "All notifications marked as read", nil)
}
