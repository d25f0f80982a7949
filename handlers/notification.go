package handlers

import (
	"net/http"
	"strconv"

	"bloodsync/services/notification"
	"bloodsync/utils"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	Notifications notification.NotificationService
	Hub           *notification.Hub
}

func NewNotificationHandler(svc notification.NotificationService, hub *notification.Hub) *NotificationHandler {
	return &NotificationHandler{Notifications: svc, Hub: hub}
}

// ListNotificationsHandler handles GET /api/notifications?unread=true&limit=.
func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	unreadOnly := c.Query("unread") == "true"
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			utils.JSONError(c, http.StatusBadRequest, utils.CodeValidation, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	list, err := h.Notifications.List(c.Request.Context(), caller.UserID, unreadOnly, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UnreadCountHandler handles GET /api/notifications/unread-count.
func (h *NotificationHandler) UnreadCountHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	count, err := h.Notifications.UnreadCount(c.Request.Context(), caller.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkReadHandler handles POST /api/notifications/:id/read.
func (h *NotificationHandler) MarkReadHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	changed, err := h.Notifications.MarkRead(c.Request.Context(), caller.UserID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "changed": changed})
}

// MarkAllReadHandler handles POST /api/notifications/read-all.
func (h *NotificationHandler) MarkAllReadHandler(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	changed, err := h.Notifications.MarkAllRead(c.Request.Context(), caller.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}
