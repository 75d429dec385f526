package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"tutorlink/internal/models"
	"tutorlink/internal/services"
	"tutorlink/internal/utils"
)

type NotificationHandler struct {
	db  *gorm.DB
	svc *services.NotificationService
}

func NewNotificationHandler(database *gorm.DB, svc *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{db: database, svc: svc}
}

// List handles GET /api/notifications?limit=n
func (h *NotificationHandler) List(c *gin.Context) {
	user := CurrentUser(c)
	limit := utils.StringToInt(c.Query("limit"))

	notifications, err := h.svc.ListAll(c.Request.Context(), user.ID, limit)
	if err != nil {
		FailErr(c, "listing notifications", err)
		return
	}
	OK(c, gin.H{"notifications": notifications})
}

// ListUnread handles GET /api/notifications/unread?limit=n
func (h *NotificationHandler) ListUnread(c *gin.Context) {
	user := CurrentUser(c)
	limit := utils.StringToInt(c.Query("limit"))

	notifications, err := h.svc.ListUnread(c.Request.Context(), user.ID, limit)
	if err != nil {
		FailErr(c, "listing unread notifications", err)
		return
	}
	OK(c, gin.H{"notifications": notifications})
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user := CurrentUser(c)

	count, err := h.svc.UnreadCount(c.Request.Context(), user.ID)
	if err != nil {
		FailErr(c, "counting unread notifications", err)
		return
	}
	OK(c, gin.H{"count": count})
}

// MarkRead handles PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if !h.owns(c) {
		return
	}

	id := utils.StringToUint(c.Param("id"))
	if err := h.svc.MarkRead(c.Request.Context(), id); err != nil {
		FailErr(c, "marking notification read", err)
		return
	}
	OK(c, nil)
}

// MarkAllRead handles PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user := CurrentUser(c)

	updated, err := h.svc.MarkAllRead(c.Request.Context(), user.ID)
	if err != nil {
		FailErr(c, "marking all notifications read", err)
		return
	}
	OK(c, gin.H{"updated": updated})
}

// Delete handles DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	if !h.owns(c) {
		return
	}

	id := utils.StringToUint(c.Param("id"))
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		FailErr(c, "deleting notification", err)
		return
	}
	OK(c, nil)
}

// owns verifies the notification exists and belongs to the caller (admins
// may touch any). Writes the 404 itself on failure.
func (h *NotificationHandler) owns(c *gin.Context) bool {
	user := CurrentUser(c)
	id := utils.StringToUint(c.Param("id"))

	var n models.Notification
	if err := h.db.First(&n, id).Error; err != nil {
		Fail(c, http.StatusNotFound, "not found")
		return false
	}
	if n.UserID != user.ID && !user.IsAdmin() {
		Fail(c, http.StatusNotFound, "not found")
		return false
	}
	return true
}
