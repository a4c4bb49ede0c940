package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StreakChat/internal/service"
)

type NotificationHandler struct {
	notificationService service.INotificationService
	groupService        service.IGroupService
}

func NewNotificationHandler(notificationService service.INotificationService, groupService service.IGroupService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		groupService:        groupService,
	}
}

// GetNotifications retrieves the notification history for a group
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	groupID := c.Param("id")
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Group ID is required"})
		return
	}

	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	isMember, err := h.groupService.IsMember(c.Request.Context(), userID, groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	notifications, err := h.notificationService.GetNotifications(c.Request.Context(), groupID)
	if err != nil {
		if err == service.ErrGroupNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}
