package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StreakChat/internal/service"
)

type StreakHandler struct {
	streakService service.IStreakService
	groupService  service.IGroupService
}

func NewStreakHandler(streakService service.IStreakService, groupService service.IGroupService) *StreakHandler {
	return &StreakHandler{
		streakService: streakService,
		groupService:  groupService,
	}
}

// GetStreak returns the group's streak counters together with today's
// contribution progress, which is what the group header screen renders.
func (h *StreakHandler) GetStreak(c *gin.Context) {
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

	streak, err := h.streakService.GetStreak(c.Request.Context(), groupID)
	if err != nil {
		if err == service.ErrGroupNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve streak"})
		return
	}

	progress, err := h.streakService.GetTodayProgress(c.Request.Context(), groupID)
	if err != nil {
		if err == service.ErrGroupNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve today progress"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"streak":         streak,
		"today_progress": progress,
	})
}
