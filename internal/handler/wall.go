package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StreakChat/internal/service"
)

type WallHandler struct {
	wallService  service.IWallService
	groupService service.IGroupService
}

func NewWallHandler(wallService service.IWallService, groupService service.IGroupService) *WallHandler {
	return &WallHandler{
		wallService:  wallService,
		groupService: groupService,
	}
}

// GetWall retrieves the photo wall for a group
func (h *WallHandler) GetWall(c *gin.Context) {
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

	photos, err := h.wallService.GetWall(c.Request.Context(), groupID)
	if err != nil {
		if err == service.ErrGroupNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve wall"})
		return
	}

	c.JSON(http.StatusOK, photos)
}

// ToggleLike likes or unlikes a wall photo for the authenticated user
func (h *WallHandler) ToggleLike(c *gin.Context) {
	var req struct {
		PhotoID string `json:"photo_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	liked, err := h.wallService.ToggleLike(c.Request.Context(), userID, req.PhotoID)
	if err != nil {
		if err == service.ErrWallPhotoNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle like"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}
