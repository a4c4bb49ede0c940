package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StreakChat/internal/service"
)

type MessageHandler struct {
	messageService service.IMessageService
	groupService   service.IGroupService
}

func NewMessageHandler(messageService service.IMessageService, groupService service.IGroupService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		groupService:   groupService,
	}
}

// SendMessage handles sending a message to a group
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req service.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.messageService.SendMessage(c.Request.Context(), userID, &req)
	if err != nil {
		switch err {
		case service.ErrUserNotInGroup:
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case service.ErrInvalidMessageContent:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		}
		return
	}

	resp := gin.H{"message": result.Message}
	if result.StreakErr != nil {
		// The message is stored; only the streak accounting failed.
		resp["streak_error"] = result.StreakErr.Error()
	}

	c.JSON(http.StatusCreated, resp)
}

// GetMessages retrieves messages for a group with seq-id cursor pagination
func (h *MessageHandler) GetMessages(c *gin.Context) {
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

	afterSeqID, _ := strconv.ParseInt(c.DefaultQuery("after_seq_id", "0"), 10, 64)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	messages, hasMore, err := h.messageService.GetMessages(c.Request.Context(), groupID, afterSeqID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"has_more": hasMore,
	})
}
