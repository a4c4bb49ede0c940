package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gopher0727/StreakChat/internal/handler"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(
	r *gin.Engine,
	mw *MiddlewareManager,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	groupHandler *handler.GroupHandler,
	messageHandler *handler.MessageHandler,
	streakHandler *handler.StreakHandler,
	wallHandler *handler.WallHandler,
	notificationHandler *handler.NotificationHandler,
) {
	r.Use(mw.Recovery(), mw.Logger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public routes
	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
		}
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(mw.JWTAuth())
	{
		users := protected.Group("/users")
		{
			users.GET("/me", userHandler.GetProfile)
			users.PUT("/me", userHandler.UpdateProfile)
			users.PUT("/me/push-token", userHandler.RegisterPushToken)
		}

		groups := protected.Group("/groups")
		{
			groups.POST("", groupHandler.CreateGroup)
			groups.POST("/join", groupHandler.JoinGroup)
			groups.GET("", groupHandler.GetUserGroups)
			groups.GET("/:id/members", groupHandler.GetGroupMembers)
			groups.DELETE("/:id/leave", groupHandler.LeaveGroup)
			groups.DELETE("/:id", groupHandler.DeleteGroup)

			groups.GET("/:id/messages", messageHandler.GetMessages)
			groups.GET("/:id/streak", streakHandler.GetStreak)
			groups.GET("/:id/wall", wallHandler.GetWall)
			groups.GET("/:id/notifications", notificationHandler.GetNotifications)
		}

		messages := protected.Group("/messages")
		messages.Use(mw.MessageRateLimit())
		{
			messages.POST("", messageHandler.SendMessage)
		}

		wall := protected.Group("/wall")
		{
			wall.POST("/likes", wallHandler.ToggleLike)
		}
	}
}
