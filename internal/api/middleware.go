package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Gopher0727/StreakChat/config"
	"github.com/Gopher0727/StreakChat/internal/pkg/redis"
	"github.com/Gopher0727/StreakChat/middleware/jwt"
	logger "github.com/Gopher0727/StreakChat/middleware/log"
	"github.com/Gopher0727/StreakChat/utils/ratelimit"
)

type MiddlewareManager struct {
	tokenManager *jwt.TokenManager
	rateLimiter  ratelimit.Limiter
	log          *logger.Logger
	rateLimitCfg *config.RateLimitConfig
}

func NewMiddlewareManager(
	tokenManager *jwt.TokenManager,
	redisClient redis.RedisClient,
	log *logger.Logger,
	rateLimitCfg *config.RateLimitConfig,
) *MiddlewareManager {
	rateLimiter := ratelimit.NewTokenBucketLimiter(redisClient.GetClient(), log.Logger, rateLimitCfg.Fallback)

	return &MiddlewareManager{
		tokenManager: tokenManager,
		rateLimiter:  rateLimiter,
		log:          log,
		rateLimitCfg: rateLimitCfg,
	}
}

// JWTAuth validates the Bearer token and stores the claims in the gin context
func (m *MiddlewareManager) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := m.tokenManager.ParseToken(parts[1])
		if err != nil {
			m.log.Warn("token validation failed",
				zap.String("error", err.Error()),
				zap.String("ip", c.ClientIP()),
			)

			var message string
			switch err {
			case jwt.ErrExpiredToken:
				message = "token has expired"
			case jwt.ErrTokenNotYetValid:
				message = "token not yet valid"
			default:
				message = "invalid token"
			}

			c.JSON(http.StatusUnauthorized, gin.H{"error": message})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID())
		c.Set("username", claims.UserName)

		c.Next()
	}
}

// MessageRateLimit throttles message sends per user per minute
func (m *MiddlewareManager) MessageRateLimit() gin.HandlerFunc {
	limit := m.rateLimitCfg.MessagesPerMinute

	return func(c *gin.Context) {
		ctx := context.Background()

		var key string
		if userID, exists := c.Get("user_id"); exists {
			key = fmt.Sprintf("user:%s:message", userID)
		} else {
			key = fmt.Sprintf("ip:%s:message", c.ClientIP())
		}

		allowed, err := m.rateLimiter.Allow(ctx, key, limit, time.Minute)
		if err != nil {
			m.log.Error("rate limit check failed",
				zap.String("error", err.Error()),
				zap.String("key", key),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "rate limit check failed"})
			c.Abort()
			return
		}

		if !allowed {
			remaining, _ := m.rateLimiter.GetRemaining(ctx, key, limit, time.Minute)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": 60,
				"remaining":   remaining,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Logger records each request with latency and status
func (m *MiddlewareManager) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		userID, _ := c.Get("user_id")

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", statusCode),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		}
		if userID != nil {
			fields = append(fields, zap.String("user_id", userID.(string)))
		}

		switch {
		case statusCode >= 500:
			m.log.Error("server error", fields...)
		case statusCode >= 400:
			m.log.Warn("client error", fields...)
		default:
			m.log.Info("request completed", fields...)
		}
	}
}

// Recovery turns panics into 500 responses
func (m *MiddlewareManager) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				m.log.Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)

				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				c.Abort()
			}
		}()

		c.Next()
	}
}
