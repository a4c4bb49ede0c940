package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	logger "github.com/Gopher0727/StreakChat/middleware/log"
	"github.com/Gopher0727/StreakChat/internal/model"
	"github.com/Gopher0727/StreakChat/internal/pkg/redis"
	"github.com/Gopher0727/StreakChat/internal/repository"
	"github.com/Gopher0727/StreakChat/utils/snowflake"
)

var (
	ErrInvalidMessageContent = errors.New("invalid message content")
	ErrUserNotInGroup        = errors.New("user is not a member of this group")
)

// SendMessageRequest represents a request to send a message
type SendMessageRequest struct {
	GroupID  string `json:"group_id" binding:"required"`
	Kind     string `json:"kind" binding:"required,oneof=text photo"`
	Content  string `json:"content" binding:"max=2000"`
	ImageURL string `json:"image_url"`
}

// SendMessageResult carries the stored message plus the outcome of the
// contribution accounting that ran after the message was persisted.
// StreakErr being non-nil never means the message was lost: the message
// is durable first, and the streak self-corrects on the next recompute.
type SendMessageResult struct {
	Message   *model.Message
	StreakErr error
}

// IMessageService defines the interface for message operations
type IMessageService interface {
	SendMessage(ctx context.Context, userID string, req *SendMessageRequest) (*SendMessageResult, error)
	GetMessages(ctx context.Context, groupID string, lastSeqID int64, limit int) ([]*model.Message, bool, error)
}

// MessageService implements the IMessageService interface
type MessageService struct {
	messageRepo   repository.IMessageRepository
	wallRepo      repository.IWallRepository
	userRepo      repository.IUserRepository
	groupService  IGroupService
	streakService IStreakService
	publisher     IEventPublisher
	snowflakeGen  *snowflake.Generator
	redisClient   redis.RedisClient
	log           *logger.Logger
}

// NewMessageService creates a new IMessageService instance
func NewMessageService(
	messageRepo repository.IMessageRepository,
	wallRepo repository.IWallRepository,
	userRepo repository.IUserRepository,
	groupService IGroupService,
	streakService IStreakService,
	publisher IEventPublisher,
	snowflakeGen *snowflake.Generator,
	redisClient redis.RedisClient,
	log *logger.Logger,
) IMessageService {
	return &MessageService{
		messageRepo:   messageRepo,
		wallRepo:      wallRepo,
		userRepo:      userRepo,
		groupService:  groupService,
		streakService: streakService,
		publisher:     publisher,
		snowflakeGen:  snowflakeGen,
		redisClient:   redisClient,
		log:           log,
	}
}

// SendMessage stores a message in a group and records the sender's daily
// contribution.
//
// Ordering matters: the message row is made durable first, then the
// streak engine runs synchronously; the response waits for the recompute.
// A recompute failure is surfaced in the result but does not roll back or
// hide the stored message. The Kafka event publish happens last and is
// fire-and-forget from the caller's perspective.
func (s *MessageService) SendMessage(ctx context.Context, userID string, req *SendMessageRequest) (*SendMessageResult, error) {
	switch req.Kind {
	case model.MessageKindText:
		if req.Content == "" {
			return nil, ErrInvalidMessageContent
		}
	case model.MessageKindPhoto:
		if req.ImageURL == "" {
			return nil, ErrInvalidMessageContent
		}
	default:
		return nil, ErrInvalidMessageContent
	}

	// Membership is validated here, before anything is stored. The streak
	// engine trusts this check and does not repeat it.
	isMember, err := s.groupService.IsMember(ctx, userID, req.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to check group membership: %w", err)
	}
	if !isMember {
		return nil, ErrUserNotInGroup
	}

	snowflakeID, err := s.snowflakeGen.NextID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate snowflake ID: %w", err)
	}
	messageID := strconv.FormatInt(snowflakeID, 10)

	// Per-group monotonic sequence number from Redis
	seqID, err := s.redisClient.GenerateSeqID(ctx, req.GroupID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate seq ID: %w", err)
	}

	message := &model.Message{
		ID:       messageID,
		UserID:   userID,
		GroupID:  req.GroupID,
		Kind:     req.Kind,
		Content:  req.Content,
		ImageURL: req.ImageURL,
		SeqID:    seqID,
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	if req.Kind == model.MessageKindPhoto {
		photo := &model.WallPhoto{
			ID:        uuid.New().String(),
			GroupID:   req.GroupID,
			UserID:    userID,
			MessageID: messageID,
			ImageURL:  req.ImageURL,
		}
		if err := s.wallRepo.CreatePhoto(ctx, photo); err != nil {
			s.log.WithContext(ctx).Warn("failed to mirror photo to wall",
				zap.String("message_id", messageID),
				zap.Error(err),
			)
		}
	}

	result := &SendMessageResult{Message: message}

	// Synchronous contribution accounting; the message above stays stored
	// whatever happens here.
	if err := s.streakService.RecordContribution(ctx, req.GroupID, userID, message.CreatedAt, req.Kind, messageID); err != nil {
		s.log.WithContext(ctx).Error("streak recompute failed after message send",
			zap.String("group_id", req.GroupID),
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		result.StreakErr = err
	}

	if s.publisher != nil {
		event := &MessageEvent{
			MessageID: messageID,
			GroupID:   req.GroupID,
			UserID:    userID,
			Kind:      req.Kind,
			SeqID:     seqID,
			SentAt:    message.CreatedAt,
		}
		if sender, err := s.userRepo.FindByID(ctx, userID); err == nil {
			event.UserName = sender.UserName
		}
		if err := s.publisher.PublishMessageEvent(ctx, event); err != nil {
			s.log.WithContext(ctx).Warn("failed to publish message event",
				zap.String("message_id", messageID),
				zap.Error(err),
			)
		}
	}

	return result, nil
}

// GetMessages retrieves messages for a group with seq-id cursor pagination
func (s *MessageService) GetMessages(ctx context.Context, groupID string, lastSeqID int64, limit int) ([]*model.Message, bool, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	// Fetch one extra to learn whether more pages exist
	messages, err := s.messageRepo.FindByGroup(ctx, groupID, lastSeqID, limit+1)
	if err != nil {
		return nil, false, fmt.Errorf("failed to retrieve messages: %w", err)
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	return messages, hasMore, nil
}
