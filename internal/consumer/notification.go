package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gopher0727/StreakChat/internal/model"
	"github.com/Gopher0727/StreakChat/internal/repository"
	"github.com/Gopher0727/StreakChat/internal/service"
	logger "github.com/Gopher0727/StreakChat/middleware/log"
	"github.com/Gopher0727/StreakChat/utils/workerpool"
)

// NotificationConsumer turns message events into notification rows and
// push deliveries for the sender's group
type NotificationConsumer struct {
	notificationRepo repository.INotificationRepository
	groupRepo        repository.IGroupRepository
	pushPool         *workerpool.Pool
	log              *logger.Logger
}

func NewNotificationConsumer(
	notificationRepo repository.INotificationRepository,
	groupRepo repository.IGroupRepository,
	pushPool *workerpool.Pool,
	log *logger.Logger,
) *NotificationConsumer {
	return &NotificationConsumer{
		notificationRepo: notificationRepo,
		groupRepo:        groupRepo,
		pushPool:         pushPool,
		log:              log,
	}
}

// Handle processes one message event. Returning an error makes the Kafka
// consumer retry and eventually route the event to the DLQ.
func (c *NotificationConsumer) Handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event service.MessageEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		// A payload that never parses would loop through retries for nothing
		c.log.Error("dropping undecodable message event",
			zap.String("topic", message.Topic),
			zap.Int64("offset", message.Offset),
			zap.Error(err),
		)
		return nil
	}

	title, body := c.renderNotification(&event)

	payload, err := json.Marshal(&event)
	if err != nil {
		return fmt.Errorf("failed to marshal notification payload: %w", err)
	}

	notification := &model.Notification{
		ID:      uuid.New().String(),
		GroupID: event.GroupID,
		Title:   title,
		Body:    body,
		Payload: string(payload),
	}
	if err := c.notificationRepo.Create(ctx, notification); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	c.pushToMembers(ctx, &event, title, body)
	return nil
}

func (c *NotificationConsumer) renderNotification(event *service.MessageEvent) (title, body string) {
	switch event.Kind {
	case model.MessageKindPhoto:
		title = "New photo"
		body = fmt.Sprintf("%s shared a photo", event.UserName)
	default:
		title = "New message"
		body = fmt.Sprintf("%s sent a message", event.UserName)
	}
	return title, body
}

// pushToMembers delivers the notification to every member except the
// sender. Delivery goes through the platform push gateway; failures are
// logged and never retried, the stored row is the source of truth.
func (c *NotificationConsumer) pushToMembers(ctx context.Context, event *service.MessageEvent, title, body string) {
	members, err := c.groupRepo.GetGroupMembers(ctx, event.GroupID)
	if err != nil {
		c.log.Warn("failed to load members for push delivery",
			zap.String("group_id", event.GroupID),
			zap.Error(err),
		)
		return
	}

	// Fan out through the pool so one busy group cannot monopolize the
	// consumer goroutine
	for _, member := range members {
		if member.ID == event.UserID || member.PushToken == "" {
			continue
		}
		userID := member.ID
		c.pushPool.Submit(func() {
			c.log.Info("push notification dispatched",
				zap.String("group_id", event.GroupID),
				zap.String("user_id", userID),
				zap.String("title", title),
				zap.String("body", body),
			)
		})
	}
}
