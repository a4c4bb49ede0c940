package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Gopher0727/StreakChat/config"
	"github.com/Gopher0727/StreakChat/internal/pkg/kafka"
)

// MessageEvent is published after a message send completes. The
// notification consumer fans it out to group members asynchronously;
// nothing in the send path waits for delivery.
type MessageEvent struct {
	MessageID string    `json:"message_id"`
	GroupID   string    `json:"group_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Kind      string    `json:"kind"`
	SeqID     int64     `json:"seq_id"`
	SentAt    time.Time `json:"sent_at"`
}

// IEventPublisher defines the interface for publishing message events
type IEventPublisher interface {
	PublishMessageEvent(ctx context.Context, event *MessageEvent) error
}

// KafkaEventPublisher implements IEventPublisher on top of the Kafka producer
type KafkaEventPublisher struct {
	producer *kafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates a new IEventPublisher instance
func NewKafkaEventPublisher(producer *kafka.Producer, cfg *config.KafkaConfig) IEventPublisher {
	return &KafkaEventPublisher{
		producer: producer,
		topic:    cfg.Topics.MessageEvents,
	}
}

// PublishMessageEvent publishes the event keyed by group ID so that all
// events for a group land on the same partition, preserving order.
func (p *KafkaEventPublisher) PublishMessageEvent(ctx context.Context, event *MessageEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message event: %w", err)
	}

	_, _, err = p.producer.Produce(ctx, p.topic, []byte(event.GroupID), value)
	if err != nil {
		return fmt.Errorf("failed to publish message event: %w", err)
	}
	return nil
}
