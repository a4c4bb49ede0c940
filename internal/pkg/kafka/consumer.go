package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/Gopher0727/StreakChat/config"
)

// MessageHandler processes one consumed message, returning an error to trigger retries
type MessageHandler func(ctx context.Context, message *sarama.ConsumerMessage) error

// Consumer wraps a sarama consumer group with retry and dead letter handling
type Consumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *config.KafkaConfig
	handler       MessageHandler
	dlqProducer   *Producer
	logger        *zap.Logger
	topics        []string
	ready         chan bool
	wg            sync.WaitGroup
	cancel        context.CancelFunc
}

type consumerGroupHandler struct {
	consumer *Consumer
}

// NewConsumer creates a consumer group member subscribed to the given topics.
// Messages the handler keeps failing on are forwarded to the DLQ topic.
func NewConsumer(cfg *config.KafkaConfig, topics []string, handler MessageHandler, logger *zap.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_6_0_0
	saramaConfig.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	saramaConfig.Net.DialTimeout = 10 * time.Second
	saramaConfig.Net.ReadTimeout = 10 * time.Second
	saramaConfig.Net.WriteTimeout = 10 * time.Second
	saramaConfig.Metadata.Retry.Max = 3
	saramaConfig.Metadata.Retry.Backoff = 250 * time.Millisecond
	saramaConfig.Metadata.Timeout = 10 * time.Second

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer group: %w", err)
	}

	dlqProducer, err := NewProducer(cfg)
	if err != nil {
		consumerGroup.Close()
		return nil, fmt.Errorf("failed to create DLQ producer: %w", err)
	}

	return &Consumer{
		consumerGroup: consumerGroup,
		config:        cfg,
		handler:       handler,
		dlqProducer:   dlqProducer,
		logger:        logger,
		topics:        topics,
		ready:         make(chan bool),
	}, nil
}

// Start begins consuming in a background goroutine and blocks until the
// first session is established
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		handler := &consumerGroupHandler{consumer: c}
		for {
			if ctx.Err() != nil {
				return
			}

			if err := c.consumerGroup.Consume(ctx, c.topics, handler); err != nil {
				c.logger.Error("consumer session ended with error", zap.Error(err))
			}

			if ctx.Err() != nil {
				return
			}

			c.ready = make(chan bool)
		}
	}()

	<-c.ready
	return nil
}

// Stop cancels consumption and waits for the consumer goroutine to exit
func (c *Consumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()

	if err := c.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer group: %w", err)
	}
	if err := c.dlqProducer.Close(); err != nil {
		return fmt.Errorf("failed to close DLQ producer: %w", err)
	}
	return nil
}

// Ready returns a channel closed once the consumer has joined the group
func (c *Consumer) Ready() <-chan bool {
	return c.ready
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.consumer.ready)
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim processes messages from one partition with retry and DLQ handling
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			if err := h.processMessageWithRetry(session.Context(), message); err != nil {
				if dlqErr := h.sendToDLQ(session.Context(), message, err); dlqErr != nil {
					h.consumer.logger.Error("failed to send message to DLQ",
						zap.String("topic", message.Topic),
						zap.Int64("offset", message.Offset),
						zap.Error(dlqErr),
					)
				}
			}

			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) processMessageWithRetry(ctx context.Context, message *sarama.ConsumerMessage) error {
	maxRetries := h.consumer.config.Consumer.MaxRetries
	backoff := time.Duration(h.consumer.config.Consumer.RetryBackoffMs) * time.Millisecond

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := h.consumer.handler(ctx, message)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < maxRetries {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

func (h *consumerGroupHandler) sendToDLQ(ctx context.Context, message *sarama.ConsumerMessage, processingErr error) error {
	dlqTopic := h.consumer.config.Topics.DLQ

	_, _, err := h.consumer.dlqProducer.Produce(ctx, dlqTopic, message.Key, message.Value)
	if err != nil {
		return fmt.Errorf("failed to send message to DLQ: %w", err)
	}

	h.consumer.logger.Warn("message sent to DLQ",
		zap.String("topic", message.Topic),
		zap.Int32("partition", message.Partition),
		zap.Int64("offset", message.Offset),
		zap.Error(processingErr),
	)
	return nil
}
