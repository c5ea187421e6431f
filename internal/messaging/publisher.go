// Package messaging publishes lifecycle events to RabbitMQ.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chatform-server/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// PublishEventPublisher notifies downstream consumers that a conversation
// went live (indexers, webhooks, analytics).
type PublishEventPublisher interface {
	PublishConversationPublished(ctx context.Context, payload models.ConversationPublishedEvent) error
}

type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewRabbitMQPublishEventPublisher opens a channel on the given connection
// and declares the publish-events queue. Queue parameters must match the
// consumer's declaration.
func NewRabbitMQPublishEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (PublishEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("publish event publisher: failed to open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("publish event publisher: failed to declare queue %q: %w", queueName, err)
	}
	log := logger.Named("PublishEventPublisher")
	log.Info("Queue declared", zap.String("queue", queueName))
	return &rabbitMQPublisher{channel: ch, queueName: queueName, logger: log}, nil
}

func (p *rabbitMQPublisher) PublishConversationPublished(ctx context.Context, payload models.ConversationPublishedEvent) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal publish event for %s: %w", payload.ID, err)
	}
	if err := p.publishMessage(ctx, body); err != nil {
		p.logger.Error("Failed to publish conversation published event",
			zap.String("conversationID", payload.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to publish event for %s: %w", payload.ID, err)
	}
	p.logger.Debug("Published conversation published event",
		zap.String("conversationID", payload.ID.String()),
		zap.String("slug", payload.Slug),
		zap.Int("version", payload.Version))
	return nil
}

func (p *rabbitMQPublisher) publishMessage(ctx context.Context, body []byte) error {
	if p.channel == nil {
		return errors.New("rabbitmq channel is not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange (default)
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        "chatform-server",
			},
		)
		if err == nil {
			return nil
		}
		p.logger.Warn("Publish attempt failed",
			zap.Int("attempt", attempt), zap.String("queue", p.queueName), zap.Error(err))
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return fmt.Errorf("failed to publish to queue %s after retries: %w", p.queueName, err)
}
