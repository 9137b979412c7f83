package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"prepnotify/internal/config"
	"prepnotify/internal/queue"
)

// ErrPublisherDisabled is returned when no broker is configured.
var ErrPublisherDisabled = errors.New("rabbitmq publisher disabled")

type noopPublisher struct {
	logger *zap.Logger
}

func (n *noopPublisher) Publish(_ context.Context, msg queue.DispatchMessage) error {
	n.logger.Warn("rabbitmq not configured, dropping dispatch message", zap.String("target", msg.Target))
	return ErrPublisherDisabled
}

type Publisher struct {
	url      string
	logger   *zap.Logger
	exchange string
	prefix   string
}

func NewPublisher(cfg *config.Config, logger *zap.Logger) queue.Publisher {
	if cfg.RabbitMQURL == "" {
		return &noopPublisher{logger: logger}
	}
	return &Publisher{url: cfg.RabbitMQURL, logger: logger, exchange: cfg.RabbitExchange, prefix: cfg.RabbitPublishPrefix}
}

func (p *Publisher) Publish(ctx context.Context, msg queue.DispatchMessage) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rabbitmq encode: %w", err)
	}
	routingKey := msg.RoutingKey(p.prefix)

	ctx, span := otel.Tracer("rabbitmq").Start(ctx, "rabbitmq.publish",
		trace.WithAttributes(messagingAttributes(p.exchange, routingKey)...))
	defer span.End()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fail(span, fmt.Errorf("rabbitmq dial: %w", err), "dial failed")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fail(span, fmt.Errorf("rabbitmq channel: %w", err), "channel failed")
	}
	defer func() { _ = ch.Close() }()

	if err := declareExchange(ch, p.exchange); err != nil {
		return fail(span, err, "exchange declare failed")
	}

	messageID := uuid.NewString()
	span.SetAttributes(attribute.String("messaging.message_id", messageID))
	err = ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Headers:      traceHeaders(ctx),
		Body:         body,
	})
	if err != nil {
		p.logger.Error("rabbitmq publish failed", zap.String("routing_key", routingKey), zap.Error(err))
		return fail(span, fmt.Errorf("rabbitmq publish: %w", err), "publish failed")
	}

	p.logger.Debug("rabbitmq dispatch published",
		zap.String("message_id", messageID),
		zap.String("routing_key", routingKey),
		zap.String("target", msg.Target),
	)
	return nil
}
