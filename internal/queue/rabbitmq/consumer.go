package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"prepnotify/internal/config"
	"prepnotify/internal/domain"
	"prepnotify/internal/metrics"
	"prepnotify/internal/model"
	"prepnotify/internal/queue"
	"prepnotify/internal/service/notify"
)

// Dispatcher is the subset of the notification service a consumer drives.
type Dispatcher interface {
	SendToUser(ctx context.Context, userID int64, payload notify.Payload) (model.Notification, error)
	SendToAllUsers(ctx context.Context, payload notify.Payload) ([]model.Notification, error)
	SendToUsersByRole(ctx context.Context, role string, payload notify.Payload) ([]model.Notification, error)
}

type noopConsumer struct{}

func (n *noopConsumer) Start(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

type Consumer struct {
	url         string
	svc         Dispatcher
	logger      *zap.Logger
	exchange    string
	queue       string
	routingKey  string
	consumerTag string
	prefetch    int
}

func NewConsumer(cfg *config.Config, svc Dispatcher, logger *zap.Logger) queue.Consumer {
	if cfg.RabbitMQURL == "" {
		return &noopConsumer{}
	}
	prefetch := cfg.RabbitPrefetch
	if prefetch <= 0 {
		prefetch = 10
	}
	return &Consumer{
		url:         cfg.RabbitMQURL,
		svc:         svc,
		logger:      logger,
		exchange:    cfg.RabbitExchange,
		queue:       cfg.RabbitQueue,
		routingKey:  cfg.RabbitRoutingKey,
		consumerTag: cfg.RabbitConsumerTag,
		prefetch:    prefetch,
	}
}

// Start consumes until ctx is done. A lost connection or closed delivery channel
// is logged and retried with exponential backoff.
func (r *Consumer) Start(ctx context.Context) error {
	backoff := minBackoff
	for {
		consumed, err := r.consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if consumed {
			backoff = minBackoff
		}
		r.logger.Warn("rabbitmq consumer interrupted, reconnecting",
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

// consume runs one connection's worth of deliveries. consumed reports whether the
// subscription was established, which resets the backoff.
func (r *Consumer) consume(ctx context.Context) (consumed bool, err error) {
	ctx, span := otel.Tracer("rabbitmq").Start(ctx, "rabbitmq.consume_loop",
		trace.WithAttributes(messagingAttributes(r.exchange, r.routingKey)...))
	defer span.End()

	conn, err := amqp.Dial(r.url)
	if err != nil {
		return false, fail(span, fmt.Errorf("rabbitmq dial: %w", err), "dial failed")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return false, fail(span, fmt.Errorf("rabbitmq channel: %w", err), "channel failed")
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(r.prefetch, 0, false); err != nil {
		return false, fail(span, fmt.Errorf("rabbitmq qos: %w", err), "qos failed")
	}
	if err := declareExchange(ch, r.exchange); err != nil {
		return false, fail(span, err, "exchange declare failed")
	}
	q, err := declareQueue(ch, r.queue, r.exchange, r.routingKey)
	if err != nil {
		return false, fail(span, err, "queue declare failed")
	}

	deliveries, err := ch.Consume(q.Name, r.consumerTag, false, false, false, false, nil)
	if err != nil {
		return false, fail(span, fmt.Errorf("rabbitmq consume: %w", err), "consume failed")
	}

	r.logger.Info("rabbitmq consumer started",
		zap.String("exchange", r.exchange),
		zap.String("queue", q.Name),
		zap.String("routing_key", r.routingKey),
		zap.Int("prefetch", r.prefetch),
	)

	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return true, fail(span, errors.New("rabbitmq deliveries closed"), "deliveries closed")
			}
			if err := r.handleMessage(ctx, msg); err != nil {
				return true, fail(span, err, "ack failed")
			}
		}
	}
}

func isRejected(err error) bool {
	return errors.Is(err, domain.ErrInvalidNotificationType) ||
		errors.Is(err, domain.ErrInvalidRole) ||
		errors.Is(err, domain.ErrInvalidPayload)
}

// handleMessage acks malformed or invalid messages so they are not redelivered and
// nacks with requeue when the dispatcher fails for any other reason. The returned
// error is an ack failure, which means the channel is gone.
func (r *Consumer) handleMessage(ctx context.Context, msg amqp.Delivery) error {
	ctx, span := otel.Tracer("rabbitmq").Start(withDeliveryTrace(ctx, msg), "rabbitmq.handle_message",
		trace.WithAttributes(messagingAttributes(r.exchange, msg.RoutingKey)...),
		trace.WithAttributes(attribute.String("messaging.message_id", msg.MessageId)),
	)
	defer span.End()

	var m queue.DispatchMessage
	if err := json.Unmarshal(msg.Body, &m); err != nil {
		fail(span, err, "invalid json")
		r.logger.Error("rabbitmq invalid json", zap.String("message_id", msg.MessageId), zap.Error(err))
		return r.ack(msg, "rejected")
	}
	if err := m.Validate(); err != nil {
		fail(span, err, "invalid message")
		r.logger.Warn("rabbitmq invalid dispatch message",
			zap.String("message_id", msg.MessageId),
			zap.String("target", m.Target),
			zap.String("type", m.Type),
			zap.Error(err),
		)
		return r.ack(msg, "rejected")
	}

	dispatchCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err := r.dispatch(dispatchCtx, m)
	switch {
	case err == nil:
		return r.ack(msg, "acked")
	case isRejected(err):
		fail(span, err, "dispatch rejected")
		r.logger.Warn("rabbitmq dispatch rejected", zap.String("target", m.Target), zap.Error(err))
		return r.ack(msg, "rejected")
	default:
		fail(span, err, "dispatch failed")
		r.logger.Error("rabbitmq dispatch failed, requeueing", zap.String("target", m.Target), zap.Error(err))
		metrics.QueueMessages.WithLabelValues("requeued").Inc()
		if nackErr := msg.Nack(false, true); nackErr != nil {
			r.logger.Error("rabbitmq nack failed", zap.Error(nackErr))
		}
		return nil
	}
}

func (r *Consumer) ack(msg amqp.Delivery, outcome string) error {
	metrics.QueueMessages.WithLabelValues(outcome).Inc()
	return msg.Ack(false)
}

func (r *Consumer) dispatch(ctx context.Context, m queue.DispatchMessage) error {
	payload := notify.Payload{Type: m.Type, Title: m.Title, Message: m.Message}
	if len(m.Data) > 0 {
		payload.Data = m.Data
	}
	var err error
	switch m.Target {
	case queue.TargetUser:
		_, err = r.svc.SendToUser(ctx, m.UserID, payload)
	case queue.TargetRole:
		_, err = r.svc.SendToUsersByRole(ctx, m.Role, payload)
	case queue.TargetAll:
		_, err = r.svc.SendToAllUsers(ctx, payload)
	}
	return err
}
