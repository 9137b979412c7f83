//go:build integration

package rabbitmq

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"prepnotify/internal/config"
	"prepnotify/internal/domain"
	"prepnotify/internal/model"
	"prepnotify/internal/queue"
	"prepnotify/internal/realtime"
	"prepnotify/internal/service/notify"
	"prepnotify/internal/store/memory"
)

func TestConsumerIntegration(t *testing.T) {
	ctx := context.Background()
	amqpURL := startRabbitMQ(t)

	cfg := &config.Config{
		RabbitMQURL:         amqpURL,
		RabbitExchange:      "notifications",
		RabbitQueue:         "notifications.dispatch",
		RabbitRoutingKey:    "notification.*",
		RabbitConsumerTag:   "dispatch-consumer",
		RabbitPublishPrefix: "notification",
	}

	store := memory.New(zap.NewNop())
	store.AddUser(model.User{ID: 1, Name: "ana", Role: domain.RoleTeacher})
	store.AddUser(model.User{ID: 2, Name: "ben", Role: domain.RoleStudent})

	hub := realtime.NewHub()
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go hub.Run(hubCtx)

	client := &realtime.Client{UserID: 1, Ch: make(chan model.Notification, 1)}
	hub.Register(client)

	svc := notify.NewService(store, hub, zap.NewNop())
	consumer := NewConsumer(cfg, svc, zap.NewNop())

	consumeCtx, cancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() {
		errCh <- consumer.Start(consumeCtx)
	}()

	require.NoError(t, waitForConsumer(ctx, amqpURL, cfg.RabbitQueue, 5*time.Second))

	publisher := NewPublisher(cfg, zap.NewNop())
	require.NoError(t, publisher.Publish(ctx, queue.DispatchMessage{
		Target:  queue.TargetRole,
		Role:    domain.RoleTeacher,
		Type:    domain.NotificationTypeInfo,
		Title:   "t",
		Message: "m",
	}))

	select {
	case n := <-client.Ch:
		require.Equal(t, int64(1), n.UserID)
		require.Equal(t, "t", n.Title)
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for consumer")
	}

	cancel()
	select {
	case <-time.After(3 * time.Second):
		t.Fatalf("consumer did not stop")
	case <-errCh:
	}

	require.Len(t, store.Notifications(), 1)
}

func waitForConsumer(ctx context.Context, amqpURL, queue string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			conn, err := amqp.Dial(amqpURL)
			if err != nil {
				continue
			}
			ch, err := conn.Channel()
			if err != nil {
				_ = conn.Close()
				continue
			}
			q, err := ch.QueueInspect(queue)
			_ = ch.Close()
			_ = conn.Close()
			if err != nil {
				continue
			}
			if q.Consumers > 0 {
				return nil
			}
		}
	}
}
