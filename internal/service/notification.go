package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/model"
	"cake-marketplace/internal/repository"

	"github.com/google/uuid"
	radix "github.com/mediocregopher/radix/v3"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// defaultSinkTimeout bounds a single sink delivery.
const defaultSinkTimeout = 5 * time.Second

// Emitter is fire-and-forget: delivery failures are logged, never returned.
type Emitter interface {
	Emit(ctx context.Context, userID string, typ model.NotificationType, message string, data map[string]any)
}

// NotificationSink pushes a stored notification to an out-of-process channel.
type NotificationSink interface {
	Name() string
	Deliver(ctx context.Context, n *model.Notification) error
}

type NotificationService interface {
	Emitter
	List(ctx context.Context, userID string) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationServiceImpl struct {
	notificationRepo repository.NotificationRepository
	sinks            []NotificationSink
	sinkTimeout      time.Duration
	logger           *zap.Logger
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	logger *zap.Logger,
	sinks ...NotificationSink,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		sinks:            sinks,
		sinkTimeout:      defaultSinkTimeout,
		logger:           logger,
	}
}

func (s *notificationServiceImpl) Emit(ctx context.Context, userID string, typ model.NotificationType, message string, data map[string]any) {
	// the triggering request may already be finishing
	ctx = context.WithoutCancel(ctx)

	n := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Message:   message,
		Data:      data,
		CreatedAt: time.Now(),
	}

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		s.logger.Warn("store notification",
			zap.String("user_id", userID),
			zap.String("type", string(typ)),
			zap.Error(err))
	}

	if len(s.sinks) == 0 {
		return
	}

	var g errgroup.Group
	for _, sink := range s.sinks {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(ctx, s.sinkTimeout)
			defer cancel()
			if err := sink.Deliver(ctx, n); err != nil {
				return fmt.Errorf("%s: %w", sink.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Warn("deliver notification",
			zap.String("notification_id", n.ID),
			zap.Error(err))
	}
}

func (s *notificationServiceImpl) List(ctx context.Context, userID string) ([]*model.Notification, error) {
	return s.notificationRepo.ListByUser(ctx, userID)
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, userID, notificationID string) error {
	err := s.notificationRepo.MarkRead(ctx, userID, notificationID)
	if repository.IsNotFound(err) {
		return apperr.NotFound("notification not found")
	}
	return err
}

func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

type redisSink struct {
	client  radix.Client
	channel string
}

func NewRedisSink(client radix.Client, channel string) NotificationSink {
	return &redisSink{client: client, channel: channel}
}

func (s *redisSink) Name() string {
	return "redis"
}

func (s *redisSink) Deliver(_ context.Context, n *model.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	return s.client.Do(radix.Cmd(nil, "PUBLISH", s.channel+":"+n.UserID, string(body)))
}

type amqpSink struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

// NewAMQPSink declares a durable topic exchange; messages are routed by "<type>.<user id>".
func NewAMQPSink(conn *amqp.Connection, exchange string) (NotificationSink, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &amqpSink{ch: ch, exchange: exchange}, nil
}

func (s *amqpSink) Name() string {
	return "rabbitmq"
}

func (s *amqpSink) Deliver(ctx context.Context, n *model.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultSinkTimeout)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ch.PublishWithContext(ctx, s.exchange, string(n.Type)+"."+n.UserID, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID,
		Timestamp:    n.CreatedAt,
		Body:         body,
	})
}
