package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joshua-takyi/eventhub/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	defaultNotifyAttempts = 3
	defaultNotifyBackoff  = 200 * time.Millisecond

	DefaultNotificationChannel = "eventhub.notifications"
)

// NotificationSink is a write-only destination for notifications.
type NotificationSink interface {
	Name() string
	Deliver(ctx context.Context, n *models.Notification) error
}

// StoreSink persists notifications so recipients can list them.
type StoreSink struct {
	repo models.NotificationRepo
}

func NewStoreSink(repo models.NotificationRepo) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Deliver(ctx context.Context, n *models.Notification) error {
	_, err := s.repo.CreateNotification(ctx, n)
	// a retry after an unacknowledged insert hits the same id
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

type notificationEvent struct {
	Type           string    `json:"type"`
	NotificationID string    `json:"notification_id"`
	UserID         string    `json:"user_id"`
	EventID        string    `json:"event_id,omitempty"`
	ProposalID     string    `json:"proposal_id,omitempty"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// RedisSink publishes each notification as JSON on a pub/sub channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultNotificationChannel
	}
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Deliver(ctx context.Context, n *models.Notification) error {
	evt := notificationEvent{
		Type:           "proposal.approved",
		NotificationID: n.ID.Hex(),
		UserID:         n.UserID.String(),
		Message:        n.Message,
		CreatedAt:      n.CreatedAt,
	}
	if !n.EventID.IsZero() {
		evt.EventID = n.EventID.Hex()
	}
	if !n.ProposalID.IsZero() {
		evt.ProposalID = n.ProposalID.Hex()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %v", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %v", err)
	}
	return nil
}

// LogSink writes notifications to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(ctx context.Context, n *models.Notification) error {
	s.logger.Info("Notification",
		"notification_id", n.ID.Hex(),
		"user_id", n.UserID,
		"message", n.Message,
	)
	return nil
}

// Notifier fans a notification out to every sink in the background. A sink
// that keeps failing is logged and skipped; nothing is rolled back.
type Notifier struct {
	sinks    []NotificationSink
	logger   *slog.Logger
	attempts int
	backoff  time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewNotifier(logger *slog.Logger, sinks ...NotificationSink) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		sinks:    sinks,
		logger:   logger,
		attempts: defaultNotifyAttempts,
		backoff:  defaultNotifyBackoff,
	}
}

// Notify returns immediately. The request context's cancellation is dropped
// so delivery outlives the HTTP response. After Shutdown the notification is
// logged and dropped.
func (nt *Notifier) Notify(ctx context.Context, n models.Notification) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	ctx = context.WithoutCancel(ctx)

	nt.mu.Lock()
	if nt.closed {
		nt.mu.Unlock()
		nt.logger.Warn("Notification dropped after shutdown",
			"notification_id", n.ID.Hex(),
			"user_id", n.UserID,
		)
		return
	}
	nt.wg.Add(1)
	nt.mu.Unlock()

	go func() {
		defer nt.wg.Done()
		for _, sink := range nt.sinks {
			cp := n
			if err := nt.deliver(ctx, sink, &cp); err != nil {
				nt.logger.Error("Notification delivery failed",
					"sink", sink.Name(),
					"notification_id", n.ID.Hex(),
					"user_id", n.UserID,
					"error", err,
				)
			}
		}
	}()
}

func (nt *Notifier) deliver(ctx context.Context, sink NotificationSink, n *models.Notification) error {
	var err error
	for attempt := 1; attempt <= nt.attempts; attempt++ {
		if err = sink.Deliver(ctx, n); err == nil {
			return nil
		}
		nt.logger.Warn("Notification delivery attempt failed",
			"sink", sink.Name(),
			"attempt", attempt,
			"error", err,
		)
		if attempt < nt.attempts {
			time.Sleep(nt.backoff * time.Duration(attempt))
		}
	}
	return err
}

// Wait blocks until every pending delivery has finished.
func (nt *Notifier) Wait() {
	nt.wg.Wait()
}

// Shutdown stops accepting notifications and waits for the ones in flight.
func (nt *Notifier) Shutdown() {
	nt.mu.Lock()
	nt.closed = true
	nt.mu.Unlock()
	nt.wg.Wait()
}
