package notification

import (
	"context"
	"fmt"

	appbilling "github.com/gharbeti/backend/internal/application/billing"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStreamSink delivers billing notifications onto a Redis stream for the
// notification workers to consume
type RedisStreamSink struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewRedisStreamSink creates a new RedisStreamSink
func NewRedisStreamSink(client *redis.Client, stream string, logger *zap.Logger) *RedisStreamSink {
	return &RedisStreamSink{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// Notify appends one notification to the stream
func (s *RedisStreamSink) Notify(ctx context.Context, n appbilling.Notification) error {
	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"admin_id":  n.AdminID.String(),
			"record_id": n.RecordID.String(),
			"subject":   n.Subject,
			"body":      n.Body,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	s.logger.Debug("Notification published",
		zap.String("admin_id", n.AdminID.String()),
		zap.String("record_id", n.RecordID.String()),
	)
	return nil
}

// LogSink is a NotificationSink that only logs. It backs development setups
// that run without Redis.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a new LogSink
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Notify logs the notification instead of delivering it
func (s *LogSink) Notify(_ context.Context, n appbilling.Notification) error {
	s.logger.Info("Billing notification",
		zap.String("admin_id", n.AdminID.String()),
		zap.String("record_id", n.RecordID.String()),
		zap.String("subject", n.Subject),
		zap.String("body", n.Body),
	)
	return nil
}
