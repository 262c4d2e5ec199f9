package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/orgchartd/orgchart-service/internal/config"
	"github.com/orgchartd/orgchart-service/internal/events"
)

// NotificationService fans store notifications out to logs, a webhook and a
// Redis channel.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	redis      *redis.Client
}

// NewNotificationService creates the service. redisClient may be nil.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, redisClient *redis.Client) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger.Named("notifications"),
		cfg:        cfg,
		redis:      redisClient,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	events.SubscribeAll(n.dispatcher, n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("title", event.Title),
	}
	if event.DepartmentID != "" {
		fields = append(fields, zap.String("department_id", event.DepartmentID))
	}
	if event.ActivityID != "" {
		fields = append(fields, zap.String("activity_id", event.ActivityID))
	}
	if event.Failed() {
		n.logger.Error(event.Message, append(fields, zap.String("error", event.Error))...)
	} else {
		n.logger.Info(event.Message, fields...)
	}

	n.sendWebhookNotificationStub(ctx, event)
	return n.publishToRedis(ctx, event)
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) publishToRedis(ctx context.Context, event events.Event) error {
	if n.redis == nil || strings.TrimSpace(n.cfg.RedisChannel) == "" {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := n.redis.Publish(ctx, n.cfg.RedisChannel, payload).Err(); err != nil {
		n.logger.Warn("publish notification", zap.String("channel", n.cfg.RedisChannel), zap.Error(err))
		return err
	}
	return nil
}
