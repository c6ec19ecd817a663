package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/taskearn/ledger/internal/models"
	"go.uber.org/zap"
)

// RedisEventPublisher fans domain events out over Redis pub/sub. A publisher without a
// client drops events.
type RedisEventPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisEventPublisher(client *redis.Client, channel string) *RedisEventPublisher {
	return &RedisEventPublisher{client: client, channel: channel}
}

func (p *RedisEventPublisher) Publish(ctx context.Context, event models.DomainEvent) error {
	if p == nil || p.client == nil {
		return nil
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, string(data)).Err()
}

func newEvent(eventType string, userID int64, referenceID string, payload map[string]any, at time.Time) models.DomainEvent {
	return models.DomainEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		UserID:      userID,
		ReferenceID: referenceID,
		Payload:     payload,
		OccurredAt:  at.UTC(),
	}
}

// publish is fire-and-forget after commit; a lost event never undoes a committed payout.
func publish(ctx context.Context, events EventPublisher, logger *zap.Logger, event models.DomainEvent) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, event); err != nil {
		logger.Warn("failed to publish event",
			zap.String("event_type", event.Type),
			zap.String("reference_id", event.ReferenceID),
			zap.Error(err),
		)
	}
}
