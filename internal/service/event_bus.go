package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/newprojects-ai/lvnplus-apiV2/internal/config"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/redis/go-redis/v9"
)

// EventPublisher fans execution events out to live listeners.
type EventPublisher interface {
	Publish(ctx context.Context, ev model.ExecutionEvent) error
}

// EventBus publishes execution events on a per-plan Redis PubSub channel.
// Delivery is fire-and-forget: no listener means the event is dropped.
type EventBus struct {
	rdb *redis.Client
}

// NewEventBus creates a new EventBus.
func NewEventBus(rdb *redis.Client) *EventBus {
	return &EventBus{rdb: rdb}
}

// Publish sends ev to the channel of its plan.
func (b *EventBus) Publish(ctx context.Context, ev model.ExecutionEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	channel := config.RedisKey.PlanEventsChannel(ev.TestPlanID)
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe listens to the events of one plan. The caller must Close the
// returned subscription.
func (b *EventBus) Subscribe(ctx context.Context, planID identity.ID) *redis.PubSub {
	return b.rdb.Subscribe(ctx, config.RedisKey.PlanEventsChannel(planID))
}
