package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const eventsChannel = "claro:realtime"

// RedisBridge fans events out across server instances via pub/sub. Events
// are published to Redis and delivered locally through the hub when the
// subscription echoes them back, so every instance (including the
// publisher) broadcasts exactly once. Publish failures fall back to local
// delivery; they never surface to the caller.
type RedisBridge struct {
	rdb    *redis.Client
	hub    *Hub
	logger *zap.Logger
}

func NewRedisBridge(rdb *redis.Client, hub *Hub, logger *zap.Logger) *RedisBridge {
	return &RedisBridge{rdb: rdb, hub: hub, logger: logger}
}

func (b *RedisBridge) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("realtime event marshal failed", zap.Error(err))
		return
	}
	if err := b.rdb.Publish(context.Background(), eventsChannel, data).Err(); err != nil {
		b.logger.Warn("realtime publish failed, delivering locally only", zap.Error(err))
		b.hub.Broadcast(event)
	}
}

// Run consumes the channel until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) {
	pubsub := b.rdb.Subscribe(ctx, eventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("realtime event unmarshal failed", zap.Error(err))
				continue
			}
			b.hub.Broadcast(event)
		}
	}
}
