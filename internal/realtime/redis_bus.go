// README: Redis pub/sub bus fanning realtime events across API instances.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"flashtaxi/internal/events"
)

const DefaultChannel = "flashtaxi:realtime"

type RedisBus struct {
	client  *redis.Client
	channel string
	log     *slog.Logger
}

func NewRedisBus(client *redis.Client, channel string, log *slog.Logger) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{client: client, channel: channel, log: log}
}

func (b *RedisBus) Publish(ctx context.Context, e events.Event) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, raw).Err()
}

// Subscribe blocks until the subscription is confirmed, then delivers on a
// background goroutine until unsubscribe is called.
func (b *RedisBus) Subscribe(ctx context.Context, deliver func(events.Event)) (func() error, error) {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	go func() {
		for msg := range sub.Channel() {
			var e events.Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				b.log.Warn("realtime bus: bad message", "err", err)
				continue
			}
			deliver(e)
		}
	}()
	return sub.Close, nil
}
