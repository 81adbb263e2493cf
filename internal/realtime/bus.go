// README: Event bus the hub publishes through; in-process or Redis pub/sub.
package realtime

import (
	"context"
	"sync"

	"flashtaxi/internal/events"
)

// Bus carries events to every hub instance, including the publishing one.
type Bus interface {
	Publish(ctx context.Context, e events.Event) error
	Subscribe(ctx context.Context, deliver func(events.Event)) (unsubscribe func() error, err error)
}

// LocalBus delivers synchronously to in-process subscribers.
type LocalBus struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(events.Event)
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[int]func(events.Event))}
}

func (b *LocalBus) Publish(_ context.Context, e events.Event) error {
	b.mu.RLock()
	subs := make([]func(events.Event), 0, len(b.subs))
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()
	for _, fn := range subs {
		fn(e)
	}
	return nil
}

func (b *LocalBus) Subscribe(_ context.Context, deliver func(events.Event)) (func() error, error) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = deliver
	b.mu.Unlock()
	return func() error {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		return nil
	}, nil
}
