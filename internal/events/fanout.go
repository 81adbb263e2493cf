// README: Fan-out publisher; hands every event to each configured sink.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"flashtaxi/internal/observability"
)

type sink struct {
	name string
	pub  Publisher
}

type Fanout struct {
	sinks []sink
	log   *slog.Logger
}

func NewFanout(log *slog.Logger) *Fanout {
	return &Fanout{log: log}
}

// Add registers a sink. Nil publishers are ignored so optional sinks can be passed unconditionally.
func (f *Fanout) Add(name string, pub Publisher) *Fanout {
	if pub == nil {
		return f
	}
	f.sinks = append(f.sinks, sink{name: name, pub: pub})
	return f
}

func (f *Fanout) Len() int { return len(f.sinks) }

// Publish calls every sink even when an earlier one fails and returns the joined errors.
func (f *Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.pub.Publish(ctx, e); err != nil {
			observability.EventsPublished.WithLabelValues(s.name, "error").Inc()
			if f.log != nil {
				f.log.Warn("event_publish_failed", "sink", s.name, "event", e.Name, "room", e.Room, "error", err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		observability.EventsPublished.WithLabelValues(s.name, "ok").Inc()
	}
	return errors.Join(errs...)
}
