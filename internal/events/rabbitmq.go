// README: RabbitMQ topic-exchange mirror of lifecycle events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitPublisher struct {
	ch       AMQPChannel
	exchange string
	timeout  time.Duration
}

// NewRabbitPublisher declares a durable topic exchange and publishes to it.
func NewRabbitPublisher(ch *amqp.Channel, exchange string) (*RabbitPublisher, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return NewRabbitPublisherWithChannel(ch, exchange), nil
}

func NewRabbitPublisherWithChannel(ch AMQPChannel, exchange string) *RabbitPublisher {
	return &RabbitPublisher{ch: ch, exchange: exchange, timeout: 5 * time.Second}
}

func (r *RabbitPublisher) Publish(ctx context.Context, e Event) error {
	if e.Name == LocationUpdate {
		return nil
	}
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.ch.PublishWithContext(ctx, r.exchange, e.RoutingKey(), false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Timestamp:    e.At,
		Type:         e.Name,
		Body:         body,
	})
}
