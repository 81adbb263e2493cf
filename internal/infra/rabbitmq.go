// README: RabbitMQ connection and channel for the ride event exchange.
package infra

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Rabbit owns one connection and the channel publishers share.
type Rabbit struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
}

func NewRabbit(url string) (*Rabbit, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	return &Rabbit{Conn: conn, Channel: ch}, nil
}

func (r *Rabbit) Close() error {
	if err := r.Channel.Close(); err != nil {
		_ = r.Conn.Close()
		return err
	}
	return r.Conn.Close()
}
