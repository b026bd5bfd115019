package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON events to a durable topic exchange. A
// channel is opened per message, so the publisher can be shared freely.
type AMQPPublisher struct {
	exchange    string
	openChannel func() (Channel, error)
	conn        io.Closer
}

// Dial connects to the broker at url and returns a publisher for exchange.
func Dial(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	open := func() (Channel, error) {
		ch, err := conn.Channel()
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
	return NewAMQPPublisher(exchange, open, conn), nil
}

// NewAMQPPublisher builds a publisher on top of a channel factory.
func NewAMQPPublisher(exchange string, open func() (Channel, error), conn io.Closer) *AMQPPublisher {
	return &AMQPPublisher{exchange: exchange, openChannel: open, conn: conn}
}

func (p *AMQPPublisher) PublishOrderPlaced(ctx context.Context, msg OrderPlacedMessage) error {
	return p.publish(ctx, "order.placed."+string(msg.Type), msg)
}

func (p *AMQPPublisher) PublishStatusChanged(ctx context.Context, msg StatusChangedMessage) error {
	return p.publish(ctx, "order.status."+string(msg.To), msg)
}

func (p *AMQPPublisher) PublishAvailabilityChanged(ctx context.Context, msg AvailabilityChangedMessage) error {
	return p.publish(ctx, "dish.availability."+strconv.FormatBool(msg.Available), msg)
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, msg interface{}) error {
	ch, err := p.openChannel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

// Close closes the broker connection.
func (p *AMQPPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
