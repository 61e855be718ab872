package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer receives order-placed messages from a durable queue bound to
// the order exchange.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

// DialConsumer connects to RabbitMQ and binds queue to order.placed.
func DialConsumer(uri, queue string) (*Consumer, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("amqp uri is required")
	}
	queue = strings.TrimSpace(queue)
	if queue == "" {
		return nil, fmt.Errorf("queue name is required")
	}

	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := channel.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := channel.QueueBind(queue, RoutingKeyOrderPlaced, Exchange, false, nil); err != nil {
		_ = channel.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &Consumer{conn: conn, channel: channel, queue: queue}, nil
}

// ConsumeOrderPlaced delivers each order-placed message to handle until the
// context is cancelled or the delivery channel closes. Messages that fail
// to decode are rejected; handler errors are logged and the message is
// dropped, matching the at-most-once semantics of the publisher side.
func (c *Consumer) ConsumeOrderPlaced(ctx context.Context, handle func(context.Context, OrderPlaced) error) error {
	if c == nil || c.channel == nil {
		return fmt.Errorf("consumer is not connected")
	}
	if handle == nil {
		return fmt.Errorf("handler is required")
	}

	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			var msg OrderPlaced
			if err := json.Unmarshal(delivery.Body, &msg); err != nil {
				log.Printf("decode %s message: %v", RoutingKeyOrderPlaced, err)
				_ = delivery.Reject(false)
				continue
			}
			if err := handle(ctx, msg); err != nil {
				log.Printf("handle order %s: %v", msg.OrderID, err)
				_ = delivery.Nack(false, false)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close releases the channel and connection.
func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
