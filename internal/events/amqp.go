package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher emits order messages to a RabbitMQ topic exchange.
type AMQPPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// DialAMQP connects to RabbitMQ and declares the order exchange.
func DialAMQP(uri string) (*AMQPPublisher, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("amqp uri is required")
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

	return &AMQPPublisher{conn: conn, channel: channel}, nil
}

// PublishOrderPlaced implements Publisher.
func (p *AMQPPublisher) PublishOrderPlaced(ctx context.Context, msg OrderPlaced) error {
	return p.publish(ctx, RoutingKeyOrderPlaced, msg)
}

// PublishOrderStatusChanged implements Publisher.
func (p *AMQPPublisher) PublishOrderStatusChanged(ctx context.Context, msg OrderStatusChanged) error {
	return p.publish(ctx, RoutingKeyOrderStatusChanged, msg)
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, payload any) error {
	if p == nil || p.channel == nil {
		return fmt.Errorf("publisher is not connected")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx, Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		_ = p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

var _ Publisher = (*AMQPPublisher)(nil)
