// Package worker simulates order fulfilment from the order-placed queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/freshcart/internal/events"
	"github.com/louisbranch/freshcart/internal/order"
	"github.com/louisbranch/freshcart/internal/platform/config"
	"github.com/louisbranch/freshcart/internal/storage"
	"github.com/louisbranch/freshcart/internal/storage/sqlite"
)

// Config holds worker process configuration.
type Config struct {
	DBPath       string        `env:"FRESHCART_DB_PATH" envDefault:"freshcart.db"`
	AMQPURI      string        `env:"FRESHCART_AMQP_URI,required"`
	Queue        string        `env:"FRESHCART_WORKER_QUEUE" envDefault:"freshcart.fulfillment"`
	StepDelay    time.Duration `env:"FRESHCART_WORKER_STEP_DELAY" envDefault:"30s"`
	CancelBuffer time.Duration `env:"FRESHCART_WORKER_CANCEL_BUFFER" envDefault:"10m"`
}

// ParseConfig loads worker configuration from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Fulfiller advances one order through the fulfilment steps.
type Fulfiller struct {
	orders    storage.OrderStore
	stepDelay time.Duration
	now       func() time.Time
}

// NewFulfiller builds a fulfiller over the order store.
func NewFulfiller(orders storage.OrderStore, stepDelay time.Duration, now func() time.Time) *Fulfiller {
	if now == nil {
		now = time.Now
	}
	return &Fulfiller{orders: orders, stepDelay: stepDelay, now: now}
}

// Fulfill walks an order from pending to delivered, pausing stepDelay
// between steps. A cancelled order stops the walk without error: the
// status guard fails and the order is left alone.
func (f *Fulfiller) Fulfill(ctx context.Context, orderID string) error {
	if f == nil || f.orders == nil {
		return fmt.Errorf("fulfiller is not configured")
	}

	steps := []struct {
		from order.Status
		to   order.Status
	}{
		{order.StatusPending, order.StatusProcessing},
		{order.StatusProcessing, order.StatusOutForDelivery},
		{order.StatusOutForDelivery, order.StatusDelivered},
	}
	for _, step := range steps {
		if err := f.wait(ctx); err != nil {
			return err
		}
		err := f.orders.UpdateOrderStatus(ctx, orderID, string(step.from), string(step.to), f.now().UTC(), time.Time{})
		if err != nil {
			if errors.Is(err, storage.ErrStaleStatus) {
				log.Printf("order %s left %s, stopping fulfilment", orderID, step.from)
				return nil
			}
			if errors.Is(err, storage.ErrNotFound) {
				log.Printf("order %s missing, dropping", orderID)
				return nil
			}
			return fmt.Errorf("advance order %s to %s: %w", orderID, step.to, err)
		}
		log.Printf("order %s advanced to %s", orderID, step.to)
	}
	return nil
}

func (f *Fulfiller) wait(ctx context.Context) error {
	if f.stepDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(f.stepDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run consumes order-placed messages and fulfils each order until ctx is
// cancelled. The first fulfilment step is delayed past the cancellation
// window so customers keep their full window.
func Run(ctx context.Context, cfg Config) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close database: %v", err)
		}
	}()

	consumer, err := events.DialConsumer(cfg.AMQPURI, cfg.Queue)
	if err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			log.Printf("close broker: %v", err)
		}
	}()

	fulfiller := NewFulfiller(store, cfg.StepDelay, nil)
	log.Printf("consuming %s", cfg.Queue)
	return consumer.ConsumeOrderPlaced(ctx, func(ctx context.Context, msg events.OrderPlaced) error {
		if err := waitForCancelWindow(ctx, msg.PlacedAt, cfg.CancelBuffer); err != nil {
			return err
		}
		return fulfiller.Fulfill(ctx, msg.OrderID)
	})
}

// waitForCancelWindow sleeps until the order's cancellation window has
// passed, so fulfilment never races a legitimate cancel.
func waitForCancelWindow(ctx context.Context, placedAt time.Time, buffer time.Duration) error {
	if buffer <= 0 {
		return nil
	}
	remaining := time.Until(placedAt.Add(buffer))
	if remaining <= 0 {
		return nil
	}
	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
