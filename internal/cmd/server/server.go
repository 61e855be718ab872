// Package server boots the FreshCart API process.
package server

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/freshcart/internal/api/rest"
	"github.com/louisbranch/freshcart/internal/auth"
	"github.com/louisbranch/freshcart/internal/cart"
	"github.com/louisbranch/freshcart/internal/catalog"
	"github.com/louisbranch/freshcart/internal/events"
	"github.com/louisbranch/freshcart/internal/order"
	"github.com/louisbranch/freshcart/internal/platform/config"
	"github.com/louisbranch/freshcart/internal/platform/otel"
	"github.com/louisbranch/freshcart/internal/storage/sqlite"
)

// Config holds server process configuration.
type Config struct {
	HTTPAddr       string        `env:"FRESHCART_HTTP_ADDR" envDefault:":8080"`
	DBPath         string        `env:"FRESHCART_DB_PATH" envDefault:"freshcart.db"`
	SessionHMACKey string        `env:"FRESHCART_SESSION_HMAC_KEY,required"`
	TokenIssuer    string        `env:"FRESHCART_TOKEN_ISSUER" envDefault:"freshcart"`
	SessionTTL     time.Duration `env:"FRESHCART_SESSION_TTL" envDefault:"168h"`
	AMQPURI        string        `env:"FRESHCART_AMQP_URI"`
}

// ParseConfig loads server configuration from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if _, err := decodeKey(cfg.SessionHMACKey); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeKey accepts the hex output of the hmac-key tool.
func decodeKey(value string) ([]byte, error) {
	key, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("session hmac key is not hex: %w", err)
	}
	if len(key) < 16 {
		return nil, fmt.Errorf("session hmac key is too short: %d bytes", len(key))
	}
	return key, nil
}

// Run starts the API server and blocks until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	shutdownTracing, err := otel.Setup(ctx, "freshcart-api")
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	key, err := decodeKey(cfg.SessionHMACKey)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("close database: %v", err)
		}
	}()

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURI != "" {
		amqpPublisher, err := events.DialAMQP(cfg.AMQPURI)
		if err != nil {
			return fmt.Errorf("connect broker: %w", err)
		}
		publisher = amqpPublisher
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Printf("close broker: %v", err)
		}
	}()

	authSvc := auth.NewService(store, store, auth.TokenConfig{
		Issuer: cfg.TokenIssuer,
		Key:    key,
		TTL:    cfg.SessionTTL,
	})
	catalogSvc := catalog.NewService(store, nil)
	orderSvc := order.NewService(store, store, publisher, nil)
	cartSvc := cart.NewService(cart.NewMemoryStore(), store, orderSvc, nil)

	handler := rest.NewHandler(authSvc, catalogSvc, cartSvc, orderSvc)
	server, err := rest.NewServer(cfg.HTTPAddr, handler)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	log.Printf("listening on %s", cfg.HTTPAddr)
	return server.ListenAndServe(ctx)
}
