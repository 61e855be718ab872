package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	servercmd "github.com/louisbranch/freshcart/internal/cmd/server"
)

func main() {
	log.SetPrefix("[FRESHCART] ")
	cfg, err := servercmd.ParseConfig()
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := servercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
