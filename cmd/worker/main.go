package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	workercmd "github.com/louisbranch/freshcart/internal/cmd/worker"
)

func main() {
	log.SetPrefix("[WORKER] ")
	cfg, err := workercmd.ParseConfig()
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := workercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to consume: %v", err)
	}
}
