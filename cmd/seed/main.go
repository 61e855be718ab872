package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	seedcmd "github.com/louisbranch/freshcart/internal/cmd/seed"
)

func main() {
	log.SetPrefix("[SEED] ")
	cfg, err := seedcmd.ParseConfig()
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := seedcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to seed: %v", err)
	}
}
