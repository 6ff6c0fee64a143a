package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hazardcam/internal/app"
	"hazardcam/internal/config"
)

func main() {
	cfg := config.Load()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := application.Run(ctx)
	if err := application.Close(); err != nil {
		log.Printf("Error during close: %v", err)
	}
	if runErr != nil {
		log.Fatalf("Client stopped: %v", runErr)
	}
}
