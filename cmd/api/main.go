package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/printcraft/order-workflow-api/internal/api"
	"github.com/printcraft/order-workflow-api/internal/config"
	"github.com/printcraft/order-workflow-api/pkg/logger"
)

func main() {
	// Optional in production; containers inject env directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)

	server, err := api.NewServer(cfg, log)
	if err != nil {
		log.Error("Failed to build server", "error", err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		log.Info("Shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("Server stopped")
}
