package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"aether-base-be/internal/bootstrap"
	"aether-base-be/internal/config"
	"aether-base-be/internal/server"
	"aether-base-be/internal/tracer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to bootstrap: %v", err)
	}
	defer container.Close()

	// 2b. Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer, err := tracer.InitTracer(ctx, cfg.Telemetry, container.Logger)
	if err != nil {
		container.Logger.Warn("Main", "Tracing unavailable", map[string]interface{}{"error": err.Error()})
	}
	defer shutdownTracer(context.Background())

	// 3. Start Background Services
	go container.WebSocketHub.Run(ctx)

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Fatalf("Failed to start snapshot consumer: %v", err)
	}
	if err := container.NotificationService.Start(); err != nil {
		container.Logger.Warn("Main", "Notifications unavailable", map[string]interface{}{"error": err.Error()})
	}

	// 4. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		container.Logger.Info("Main", "Shutting down", nil)
		if err := srv.Shutdown(); err != nil {
			container.Logger.Error("Main", "Shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// 5. Run Server
	if err := srv.Run(); err != nil {
		container.Logger.Error("Main", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
