package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"chatd/infrastructure/ws"
	"chatd/runtime"
	"chatd/runtime/workers"
	"chatd/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer executes before the process
// exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Registries & Router
	sessions := runtime.NewSessionRegistry(log)
	rooms := runtime.NewRoomRegistry(log)
	router := runtime.NewRouter(log, sessions, rooms)
	chat := services.NewChatService(log, sessions, rooms, router)

	// 3. Transport & Supervision
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := ws.NewServer(log, chat, addr, config.QueueSize, config.WriteTimeout)
	telemetry := workers.NewTelemetryWorker(log, config.MetricInterval, sessions, rooms)

	sup := workers.NewSupervisor(log)
	sup.Add(server, telemetry)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Serve until shutdown; Run returns once every worker has finished.
	log.Info("Starting chat server", "addr", addr)
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}
