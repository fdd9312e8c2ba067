package main

import (
	"context"
	"log"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"

	"github.com/lethien999/my-live-support-2025-sub002/modules/auth"
	"github.com/lethien999/my-live-support-2025-sub002/modules/directory"
	"github.com/lethien999/my-live-support-2025-sub002/modules/gateway"
	"github.com/lethien999/my-live-support-2025-sub002/modules/history"
	"github.com/lethien999/my-live-support-2025-sub002/modules/tickets"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Live Support Gateway ===")

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Register modules.
	// Order: independent modules first, then modules with dependencies
	// - directory: user accounts (ServiceProviderModule)
	// - tickets:   tickets and their chat rooms (emits TicketUpdated/QueueUpdated)
	// - history:   message persistence and replay windows
	// - auth:      credential verification (depends on directory)
	// - gateway:   WebSocket server (depends on auth, tickets, history)
	app.Register(directory.NewModule(app.Logger()))
	app.Register(tickets.NewModule(app.Logger()))
	app.Register(history.NewModule(app.Logger()))
	app.Register(auth.NewModule(app.Logger()))
	app.Register(gateway.NewModule(app.Logger()))

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	addr := os.Getenv("GATEWAY_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("Architecture:")
	log.Println("  - HTTP Framework: Fiber with WebSocket support")
	log.Println("  - Event Bus: NATS JetStream (ticket/queue notifications)")
	log.Printf("  - NATS URL: %s", natsURL)
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost%s):", addr)
	log.Println("  GET    /health                     - Health check")
	log.Println("  GET    /api/v1/rooms/:id/history   - Message history (bearer token)")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost%s/ws):", addr)
	log.Println("  Connect with: ws://localhost:8080/ws?token=<jwt>")
	log.Println("  Frame types: join, leave, message, typing")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
