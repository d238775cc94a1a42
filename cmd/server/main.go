package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"emberchat/internal/server"
)

// Exit codes to provide meaningful status to the operating system or service
// manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const shutdownTimeout = 10 * time.Second

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so deferred cleanup executes before exit.
func run() (int, error) {
	// .env is optional; real environments configure through the process env.
	_ = godotenv.Load()

	cfg, err := server.LoadConfig()
	if err != nil {
		return exitConfig, err
	}

	log := server.NewLogger(cfg.Env)
	log.Info("starting EmberChat relay",
		"default_room", cfg.DefaultRoom,
		"permanent_rooms", cfg.PermanentRooms,
		"reap_interval", cfg.ReapInterval,
		"inactivity_threshold", cfg.InactivityThreshold,
	)

	relay := server.NewRelay(cfg, log)
	hub := server.NewHub(relay, cfg, log)
	go hub.Run()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reaper := server.NewReaper(relay, cfg, log)
	go reaper.Run(ctx)

	mux := server.SetupRoutes(hub)
	httpServer := server.CreateServer(cfg.Port, mux)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.StartServer(httpServer, log)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitRuntime, err
		}
	}

	if err := server.ShutdownServer(httpServer, shutdownTimeout, log); err != nil {
		log.Warn("HTTP shutdown incomplete", "err", err)
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		log.Warn("hub shutdown incomplete", "err", err)
	}

	return exitOK, nil
}
