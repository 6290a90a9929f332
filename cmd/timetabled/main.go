package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timetable-ical-backend/config"
	"timetable-ical-backend/internal/api"
	"timetable-ical-backend/internal/builder"
	"timetable-ical-backend/internal/untis"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "timetabled ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Startup validation: every account's server name must resolve and
	// answer the reachability probe before we accept traffic.
	validateCtx, validateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	resolver := untis.NewResolver()
	for _, account := range cfg.Accounts {
		if account.BaseURL != "" {
			logger.Printf("account %s uses explicit base URL %s", account.ID, account.BaseURL)
			continue
		}
		host, err := resolver.Validate(validateCtx, account.Domain)
		if err != nil {
			logger.Fatalf("environment validation failed for account %s: %v", account.ID, err)
		}
		logger.Printf("account %s validated, using server %s", account.ID, host)
	}
	validateCancel()

	// One generation service per configured account.
	services := make(map[string]*builder.Service, len(cfg.Accounts))
	for _, account := range cfg.Accounts {
		services[account.ID] = builder.NewService(account, cfg)
	}
	logger.Printf("serving %d account(s)", len(services))

	// Initialize router
	router := api.NewRouter(cfg, services)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
