package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdf-to-word/internal/config"
	"pdf-to-word/internal/handler"

	"github.com/joho/godotenv"
)

// shutdownTimeout bounds how long in-flight conversions may finish after a signal.
const shutdownTimeout = 2 * time.Minute

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}
	// Wiring
	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	cfg := container.Config

	// Handlers
	conversionHandler := handler.NewConversionHandler(
		container.Converter,
		container.ArtifactRepository,
		cfg.GetMaxConcurrentConversions(),
		cfg.GetMaxFileSize(),
		container.Logger,
	)

	// Router
	router := handler.NewRouter(conversionHandler, container.Logger, cfg.GetAllowedOrigins())

	// start server
	server := &http.Server{
		Addr:              ":" + cfg.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()
	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		container.Logger.Error("Graceful shutdown failed", err)
		_ = server.Close()
	}

	container.Logger.Info("Server exited")
}
