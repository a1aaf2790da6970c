package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/wikirelay/wikirelay/common/logging"
	"github.com/wikirelay/wikirelay/common/messaging"
	natsclient "github.com/wikirelay/wikirelay/common/messaging/nats"
	"github.com/wikirelay/wikirelay/relay/internal/config"
	"github.com/wikirelay/wikirelay/relay/internal/publisher"
	"github.com/wikirelay/wikirelay/relay/internal/schema"
	"github.com/wikirelay/wikirelay/relay/internal/server"
	"github.com/wikirelay/wikirelay/relay/internal/stream"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("relay"))
	logging.SetDefault(logger)

	slog.Info("Starting relay service",
		slog.String("language", cfg.Wikimedia.Language),
		slog.String("stream", cfg.Wikimedia.Stream),
		slog.String("origin", cfg.Origin()),
		slog.Int("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Confirm the configured stream is currently offered before touching
	// anything else. A stale stream name is a deploy problem, not a retry.
	specClient := &http.Client{Timeout: 15 * time.Second}
	validator := schema.New(specClient, cfg.SpecURL())
	if err := validator.Validate(ctx, cfg.Wikimedia.Stream); err != nil {
		var unknown *schema.UnknownStreamError
		if errors.As(err, &unknown) {
			log.Fatalf("Stream validation failed: %v", unknown)
		}
		log.Fatalf("Failed to validate stream: %v", err)
	}
	slog.Info("Upstream stream validated", slog.String("stream", cfg.Wikimedia.Stream))

	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = "wikirelay-relay"
	jsClient, err := natsclient.NewJetStreamClient(natsCfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer jsClient.Close()

	if _, err := jsClient.CreateOrUpdateStream(ctx, natsclient.ChangeEventsStream); err != nil {
		log.Fatalf("Failed to ensure change events stream: %v", err)
	}

	subject := messaging.ChangeSubject(cfg.Wikimedia.Stream)
	pub := publisher.New(jsClient, subject, logger)

	// No overall timeout: the stream body is read for the connection's
	// lifetime. Dial and TLS handshake limits come from the default transport.
	streamClient := &http.Client{}
	reader := stream.New(cfg, streamClient, pub, logger)

	// The ingestion loop runs for the process lifetime; the handle is kept so
	// shutdown can observe it finish.
	readerDone := make(chan error, 1)
	go func() {
		readerDone <- reader.Run(ctx)
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(jsClient),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Relay service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down relay service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}

	select {
	case err := <-readerDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Stream reader exited with error", slog.String("error", err.Error()))
		}
	case <-time.After(5 * time.Second):
		slog.Warn("Stream reader did not stop in time")
	}

	// Let in-flight publishes complete before the connection drops.
	if err := jsClient.Drain(); err != nil {
		slog.Error("Failed to drain NATS connection", slog.String("error", err.Error()))
	}

	slog.Info("Relay service stopped")
}
