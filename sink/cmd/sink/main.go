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
	natsclient "github.com/wikirelay/wikirelay/common/messaging/nats"
	"github.com/wikirelay/wikirelay/sink/internal/config"
	"github.com/wikirelay/wikirelay/sink/internal/consumer"
	"github.com/wikirelay/wikirelay/sink/internal/server"
	"github.com/wikirelay/wikirelay/sink/internal/storage"
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
	).With(logging.Service("sink"))
	logging.SetDefault(logger)

	slog.Info("Starting sink service",
		slog.String("stream", cfg.Consumer.Stream),
		slog.String("consumer", cfg.Consumer.Name),
		slog.Int("batch_size", cfg.Consumer.BatchSize),
		slog.Int("port", cfg.Server.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	natsCfg := natsclient.DefaultConfig()
	natsCfg.URL = cfg.NATS.URL
	natsCfg.Name = "wikirelay-sink"
	jsClient, err := natsclient.NewJetStreamClient(natsCfg)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer jsClient.Close()

	// The sink also ensures the stream exists so either service can start
	// first.
	if _, err := jsClient.CreateOrUpdateStream(ctx, natsclient.ChangeEventsStream); err != nil {
		log.Fatalf("Failed to ensure change events stream: %v", err)
	}

	consumerCfg := natsclient.DefaultSinkConsumerConfig()
	consumerCfg.Name = cfg.Consumer.Name
	jsConsumer, err := jsClient.CreateOrUpdateConsumer(ctx, cfg.Consumer.Stream, consumerCfg)
	if err != nil {
		log.Fatalf("Failed to create consumer: %v", err)
	}

	var indexer consumer.Indexer
	if cfg.OpenSearch.Enabled {
		osClient, err := storage.NewClient(storage.Config{
			URL:           cfg.OpenSearch.URL,
			Username:      cfg.OpenSearch.Username,
			Password:      cfg.OpenSearch.Password,
			TLSSkipVerify: cfg.OpenSearch.TLSSkipVerify,
			IndexPrefix:   cfg.OpenSearch.IndexPrefix,
		})
		if err != nil {
			log.Fatalf("Failed to create OpenSearch client: %v", err)
		}
		if err := osClient.Ping(ctx); err != nil {
			log.Fatalf("Failed to reach OpenSearch: %v", err)
		}
		indexer = osClient
		slog.Info("OpenSearch indexing enabled", slog.String("url", cfg.OpenSearch.URL))
	}

	worker := consumer.New(
		jsConsumer,
		indexer,
		cfg.Consumer.BatchSize,
		cfg.Consumer.FetchWait,
		cfg.Consumer.RestartDelay,
		logger,
	)

	workerDone := make(chan error, 1)
	go func() {
		workerDone <- worker.Run(ctx)
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(jsClient),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Sink service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down sink service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}

	select {
	case err := <-workerDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("Consumer exited with error", slog.String("error", err.Error()))
		}
	case <-time.After(5 * time.Second):
		slog.Warn("Consumer did not stop in time")
	}

	// Let in-flight acknowledgments complete before the connection drops.
	if err := jsClient.Drain(); err != nil {
		slog.Error("Failed to drain NATS connection", slog.String("error", err.Error()))
	}

	slog.Info("Sink service stopped")
}
