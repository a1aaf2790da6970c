package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wikirelay/wikirelay/tools/eventgen/internal/generator"
	"github.com/wikirelay/wikirelay/tools/eventgen/internal/server"
)

var (
	serveAddr     string
	serveInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve synthetic streams over HTTP",
	Long: `Serves the profile's streams at /v2/stream/<name> as newline-delimited
JSON, plus the capability document at /?spec. Point a relay at it with
RELAY_WIKIMEDIA_BASE_URL.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 200*time.Millisecond, "delay between events")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	gen := generator.New(profile, seed)
	srv := &http.Server{
		Addr:    serveAddr,
		Handler: server.New(gen, profile.Streams, serveInterval).Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Serving streams %v on %s", profile.Streams, serveAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
