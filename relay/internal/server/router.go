package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wikirelay/wikirelay/common/messaging"
	"github.com/wikirelay/wikirelay/common/middleware"
)

// NewRouter constructs the operational HTTP surface: liveness, readiness and
// metrics. health reports queue connectivity for the readiness probe.
func NewRouter(health messaging.HealthChecker) http.Handler {
	mux := http.NewServeMux()

	// Liveness for orchestration health checks.
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/healthz", handleHealth)

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if health != nil && !health.IsConnected() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
