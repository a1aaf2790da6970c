// Package server exposes generated events over the same HTTP surface the
// real EventStreams service offers: a capability document at /?spec and
// line-delimited streams under /v2/stream/.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/wikirelay/wikirelay/tools/eventgen/internal/generator"
)

const streamPathPrefix = "/v2/stream/"

// Server serves synthetic event streams.
type Server struct {
	gen      *generator.Generator
	streams  []string
	interval time.Duration
}

// New creates a Server emitting one event per interval on each stream
// connection.
func New(gen *generator.Generator, streams []string, interval time.Duration) *Server {
	return &Server{
		gen:      gen,
		streams:  streams,
		interval: interval,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc(streamPathPrefix, s.handleStream)
	return mux
}

// handleRoot serves the capability document when queried with ?spec.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !r.URL.Query().Has("spec") {
		http.Error(w, "missing ?spec query", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.capabilityDocument())
}

// capabilityDocument describes the offered streams the way the real service
// does: an OpenAPI document whose stream path parameter enumerates the valid
// stream names.
func (s *Server) capabilityDocument() map[string]any {
	return map[string]any{
		"openapi": "3.0.0",
		"info": map[string]any{
			"title":   "eventgen",
			"version": "0.1.0",
		},
		"paths": map[string]any{
			"/v2/stream/{streams}": map[string]any{
				"get": map[string]any{
					"summary": "Stream synthetic recent-change events",
					"parameters": []any{
						map[string]any{
							"name": "streams",
							"in":   "path",
							"schema": map[string]any{
								"type": "array",
								"items": map[string]any{
									"type": "string",
									"enum": s.streams,
								},
							},
						},
					},
				},
			},
		},
	}
}

// handleStream writes newline-delimited events until the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	stream := strings.TrimPrefix(r.URL.Path, streamPathPrefix)
	if !s.offers(stream) {
		http.NotFound(w, r)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := w.Write(s.gen.NextLine(stream)); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) offers(stream string) bool {
	for _, name := range s.streams {
		if name == stream {
			return true
		}
	}
	return false
}
