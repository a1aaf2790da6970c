// Package schema validates the configured stream against the upstream
// capability document before the first connection of a process.
package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// streamPathTemplate is the capability document path whose streams parameter
// enumerates the currently offered streams.
const streamPathTemplate = "/v2/stream/{streams}"

const streamsParameter = "streams"

// ErrSchemaFetch wraps failures to retrieve or parse the capability document.
// These surface as fatal startup conditions; the validator never retries.
var ErrSchemaFetch = errors.New("stream capability document unavailable")

// UnknownStreamError reports that the configured stream is not currently
// offered upstream. It carries the valid names for the operator.
type UnknownStreamError struct {
	Stream       string
	ValidStreams []string
}

func (e *UnknownStreamError) Error() string {
	return fmt.Sprintf("stream %q is not offered upstream (valid streams: %s)",
		e.Stream, strings.Join(e.ValidStreams, ", "))
}

// capabilityDocument is the subset of the upstream OpenAPI document the
// validator consults: one path template, one parameter, its enum.
type capabilityDocument struct {
	Paths map[string]struct {
		Get struct {
			Parameters []struct {
				Name   string `json:"name"`
				Schema struct {
					Items struct {
						Enum []string `json:"enum"`
					} `json:"items"`
				} `json:"schema"`
			} `json:"parameters"`
		} `json:"get"`
	} `json:"paths"`
}

// Validator checks stream names against the upstream capability document.
type Validator struct {
	client  *http.Client
	specURL string
}

// New creates a Validator fetching the capability document from specURL.
func New(client *http.Client, specURL string) *Validator {
	return &Validator{client: client, specURL: specURL}
}

// Validate fetches the capability document and confirms the configured stream
// is currently offered. It runs once per process, before the first stream
// connection; failures abort startup rather than entering the reconnect loop.
func (v *Validator) Validate(ctx context.Context, stream string) error {
	valid, err := v.fetchStreams(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaFetch, err)
	}

	for _, name := range valid {
		if name == stream {
			return nil
		}
	}

	sort.Strings(valid)
	return &UnknownStreamError{Stream: stream, ValidStreams: valid}
}

func (v *Validator) fetchStreams(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.specURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var doc capabilityDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse capability document: %w", err)
	}

	path, ok := doc.Paths[streamPathTemplate]
	if !ok {
		return nil, fmt.Errorf("capability document has no %s path", streamPathTemplate)
	}

	for _, param := range path.Get.Parameters {
		if param.Name == streamsParameter && len(param.Schema.Items.Enum) > 0 {
			return param.Schema.Items.Enum, nil
		}
	}

	return nil, fmt.Errorf("capability document lists no streams for %s", streamPathTemplate)
}
