// Package storage provides the optional OpenSearch indexing sink for
// consumed change events.
package storage

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchutil"

	"github.com/wikirelay/wikirelay/common/models"
)

// Config holds OpenSearch connection and index settings.
type Config struct {
	URL           string
	Username      string
	Password      string
	TLSSkipVerify bool
	IndexPrefix   string
}

// Client indexes change events into daily indices.
type Client struct {
	osClient    *opensearch.Client
	indexPrefix string
}

// NewClient creates an OpenSearch client from cfg.
func NewClient(cfg Config) (*Client, error) {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify,
		},
	}

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	return &Client{
		osClient:    client,
		indexPrefix: cfg.IndexPrefix,
	}, nil
}

// Ping verifies connectivity, used at startup.
func (c *Client) Ping(ctx context.Context) error {
	info, err := c.osClient.Info(c.osClient.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to opensearch: %w", err)
	}
	defer info.Body.Close()

	if info.IsError() {
		return fmt.Errorf("opensearch returned error: %s", info.Status())
	}
	return nil
}

// Index bulk-indexes a batch of events into the current daily index.
func (c *Client) Index(ctx context.Context, events []*models.ChangeEvent) error {
	if len(events) == 0 {
		return nil
	}

	bi, err := opensearchutil.NewBulkIndexer(opensearchutil.BulkIndexerConfig{
		Client: c.osClient,
		Index:  c.writeIndex(time.Now().UTC()),
	})
	if err != nil {
		return fmt.Errorf("create bulk indexer: %w", err)
	}

	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		err = bi.Add(ctx, opensearchutil.BulkIndexerItem{
			Action: "index",
			Body:   strings.NewReader(string(data)),
		})
		if err != nil {
			return fmt.Errorf("add event to bulk request: %w", err)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return fmt.Errorf("flush bulk request: %w", err)
	}

	if stats := bi.Stats(); stats.NumFailed > 0 {
		return fmt.Errorf("%d of %d events failed to index", stats.NumFailed, len(events))
	}
	return nil
}

// writeIndex returns the daily index name for t, e.g. wikirelay-changes-2025.06.01.
func (c *Client) writeIndex(t time.Time) string {
	return fmt.Sprintf("%s-%s", c.indexPrefix, t.Format("2006.01.02"))
}
