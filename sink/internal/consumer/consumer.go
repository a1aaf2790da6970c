// Package consumer pulls change events from the queue in batches, logs each
// decodable event, and acknowledges the successfully processed subset once the
// whole batch has been handled. Messages that fail to decode stay
// unacknowledged: queue-level redelivery limits move them out of the way.
package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/wikirelay/wikirelay/common/logging"
	"github.com/wikirelay/wikirelay/common/models"
	"github.com/wikirelay/wikirelay/sink/internal/metrics"
)

// fetcher is the JetStream pull surface the consumer needs.
type fetcher interface {
	Fetch(batch int, opts ...jetstream.FetchOpt) (jetstream.MessageBatch, error)
}

// Indexer persists a batch of consumed events. Optional: logging is the
// contractual handling, indexing is additive.
type Indexer interface {
	Index(ctx context.Context, events []*models.ChangeEvent) error
}

// Consumer drains the change events queue until cancelled.
type Consumer struct {
	fetcher      fetcher
	indexer      Indexer
	batchSize    int
	fetchWait    time.Duration
	restartDelay time.Duration
	log          *logging.Logger

	// sleep is injectable for tests; defaults to a timer-based wait.
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a Consumer pulling from f. indexer may be nil.
func New(f fetcher, indexer Indexer, batchSize int, fetchWait, restartDelay time.Duration, log *logging.Logger) *Consumer {
	return &Consumer{
		fetcher:      f,
		indexer:      indexer,
		batchSize:    batchSize,
		fetchWait:    fetchWait,
		restartDelay: restartDelay,
		log:          log,
		sleep:        wait,
	}
}

// Run consumes batches until ctx is cancelled. A receive or acknowledge error
// logs, counts, and restarts the loop after a flat delay.
func (c *Consumer) Run(ctx context.Context) error {
	c.log.InfoContext(ctx, "starting queue consumer", logging.BatchSize(c.batchSize))

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := c.processBatch(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			metrics.ConsumeErrors.Inc()
			c.log.ErrorContext(ctx, "consume loop error, restarting",
				logging.Error(err),
				logging.Delay(c.restartDelay),
			)
			c.sleep(ctx, c.restartDelay)
		}
	}
}

// processBatch performs one receive-handle-acknowledge cycle.
func (c *Consumer) processBatch(ctx context.Context) error {
	batch, err := c.fetcher.Fetch(c.batchSize, jetstream.FetchMaxWait(c.fetchWait))
	if err != nil {
		return err
	}

	var handled []jetstream.Msg
	var events []*models.ChangeEvent

	for msg := range batch.Messages() {
		ev, ok := c.decode(ctx, msg)
		if !ok {
			continue
		}

		c.log.InfoContext(ctx, "change event received", ev.LogAttrs()...)
		metrics.MessagesProcessed.WithLabelValues(metrics.StatusProcessed).Inc()
		handled = append(handled, msg)
		events = append(events, ev)
	}

	if err := batch.Error(); err != nil {
		return err
	}

	if len(handled) == 0 {
		return nil
	}

	if c.indexer != nil {
		// Indexing failure does not block acknowledgment.
		if err := c.indexer.Index(ctx, events); err != nil {
			metrics.IndexErrors.Inc()
			c.log.ErrorContext(ctx, "failed to index batch", logging.Error(err))
		}
	}

	c.acknowledge(ctx, handled)
	metrics.Batches.Inc()
	return nil
}

// decode unmarshals one queue message. A message with an unreadable body is
// left unacknowledged for redelivery and eventual dead-lettering.
func (c *Consumer) decode(ctx context.Context, msg jetstream.Msg) (*models.ChangeEvent, bool) {
	var ev models.ChangeEvent
	if err := json.Unmarshal(msg.Data(), &ev); err != nil {
		metrics.MessagesProcessed.WithLabelValues(metrics.StatusDecodeError).Inc()
		c.log.WarnContext(ctx, "leaving undecodable message in queue",
			logging.Subject(msg.Subject()),
			logging.Error(err),
		)
		return nil, false
	}
	return &ev, true
}

// acknowledge acks the successfully processed messages of a batch in one pass.
func (c *Consumer) acknowledge(ctx context.Context, msgs []jetstream.Msg) {
	for _, msg := range msgs {
		if err := msg.Ack(); err != nil {
			c.log.WarnContext(ctx, "failed to acknowledge message", logging.Error(err))
			continue
		}
		metrics.MessagesAcked.Inc()
	}
}

func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
