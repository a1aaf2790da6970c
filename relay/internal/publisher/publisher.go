// Package publisher sends canonical change events to the queue with bounded
// retry. Publish failures never propagate to the stream reader: on sustained
// queue outage events are dropped, counted, and logged so the ingestion
// pipeline stays alive.
package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/wikirelay/wikirelay/common/logging"
	"github.com/wikirelay/wikirelay/common/models"
	"github.com/wikirelay/wikirelay/relay/internal/metrics"
)

const (
	maxRetries = 3
	baseDelay  = 100 * time.Millisecond
)

// jsPublisher is the JetStream surface the publisher needs.
type jsPublisher interface {
	PublishSync(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher publishes change events to a single queue subject.
type Publisher struct {
	js      jsPublisher
	subject string
	log     *logging.Logger

	// sleep is injectable for tests; defaults to a timer-based wait.
	sleep func(ctx context.Context, d time.Duration)
}

// New creates a Publisher for the given subject.
func New(js jsPublisher, subject string, log *logging.Logger) *Publisher {
	return &Publisher{
		js:      js,
		subject: subject,
		log:     log,
		sleep:   wait,
	}
}

// Publish serializes the event and sends it as one queue message, retrying up
// to 3 times with exponential backoff on transport errors. It never returns a
// transport failure: after exhausting retries the event is dropped with a
// counter increment and an error log.
func (p *Publisher) Publish(ctx context.Context, ev *models.ChangeEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		metrics.PublishFailures.Inc()
		p.log.ErrorContext(ctx, "failed to serialize change event", logging.Error(err))
		return nil
	}

	// One message ID across all attempts so server-side dedupe can drop
	// duplicates from a retried publish whose ack was lost.
	msgID := uuid.New().String()

	start := time.Now()
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.sleep(ctx, baseDelay<<(attempt-1))
		}
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}

		_, lastErr = p.js.PublishSync(ctx, p.subject, data, jetstream.WithMsgID(msgID))
		if lastErr == nil {
			metrics.EventsPublished.Inc()
			metrics.PublishDuration.Observe(time.Since(start).Seconds())
			return nil
		}
	}

	metrics.PublishFailures.Inc()
	p.log.ErrorContext(ctx, "dropping change event after publish retries exhausted",
		logging.Subject(p.subject),
		logging.Error(lastErr),
	)
	return nil
}

func wait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
